// Package udb provides read-only access to the messenger's UDB file, a
// SQLite database whose schema is owned by the foreign application. Only
// the tbl_recv table is consumed.
package udb

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/minjae/udbridge/internal/decode"
	"github.com/minjae/udbridge/pkg/types"
)

const recvTable = "tbl_recv"

// Reader reads messages from a UDB file. Connections are short-lived, one
// per call; the foreign application holds its own locks on the file.
type Reader struct {
	logger *logrus.Logger
}

// NewReader creates a new UDB reader
func NewReader(logger *logrus.Logger) *Reader {
	return &Reader{logger: logger}
}

// open opens a connection to the UDB file, verifying it exists first
func (r *Reader) open(dbPath string) (*sql.DB, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("database file not found: %s", dbPath)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// tableExists reports whether a table is present in the database
func tableExists(db *sql.DB, table string) bool {
	var one int
	err := db.QueryRow("SELECT 1 FROM sqlite_master WHERE type='table' AND name=? LIMIT 1", table).Scan(&one)
	return err == nil
}

// ReadMessages returns a filtered, paginated message list from tbl_recv
// plus the total count of rows matching the filter. A non-empty searchTerm
// matches sender or raw text with LIKE; minID restricts to newer rows.
func (r *Reader) ReadMessages(dbPath string, limit, offset int64, searchTerm string, minID *int64) (*types.PaginatedMessages, error) {
	db, err := r.open(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if !tableExists(db, recvTable) {
		return nil, fmt.Errorf("table %s not found in %s", recvTable, dbPath)
	}

	// Conditions and their arguments are built together so the count and
	// page queries each get an independent argument list.
	var conditions []string
	var filterArgs []any

	if minID != nil {
		conditions = append(conditions, "MessageKey > ?")
		filterArgs = append(filterArgs, *minID)
	}
	if searchTerm != "" {
		conditions = append(conditions, "(Sender LIKE ? OR MessageText LIKE ?)")
		pattern := "%" + searchTerm + "%"
		filterArgs = append(filterArgs, pattern, pattern)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(MessageKey) FROM %s %s", recvTable, whereClause)
	var totalCount int64
	if err := db.QueryRow(countQuery, filterArgs...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	if limit <= 0 {
		limit = 50
	}
	pageArgs := append(append([]any{}, filterArgs...), limit, offset)

	pageQuery := fmt.Sprintf(
		"SELECT MessageKey, Sender, MessageText, MessageBody, ReceiveDate, FilePath FROM %s %s ORDER BY ReceiveDate DESC, MessageKey DESC LIMIT ? OFFSET ?",
		recvTable, whereClause)

	rows, err := db.Query(pageQuery, pageArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []types.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	return &types.PaginatedMessages{Messages: messages, TotalCount: totalCount}, nil
}

// LatestID returns the largest MessageKey, or nil when the table is absent
// or empty. Row content is never loaded; the watcher calls this on every
// qualifying file-system event.
func (r *Reader) LatestID(dbPath string) (*int64, error) {
	db, err := r.open(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if !tableExists(db, recvTable) {
		return nil, nil
	}

	var maxID sql.NullInt64
	if err := db.QueryRow(fmt.Sprintf("SELECT MAX(MessageKey) FROM %s", recvTable)).Scan(&maxID); err != nil {
		return nil, fmt.Errorf("failed to query max id: %w", err)
	}
	if !maxID.Valid {
		return nil, nil
	}
	return &maxID.Int64, nil
}

// QuickSearch runs a LIKE match over sender and raw text directly against
// the UDB, returning lightweight hits with a raw 100-character snippet.
// Snippets are taken from the undecoded text column, so compressed rows
// yield unreadable snippets; the FTS cache is the better search surface
// when it is ready.
func (r *Reader) QuickSearch(dbPath, searchTerm string, limit int64) ([]types.SearchResult, error) {
	db, err := r.open(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if !tableExists(db, recvTable) {
		return nil, fmt.Errorf("table %s not found in %s", recvTable, dbPath)
	}

	if limit <= 0 {
		limit = 100
	}
	pattern := "%" + searchTerm + "%"
	rows, err := db.Query(
		fmt.Sprintf("SELECT MessageKey, Sender, substr(MessageText, 1, 100), ReceiveDate FROM %s WHERE Sender LIKE ? OR MessageText LIKE ? ORDER BY ReceiveDate DESC, MessageKey DESC LIMIT ?", recvTable),
		pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to run search query: %w", err)
	}
	defer rows.Close()

	results := make([]types.SearchResult, 0)
	for rows.Next() {
		var (
			result      types.SearchResult
			sender      sql.NullString
			snippet     sql.NullString
			receiveDate sql.NullString
		)
		if err := rows.Scan(&result.ID, &sender, &snippet, &receiveDate); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		result.Sender = sender.String
		result.Snippet = snippet.String
		if receiveDate.Valid {
			result.ReceiveDate = &receiveDate.String
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// GetByID returns a single decoded message
func (r *Reader) GetByID(dbPath string, id int64) (*types.Message, error) {
	db, err := r.open(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	row := db.QueryRow(
		fmt.Sprintf("SELECT MessageKey, Sender, MessageText, MessageBody, ReceiveDate, FilePath FROM %s WHERE MessageKey = ?", recvTable), id)
	msg, err := scanMessage(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("message not found: %d", id)
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return msg, nil
}

// AllForSync returns every message ordered by id ascending, for use by the
// search cache's incremental sync caller
func (r *Reader) AllForSync(dbPath string) ([]types.Message, error) {
	db, err := r.open(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if !tableExists(db, recvTable) {
		return nil, fmt.Errorf("table %s not found in %s", recvTable, dbPath)
	}

	rows, err := db.Query(
		fmt.Sprintf("SELECT MessageKey, Sender, MessageText, MessageBody, ReceiveDate, FilePath FROM %s ORDER BY MessageKey ASC", recvTable))
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []types.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return messages, nil
}

// rowScanner covers *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// scanMessage decodes one tbl_recv row. Content decoding failures are
// absorbed by the decoder; only scan-level failures surface.
func scanMessage(row rowScanner) (*types.Message, error) {
	var (
		id          int64
		sender      sql.NullString
		textVal     any
		bodyVal     any
		receiveDate sql.NullString
		filePath    sql.NullString
	)
	if err := row.Scan(&id, &sender, &textVal, &bodyVal, &receiveDate, &filePath); err != nil {
		return nil, err
	}

	msg := &types.Message{
		ID:        id,
		Sender:    sender.String,
		Content:   decode.Content(textVal, bodyVal),
		FilePaths: decode.FilePaths(filePath.String),
	}
	if receiveDate.Valid {
		msg.ReceiveDate = &receiveDate.String
	}
	return msg, nil
}
