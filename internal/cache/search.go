package cache

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/minjae/udbridge/pkg/types"
)

// Search runs a full-text query against the cache. The term is tried as a
// prefix match first; when that finds nothing it is retried as an exact
// phrase. Snippets come from the first 150 characters of stored content,
// not the matched region, so results read like the message list.
func (s *Store) Search(query string, limit int64) ([]types.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return []types.SearchResult{}, nil
	}
	if limit <= 0 {
		limit = 100
	}

	escaped := escapeFTS(query)

	results, err := s.runFTS(`"`+escaped+`"*`, limit)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return s.runFTS(`"`+escaped+`"`, limit)
	}
	return results, nil
}

// escapeFTS neutralizes FTS5 query syntax in a user term
func escapeFTS(query string) string {
	query = strings.ReplaceAll(query, `"`, `""`)
	query = strings.ReplaceAll(query, "*", "")
	query = strings.ReplaceAll(query, ":", " ")
	return query
}

func (s *Store) runFTS(match string, limit int64) ([]types.SearchResult, error) {
	rows, err := s.cache.DB().Query(`
		SELECT m.id, m.sender, substr(m.content, 1, 150), m.receive_date
		FROM messages_fts
		JOIN messages m ON m.id = messages_fts.rowid
		WHERE messages_fts MATCH ?
		ORDER BY m.receive_date DESC
		LIMIT ?`,
		match, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to run search: %w", err)
	}
	defer rows.Close()

	results := []types.SearchResult{}
	for rows.Next() {
		var (
			res         types.SearchResult
			rawSnippet  string
			receiveDate sql.NullString
		)
		if err := rows.Scan(&res.ID, &res.Sender, &rawSnippet, &receiveDate); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		res.Snippet = CleanSnippet(rawSnippet)
		if receiveDate.Valid {
			res.ReceiveDate = &receiveDate.String
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read search results: %w", err)
	}
	return results, nil
}
