package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/minjae/udbridge/internal/decode"
	"github.com/minjae/udbridge/pkg/types"
)

// Sync pulls rows with id above the stored high-water mark from the UDB at
// udbPath into the cache. All upserts and the metadata update commit in one
// transaction, so readers never see partial progress and a crash leaves the
// previous high-water mark intact. A single bad row is logged and skipped.
func (s *Store) Sync(udbPath string) (*types.SyncStats, error) {
	start := time.Now()

	if _, err := os.Stat(udbPath); err != nil {
		return nil, fmt.Errorf("UDB file not found: %s", udbPath)
	}

	udb, err := sql.Open("sqlite", udbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open UDB: %w", err)
	}
	defer udb.Close()

	var one int
	if err := udb.QueryRow("SELECT 1 FROM sqlite_master WHERE type='table' AND name='tbl_recv' LIMIT 1").Scan(&one); err != nil {
		return nil, fmt.Errorf("table tbl_recv not found in %s", udbPath)
	}

	meta, err := getSyncMetadata(s.cache.DB())
	if err != nil {
		return nil, err
	}
	var lastSyncedID int64
	if meta != nil {
		lastSyncedID = meta.LastMessageID
	}

	rows, err := udb.Query(
		"SELECT MessageKey, Sender, MessageText, MessageBody, ReceiveDate, FilePath FROM tbl_recv WHERE MessageKey > ? ORDER BY MessageKey ASC",
		lastSyncedID)
	if err != nil {
		return nil, fmt.Errorf("failed to query UDB: %w", err)
	}
	defer rows.Close()

	tx, err := s.cache.DB().Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsert, err := tx.Prepare(`
		INSERT INTO messages (id, sender, content, content_preview, receive_date, file_paths, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sender = excluded.sender,
			content = excluded.content,
			content_preview = excluded.content_preview,
			receive_date = excluded.receive_date,
			file_paths = excluded.file_paths,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer upsert.Close()

	now := time.Now().Unix()
	newCount := 0
	maxID := lastSyncedID

	for rows.Next() {
		var (
			id          int64
			sender      sql.NullString
			textVal     any
			bodyVal     any
			receiveDate sql.NullString
			filePath    sql.NullString
		)
		if err := rows.Scan(&id, &sender, &textVal, &bodyVal, &receiveDate, &filePath); err != nil {
			s.logger.WithError(err).Warn("Failed to scan UDB row, skipping")
			continue
		}

		content := decode.Content(textVal, bodyVal)
		filePathsJSON, err := json.Marshal(decode.FilePaths(filePath.String))
		if err != nil {
			filePathsJSON = []byte("[]")
		}

		var date any
		if receiveDate.Valid {
			date = receiveDate.String
		}

		_, err = upsert.Exec(id, sender.String, content, Preview(content), date, string(filePathsJSON), now, now)
		if err != nil {
			s.logger.WithError(err).WithField("id", id).Warn("Failed to upsert message, skipping")
			continue
		}

		newCount++
		if id > maxID {
			maxID = id
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read UDB rows: %w", err)
	}

	var totalMessages int64
	if err := tx.QueryRow("SELECT COUNT(*) FROM messages").Scan(&totalMessages); err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	_, err = tx.Exec(
		"INSERT OR REPLACE INTO sync_metadata (id, last_sync_time, last_message_id, total_messages) VALUES (1, ?, ?, ?)",
		time.Now().Unix(), maxID, totalMessages)
	if err != nil {
		return nil, fmt.Errorf("failed to update sync metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit sync: %w", err)
	}

	stats := &types.SyncStats{
		NewMessages:   newCount,
		TotalMessages: totalMessages,
		DurationMS:    time.Since(start).Milliseconds(),
	}
	s.logger.WithFields(logrus.Fields{
		"new":      stats.NewMessages,
		"total":    stats.TotalMessages,
		"duration": stats.DurationMS,
	}).Info("Sync completed")
	return stats, nil
}
