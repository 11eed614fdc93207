package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/minjae/udbridge/pkg/types"
)

// staleAfter is how old the last sync may be before ShouldSync reports true
const staleAfter = 5 * time.Minute

// Store provides reads and sync over the search cache
type Store struct {
	cache  *Cache
	logger *logrus.Logger
}

// NewStore creates a new store instance
func NewStore(cache *Cache, logger *logrus.Logger) *Store {
	return &Store{cache: cache, logger: logger}
}

// syncMetadata mirrors the singleton sync_metadata row
type syncMetadata struct {
	LastSyncTime  int64
	LastMessageID int64
	TotalMessages int64
}

// getSyncMetadata returns the metadata row, or nil if never synced.
// q is either the pooled connection or an open transaction.
func getSyncMetadata(q interface {
	QueryRow(query string, args ...any) *sql.Row
}) (*syncMetadata, error) {
	var meta syncMetadata
	err := q.QueryRow("SELECT last_sync_time, last_message_id, total_messages FROM sync_metadata WHERE id = 1").
		Scan(&meta.LastSyncTime, &meta.LastMessageID, &meta.TotalMessages)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sync metadata: %w", err)
	}
	return &meta, nil
}

// ShouldSync reports whether the cache has never synced or is stale
func (s *Store) ShouldSync() (bool, error) {
	meta, err := getSyncMetadata(s.cache.DB())
	if err != nil {
		return false, err
	}
	if meta == nil {
		return true, nil
	}
	return time.Now().Unix()-meta.LastSyncTime > int64(staleAfter.Seconds()), nil
}

// GetByID returns a cached message, or nil if the id is not cached
func (s *Store) GetByID(id int64) (*types.CachedMessage, error) {
	row := s.cache.DB().QueryRow(
		"SELECT id, sender, content, content_preview, receive_date, file_paths FROM messages WHERE id = ?", id)
	msg, err := scanCachedMessage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached message: %w", err)
	}
	return msg, nil
}

// ReadPaginated returns a page of cached messages, newest first
func (s *Store) ReadPaginated(limit, offset int64) (*types.PaginatedCachedMessages, error) {
	if limit <= 0 {
		limit = 100
	}

	totalCount, err := s.Count()
	if err != nil {
		return nil, err
	}

	rows, err := s.cache.DB().Query(
		"SELECT id, sender, content, content_preview, receive_date, file_paths FROM messages ORDER BY receive_date DESC, id DESC LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query cached messages: %w", err)
	}
	defer rows.Close()

	var messages []types.CachedMessage
	for rows.Next() {
		msg, err := scanCachedMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cached message: %w", err)
		}
		messages = append(messages, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cached messages: %w", err)
	}

	return &types.PaginatedCachedMessages{Messages: messages, TotalCount: totalCount}, nil
}

// Count returns the number of cached messages
func (s *Store) Count() (int64, error) {
	var count int64
	if err := s.cache.DB().QueryRow("SELECT COUNT(*) FROM messages").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cached messages: %w", err)
	}
	return count, nil
}

// IsReady reports whether the cache holds any messages
func (s *Store) IsReady() (bool, error) {
	count, err := s.Count()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Stats returns cache statistics for the shell's status display
func (s *Store) Stats() (*types.CacheStats, error) {
	meta, err := getSyncMetadata(s.cache.DB())
	if err != nil {
		return nil, err
	}

	stats := &types.CacheStats{}
	if meta != nil {
		stats.LastSyncTime = meta.LastSyncTime
		stats.LastMessageID = meta.LastMessageID
		stats.TotalMessages = meta.TotalMessages
	}
	if info, err := os.Stat(s.cache.path); err == nil {
		stats.DBSizeBytes = info.Size()
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCachedMessage(row rowScanner) (*types.CachedMessage, error) {
	var (
		msg           types.CachedMessage
		preview       sql.NullString
		receiveDate   sql.NullString
		filePathsJSON sql.NullString
	)
	if err := row.Scan(&msg.ID, &msg.Sender, &msg.Content, &preview, &receiveDate, &filePathsJSON); err != nil {
		return nil, err
	}
	msg.ContentPreview = preview.String
	if receiveDate.Valid {
		msg.ReceiveDate = &receiveDate.String
	}
	msg.FilePaths = []string{}
	if filePathsJSON.Valid && filePathsJSON.String != "" {
		if err := json.Unmarshal([]byte(filePathsJSON.String), &msg.FilePaths); err != nil {
			// Tolerate rows written before file paths were JSON encoded
			msg.FilePaths = []string{}
		}
	}
	return &msg, nil
}
