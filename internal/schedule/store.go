// Package schedule persists user-created calendar entries in an owned
// SQLite database, separate from both the foreign message store and the
// search cache.
package schedule

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/minjae/udbridge/pkg/types"
)

// Schema defines the schedule store layout. Timestamps are RFC 3339
// strings; deletion is a soft flag so entries stay recoverable.
const Schema = `
CREATE TABLE IF NOT EXISTS tbl_schedules (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	title TEXT NOT NULL,
	content TEXT,
	start_date TEXT,
	end_date TEXT,
	is_all_day BOOLEAN NOT NULL DEFAULT 0,
	reference_id TEXT,
	color TEXT,
	is_completed BOOLEAN NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	is_deleted BOOLEAN NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_schedules_start_date ON tbl_schedules(start_date);
`

// Store provides CRUD access to schedule entries
type Store struct {
	db     *sql.DB
	logger *logrus.Logger
}

// New opens (creating if needed) the schedule database at path
func New(path string, logger *logrus.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create schedule db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schedule db: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schedule schema: %w", err)
	}

	logger.WithField("path", path).Info("Schedule store initialized")
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// List returns all non-deleted entries overlapping the [start, end]
// window: entries starting in it, ending in it, or spanning it entirely.
func (s *Store) List(start, end string) ([]types.ScheduleItem, error) {
	rows, err := s.db.Query(`
		SELECT id, type, title, content, start_date, end_date, is_all_day,
		       reference_id, color, is_completed, created_at, updated_at, is_deleted
		FROM tbl_schedules
		WHERE is_deleted = 0 AND (
			(start_date BETWEEN ?1 AND ?2) OR
			(end_date BETWEEN ?1 AND ?2) OR
			(start_date <= ?1 AND end_date >= ?2)
		)
		ORDER BY start_date ASC`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	items := make([]types.ScheduleItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule row: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Create inserts a new entry. Missing timestamps are filled with the
// current time so callers may omit them.
func (s *Store) Create(item types.ScheduleItem) (types.ScheduleItem, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	if item.CreatedAt == "" {
		item.CreatedAt = now
	}
	if item.UpdatedAt == "" {
		item.UpdatedAt = now
	}

	_, err := s.db.Exec(`
		INSERT INTO tbl_schedules
			(id, type, title, content, start_date, end_date, is_all_day,
			 reference_id, color, is_completed, created_at, updated_at, is_deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Type, item.Title, item.Content, item.StartDate, item.EndDate,
		item.IsAllDay, item.ReferenceID, item.Color, item.IsCompleted,
		item.CreatedAt, item.UpdatedAt, item.IsDeleted)
	if err != nil {
		return types.ScheduleItem{}, fmt.Errorf("failed to create schedule: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"id": item.ID, "title": item.Title}).Debug("Schedule created")
	return item, nil
}

// Update replaces an existing entry's mutable fields. The id and
// created_at never change.
func (s *Store) Update(id string, item types.ScheduleItem) (types.ScheduleItem, error) {
	item.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	result, err := s.db.Exec(`
		UPDATE tbl_schedules SET
			type = ?, title = ?, content = ?, start_date = ?, end_date = ?,
			is_all_day = ?, reference_id = ?, color = ?, is_completed = ?,
			updated_at = ?, is_deleted = ?
		WHERE id = ?`,
		item.Type, item.Title, item.Content, item.StartDate, item.EndDate,
		item.IsAllDay, item.ReferenceID, item.Color, item.IsCompleted,
		item.UpdatedAt, item.IsDeleted, id)
	if err != nil {
		return types.ScheduleItem{}, fmt.Errorf("failed to update schedule: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return types.ScheduleItem{}, fmt.Errorf("schedule not found: %s", id)
	}

	item.ID = id
	return item, nil
}

// Delete soft-deletes an entry. It disappears from List but remains in
// the database.
func (s *Store) Delete(id string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	result, err := s.db.Exec(
		"UPDATE tbl_schedules SET is_deleted = 1, updated_at = ? WHERE id = ?", now, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("schedule not found: %s", id)
	}
	return nil
}

func scanItem(rows *sql.Rows) (types.ScheduleItem, error) {
	var item types.ScheduleItem
	err := rows.Scan(
		&item.ID, &item.Type, &item.Title, &item.Content,
		&item.StartDate, &item.EndDate, &item.IsAllDay,
		&item.ReferenceID, &item.Color, &item.IsCompleted,
		&item.CreatedAt, &item.UpdatedAt, &item.IsDeleted)
	return item, err
}
