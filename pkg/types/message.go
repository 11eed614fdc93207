package types

// Message represents one decoded row from the messenger's UDB
type Message struct {
	ID          int64    `json:"id"`
	Sender      string   `json:"sender"`
	Content     string   `json:"content"`
	ReceiveDate *string  `json:"receive_date,omitempty"`
	FilePaths   []string `json:"file_paths"`
}

// PaginatedMessages is a page of messages plus the filtered total
type PaginatedMessages struct {
	Messages   []Message `json:"messages"`
	TotalCount int64     `json:"total_count"`
}

// SearchResult represents a lightweight search hit
type SearchResult struct {
	ID          int64   `json:"id"`
	Sender      string  `json:"sender"`
	Snippet     string  `json:"snippet"`
	ReceiveDate *string `json:"receive_date,omitempty"`
}

// CachedMessage represents a message row owned by the search cache
type CachedMessage struct {
	ID             int64    `json:"id"`
	Sender         string   `json:"sender"`
	Content        string   `json:"content"`
	ContentPreview string   `json:"content_preview"`
	ReceiveDate    *string  `json:"receive_date,omitempty"`
	FilePaths      []string `json:"file_paths"`
}

// PaginatedCachedMessages is a page of cached messages plus the total
type PaginatedCachedMessages struct {
	Messages   []CachedMessage `json:"messages"`
	TotalCount int64           `json:"total_count"`
}

// SyncStats summarizes one incremental sync run
type SyncStats struct {
	NewMessages   int   `json:"new_messages"`
	TotalMessages int64 `json:"total_messages"`
	DurationMS    int64 `json:"duration_ms"`
}

// CacheStats describes the state of the search cache database
type CacheStats struct {
	TotalMessages int64 `json:"total_messages"`
	LastSyncTime  int64 `json:"last_sync_time"`
	LastMessageID int64 `json:"last_message_id"`
	DBSizeBytes   int64 `json:"db_size_bytes"`
}

// ScheduleItem represents one calendar entry in the owned schedule store
type ScheduleItem struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Content     *string `json:"content,omitempty"`
	StartDate   *string `json:"startDate,omitempty"`
	EndDate     *string `json:"endDate,omitempty"`
	IsAllDay    bool    `json:"isAllDay"`
	ReferenceID *string `json:"referenceId,omitempty"`
	Color       *string `json:"color,omitempty"`
	IsCompleted bool    `json:"isCompleted"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
	IsDeleted   bool    `json:"isDeleted"`
}
