package commands

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/minjae/udbridge/internal/cache"
	"github.com/minjae/udbridge/internal/config"
	"github.com/minjae/udbridge/internal/schedule"
	"github.com/minjae/udbridge/internal/udb"
	"github.com/minjae/udbridge/internal/watcher"
	"github.com/minjae/udbridge/pkg/types"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

// newTestRegistry builds a registry over a throwaway UDB with the given
// plain-text messages, one per sender/text pair.
func newTestRegistry(t *testing.T, messages [][2]string) *Registry {
	t.Helper()
	dir := t.TempDir()
	logger := testLogger()

	udbPath := filepath.Join(dir, "test.udb")
	db, err := sql.Open("sqlite", udbPath)
	if err != nil {
		t.Fatalf("failed to open test udb: %v", err)
	}
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE tbl_recv (
		MessageKey INTEGER PRIMARY KEY,
		Sender TEXT,
		MessageText,
		MessageBody,
		ReceiveDate TEXT,
		FilePath TEXT
	)`)
	if err != nil {
		t.Fatalf("failed to create tbl_recv: %v", err)
	}
	for i, m := range messages {
		_, err := db.Exec(
			"INSERT INTO tbl_recv (MessageKey, Sender, MessageText, MessageBody, ReceiveDate, FilePath) VALUES (?, ?, ?, NULL, ?, NULL)",
			i+1, m[0], m[1], "2025-03-10 09:00:00")
		if err != nil {
			t.Fatalf("failed to insert row: %v", err)
		}
	}

	cfg := &config.Config{
		UDBPath:           udbPath,
		CachePath:         filepath.Join(dir, "search.db"),
		ScheduleDBPath:    filepath.Join(dir, "schedule.db"),
		SearchResultLimit: 100,
		SearchCacheSize:   10,
	}

	searchCache, err := cache.New(cfg.CachePath, logger)
	if err != nil {
		t.Fatalf("cache.New() error: %v", err)
	}
	t.Cleanup(func() { searchCache.Close() })

	schedules, err := schedule.New(cfg.ScheduleDBPath, logger)
	if err != nil {
		t.Fatalf("schedule.New() error: %v", err)
	}
	t.Cleanup(func() { schedules.Close() })

	reg, err := NewRegistry(cfg, udb.NewReader(logger), cache.NewStore(searchCache, logger), schedules, &watcher.HideState{}, logger)
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}
	return reg
}

func mustExecute(t *testing.T, reg *Registry, name string, params map[string]interface{}) interface{} {
	t.Helper()
	cmd, ok := reg.GetCommand(name)
	if !ok {
		t.Fatalf("command %q not registered", name)
	}
	result, err := cmd.Execute(params)
	if err != nil {
		t.Fatalf("%s error: %v", name, err)
	}
	return result
}

func TestRegistry_AllCommandsRegistered(t *testing.T) {
	reg := newTestRegistry(t, nil)

	expected := []string{
		"read_messages", "get_message", "search_messages",
		"search_fts", "sync_search_db", "cached_messages",
		"get_cached_message", "cache_stats", "notify_hidden",
		"schedule_list", "schedule_create", "schedule_update", "schedule_delete",
	}
	for _, name := range expected {
		if _, ok := reg.GetCommand(name); !ok {
			t.Errorf("command %q missing", name)
		}
	}
	if got := len(reg.GetCommandDefinitions()); got != len(expected) {
		t.Errorf("definitions count = %d, want %d", got, len(expected))
	}
}

func TestReadMessages(t *testing.T) {
	reg := newTestRegistry(t, [][2]string{
		{"김선생", "내일 수업 준비"},
		{"박선생", "회의 일정 공지"},
	})

	result := mustExecute(t, reg, "read_messages", map[string]interface{}{})
	page, ok := result.(*types.PaginatedMessages)
	if !ok {
		t.Fatalf("unexpected result type %T", result)
	}
	if page.TotalCount != 2 || len(page.Messages) != 2 {
		t.Errorf("got %d/%d messages, want 2/2", len(page.Messages), page.TotalCount)
	}
}

func TestGetMessage(t *testing.T) {
	reg := newTestRegistry(t, [][2]string{{"김선생", "안녕하세요"}})

	result := mustExecute(t, reg, "get_message", map[string]interface{}{"id": float64(1)})
	msg, ok := result.(*types.Message)
	if !ok {
		t.Fatalf("unexpected result type %T", result)
	}
	if msg.ID != 1 || msg.Content != "안녕하세요" {
		t.Errorf("unexpected message: %+v", msg)
	}

	cmd, _ := reg.GetCommand("get_message")
	if _, err := cmd.Execute(map[string]interface{}{}); err == nil {
		t.Error("expected error for missing id")
	}
}

func TestSearchMessages_CachesResults(t *testing.T) {
	reg := newTestRegistry(t, [][2]string{
		{"김선생", "내일 수업 준비"},
		{"박선생", "회의 일정"},
	})

	params := map[string]interface{}{"search_term": "수업"}
	first := mustExecute(t, reg, "search_messages", params)
	results, ok := first.([]types.SearchResult)
	if !ok {
		t.Fatalf("unexpected result type %T", first)
	}
	if len(results) != 1 || results[0].Sender != "김선생" {
		t.Errorf("unexpected results: %+v", results)
	}

	if _, ok := reg.searchCache.Get("udb:수업"); !ok {
		t.Error("result should be cached after first search")
	}

	// Second call is served from the cache.
	second := mustExecute(t, reg, "search_messages", params)
	if len(second.([]types.SearchResult)) != 1 {
		t.Error("cached search returned different results")
	}
}

func TestSearchMessages_EmptyTerm(t *testing.T) {
	reg := newTestRegistry(t, nil)
	result := mustExecute(t, reg, "search_messages", map[string]interface{}{"search_term": ""})
	if len(result.([]types.SearchResult)) != 0 {
		t.Error("empty term should return no results")
	}
}

func TestSyncThenFTSAndCachedReads(t *testing.T) {
	reg := newTestRegistry(t, [][2]string{
		{"김선생", "내일 수업 준비하세요"},
		{"박선생", "회의 일정 공지"},
	})

	syncResult := mustExecute(t, reg, "sync_search_db", map[string]interface{}{"force": true})
	stats, ok := syncResult.(*types.SyncStats)
	if !ok {
		t.Fatalf("unexpected result type %T", syncResult)
	}
	if stats.NewMessages != 2 {
		t.Errorf("NewMessages = %d, want 2", stats.NewMessages)
	}

	// A fresh index makes an unforced sync a no-op.
	again := mustExecute(t, reg, "sync_search_db", map[string]interface{}{}).(*types.SyncStats)
	if again.NewMessages != 0 {
		t.Errorf("unforced sync on fresh index synced %d messages", again.NewMessages)
	}

	ftsResult := mustExecute(t, reg, "search_fts", map[string]interface{}{"query": "수업"})
	hits := ftsResult.([]types.SearchResult)
	if len(hits) != 1 || hits[0].Sender != "김선생" {
		t.Errorf("unexpected FTS hits: %+v", hits)
	}

	page := mustExecute(t, reg, "cached_messages", map[string]interface{}{}).(*types.PaginatedCachedMessages)
	if page.TotalCount != 2 {
		t.Errorf("cached TotalCount = %d, want 2", page.TotalCount)
	}

	single := mustExecute(t, reg, "get_cached_message", map[string]interface{}{"id": float64(1)}).(*types.CachedMessage)
	if single.Sender != "김선생" {
		t.Errorf("unexpected cached message: %+v", single)
	}

	cacheStats := mustExecute(t, reg, "cache_stats", map[string]interface{}{}).(*types.CacheStats)
	if cacheStats.TotalMessages != 2 {
		t.Errorf("stats TotalMessages = %d, want 2", cacheStats.TotalMessages)
	}
}

func TestGetCachedMessage_NotCached(t *testing.T) {
	reg := newTestRegistry(t, nil)
	cmd, _ := reg.GetCommand("get_cached_message")
	if _, err := cmd.Execute(map[string]interface{}{"id": float64(99)}); err == nil {
		t.Error("expected error for uncached id")
	}
}

func TestNotifyHidden(t *testing.T) {
	reg := newTestRegistry(t, nil)
	mustExecute(t, reg, "notify_hidden", map[string]interface{}{})
	// The cooldown is observable through the registry's hide state.
	if !reg.hideState.RecentlyHidden(time.Now()) {
		t.Error("hide state not marked")
	}
}

func TestScheduleLifecycle(t *testing.T) {
	reg := newTestRegistry(t, nil)

	item := map[string]interface{}{
		"id":        "s1",
		"type":      "event",
		"title":     "중간고사",
		"startDate": "2025-03-10T09:00:00Z",
		"endDate":   "2025-03-10T10:00:00Z",
	}
	mustExecute(t, reg, "schedule_create", map[string]interface{}{"item": item})

	listed := mustExecute(t, reg, "schedule_list", map[string]interface{}{
		"start": "2025-03-10T00:00:00Z",
		"end":   "2025-03-10T23:59:59Z",
	}).([]types.ScheduleItem)
	if len(listed) != 1 || listed[0].Title != "중간고사" {
		t.Fatalf("unexpected listing: %+v", listed)
	}

	item["title"] = "기말고사"
	mustExecute(t, reg, "schedule_update", map[string]interface{}{"id": "s1", "item": item})

	mustExecute(t, reg, "schedule_delete", map[string]interface{}{"id": "s1"})
	listed = mustExecute(t, reg, "schedule_list", map[string]interface{}{
		"start": "2025-03-10T00:00:00Z",
		"end":   "2025-03-10T23:59:59Z",
	}).([]types.ScheduleItem)
	if len(listed) != 0 {
		t.Errorf("deleted entry still listed: %+v", listed)
	}
}
