package cache

import (
	"testing"
)

func TestSearch_FindsInsertedRow(t *testing.T) {
	s := newTestStore(t)
	udb := newTestUDB(t,
		[6]any{1, "홍길동", "안녕하세요 학교 공지입니다", nil, "2024-01-01", ""},
		[6]any{2, "김철수", "오늘 수업 시간표가 변경되었습니다", nil, "2024-01-02", ""},
	)
	if _, err := s.Sync(udb); err != nil {
		t.Fatalf("Sync() error: %v", err)
	}

	results, err := s.Search("학교", 100)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].ID != 1 || results[0].Sender != "홍길동" {
		t.Errorf("got %+v, want id=1 sender=홍길동", results[0])
	}
}

func TestSearch_SenderMatch(t *testing.T) {
	s := newTestStore(t)
	udb := newTestUDB(t, [6]any{1, "Principal Park", "announcement", nil, "2024-01-01", ""})
	if _, err := s.Sync(udb); err != nil {
		t.Fatalf("Sync() error: %v", err)
	}

	results, err := s.Search("Principal", 100)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	s := newTestStore(t)
	results, err := s.Search("   ", 100)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestSearch_SpecialCharactersEscaped(t *testing.T) {
	s := newTestStore(t)
	udb := newTestUDB(t, [6]any{1, "A", "plain message", nil, "2024-01-01", ""})
	if _, err := s.Sync(udb); err != nil {
		t.Fatalf("Sync() error: %v", err)
	}

	// None of these may produce an FTS syntax error
	for _, q := range []string{`"quoted"`, "star*", "col:on", `a"b*c:d`} {
		if _, err := s.Search(q, 100); err != nil {
			t.Errorf("Search(%q) error: %v", q, err)
		}
	}
}

func TestSearch_SnippetStripped(t *testing.T) {
	s := newTestStore(t)
	udb := newTestUDB(t, [6]any{1, "A", `<div style="color:red;">Hello</div> World`, nil, "2024-01-01", ""})
	if _, err := s.Sync(udb); err != nil {
		t.Fatalf("Sync() error: %v", err)
	}

	results, err := s.Search("Hello", 100)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Snippet != "Hello World" {
		t.Errorf("got snippet %q, want %q", results[0].Snippet, "Hello World")
	}
}

func TestFTSConsistency_UpdateRemovesStaleTerm(t *testing.T) {
	s := newTestStore(t)
	udb := newTestUDB(t, [6]any{1, "A", "uniqueoldterm content", nil, "2024-01-01", ""})
	if _, err := s.Sync(udb); err != nil {
		t.Fatalf("Sync() error: %v", err)
	}

	// Overwrite the row in place; the update trigger must swap the index entry
	if _, err := s.cache.DB().Exec("UPDATE messages SET content = 'uniquenewterm content' WHERE id = 1"); err != nil {
		t.Fatalf("update: %v", err)
	}

	stale, err := s.Search("uniqueoldterm", 100)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(stale) != 0 {
		t.Errorf("stale term still indexed: %v", stale)
	}

	fresh, err := s.Search("uniquenewterm", 100)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(fresh) != 1 || fresh[0].ID != 1 {
		t.Errorf("updated term not indexed: %v", fresh)
	}
}

func TestFTSConsistency_DeleteRemovesHit(t *testing.T) {
	s := newTestStore(t)
	udb := newTestUDB(t, [6]any{1, "A", "ephemeral content", nil, "2024-01-01", ""})
	if _, err := s.Sync(udb); err != nil {
		t.Fatalf("Sync() error: %v", err)
	}

	if _, err := s.cache.DB().Exec("DELETE FROM messages WHERE id = 1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	results, err := s.Search("ephemeral", 100)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("deleted row still indexed: %v", results)
	}
}
