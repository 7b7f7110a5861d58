package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/db"
)

func testStore(t *testing.T) *SQLStore {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "sessions.db") + "?_pragma=busy_timeout(5000)"
	conn, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewSQLStore(conn, "sqlite")
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	s := testStore(t)

	b := NewBatch()
	b.Upsert(Result{Filename: "alice.docx", Score: "87.5", Feedback: "# SCORE: 87.5/100"})
	b.Upsert(Result{Filename: "bob.pdf", Score: "N/A", Feedback: "⚠️ Error: overloaded"})

	if err := s.Save("s1", "teacher", "claude-sonnet-4-20250514", b); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load("s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	snap := got.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("len = %d, want 2", len(snap))
	}
	if snap[0].Filename != "alice.docx" || snap[1].Filename != "bob.pdf" {
		t.Fatalf("order not preserved: %+v", snap)
	}
	if snap[1].Score != "N/A" {
		t.Fatalf("score = %q", snap[1].Score)
	}
}

func TestStoreSaveReplacesResults(t *testing.T) {
	s := testStore(t)

	b := NewBatch()
	b.Upsert(Result{Filename: "alice.docx", Score: "82", Feedback: "v1"})
	if err := s.Save("s1", "teacher", "", b); err != nil {
		t.Fatalf("save: %v", err)
	}
	b.Upsert(Result{Filename: "alice.docx", Score: "87.5", Feedback: "v2"})
	if err := s.Save("s1", "teacher", "", b); err != nil {
		t.Fatalf("re-save: %v", err)
	}

	got, err := s.Load("s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	snap := got.Snapshot()
	if len(snap) != 1 || snap[0].Feedback != "v2" {
		t.Fatalf("stale results survived re-save: %+v", snap)
	}
}

func TestStoreListAndDelete(t *testing.T) {
	s := testStore(t)

	if err := s.Save("s1", "teacher", "", NewBatch()); err != nil {
		t.Fatalf("save s1: %v", err)
	}
	if err := s.Save("s2", "teacher", "", NewBatch()); err != nil {
		t.Fatalf("save s2: %v", err)
	}
	if err := s.Save("other", "someone-else", "", NewBatch()); err != nil {
		t.Fatalf("save other: %v", err)
	}

	metas, err := s.List("teacher")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("len = %d, want 2", len(metas))
	}

	if err := s.Delete("s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Load("s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("load deleted session: err = %v", err)
	}
	if err := s.Delete("s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: err = %v", err)
	}
}

func TestStoreAppendEvent(t *testing.T) {
	s := testStore(t)
	if err := s.Save("s1", "teacher", "", NewBatch()); err != nil {
		t.Fatalf("save: %v", err)
	}
	err := s.AppendEvent("s1", "FileGraded", "alice.docx", map[string]string{"score": "87.5"})
	if err != nil {
		t.Fatalf("append event: %v", err)
	}
}
