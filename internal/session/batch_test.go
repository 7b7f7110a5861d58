package session

import "testing"

func TestBatchUpsertReplacesInPlace(t *testing.T) {
	b := NewBatch()
	b.Upsert(Result{Filename: "alice.docx", Score: "82", Feedback: "first pass"})
	b.Upsert(Result{Filename: "bob.pdf", Score: "N/A", Feedback: "error"})
	b.Upsert(Result{Filename: "alice.docx", Score: "87.5", Feedback: "regraded"})

	got := b.Snapshot()
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Filename != "alice.docx" || got[0].Score != "87.5" {
		t.Fatalf("re-grade did not replace in place: %+v", got[0])
	}
	if got[1].Filename != "bob.pdf" {
		t.Fatalf("order changed: %+v", got[1])
	}
}

func TestBatchHas(t *testing.T) {
	b := NewBatch()
	if b.Has("alice.docx") {
		t.Fatal("Has on empty batch")
	}
	b.Upsert(Result{Filename: "alice.docx", Score: "82"})
	if !b.Has("alice.docx") {
		t.Fatal("Has missed a recorded file")
	}
	if b.Len() != 1 {
		t.Fatalf("Len = %d, want 1", b.Len())
	}
}

func TestBatchSnapshotIsACopy(t *testing.T) {
	b := NewBatch()
	b.Upsert(Result{Filename: "alice.docx", Score: "82"})
	snap := b.Snapshot()
	snap[0].Score = "0"
	if b.Snapshot()[0].Score != "82" {
		t.Fatal("mutating a snapshot leaked into the batch")
	}
}
