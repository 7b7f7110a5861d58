// Package session holds graded results for a batch and persists them
// across restarts.
package session

import "sync"

// Result is one graded report: the display score parsed from the
// feedback header ("N/A" when grading failed) plus the full cleaned
// feedback text.
type Result struct {
	Filename string `json:"filename"`
	Score    string `json:"score"`
	Feedback string `json:"feedback"`
}

// Batch accumulates results in upload order. Re-grading a file replaces
// its result in place instead of appending a duplicate, so exports always
// carry one row per student.
type Batch struct {
	mu      sync.Mutex
	order   []string
	results map[string]Result
}

func NewBatch() *Batch {
	return &Batch{results: map[string]Result{}}
}

// Upsert records r, keyed by filename. First sight of a filename appends;
// later sights overwrite without moving its position.
func (b *Batch) Upsert(r Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.results[r.Filename]; !ok {
		b.order = append(b.order, r.Filename)
	}
	b.results[r.Filename] = r
}

// Has reports whether filename already carries a result. Used to skip
// already-graded files when a batch resumes.
func (b *Batch) Has(filename string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.results[filename]
	return ok
}

// Snapshot returns the results in insertion order.
func (b *Batch) Snapshot() []Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Result, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, b.results[name])
	}
	return out
}

// Len reports the number of distinct graded files.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}
