// Package http carries the gateway's request handlers. One App serves one
// teacher's working batch, mirroring the single-desk workflow the tool
// replaces: upload reports, watch results land, download exports, stash
// named sessions.
package http

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/pipeline"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/session"
)

type App struct {
	Runner *pipeline.Runner
	Store  *session.SQLStore

	mu    sync.Mutex
	batch *session.Batch
}

func NewApp(runner *pipeline.Runner, store *session.SQLStore) *App {
	return &App{Runner: runner, Store: store, batch: session.NewBatch()}
}

// Batch returns the working batch. Handlers hold it only long enough to
// read or grade; the batch itself is safe for concurrent use.
func (a *App) Batch() *session.Batch {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.batch
}

func (a *App) setBatch(b *session.Batch) {
	a.mu.Lock()
	a.batch = b
	a.mu.Unlock()
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
