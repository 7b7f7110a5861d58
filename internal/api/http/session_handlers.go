package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/tgreen520/IB-Lab-Grading-Assistant/internal/auth/middleware"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/session"
)

// POST /sessions  { "name": "period-3-lab-6" }
// Saves the working batch under a name, overwriting a prior save.
func (a *App) SaveSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
			http.Error(w, "name required", http.StatusBadRequest)
			return
		}
		owner := auth.SubjectFromContext(r.Context())
		if err := a.Store.Save(req.Name, owner, a.Runner.Model, a.Batch()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if err := a.Store.AppendEvent(req.Name, "SessionSaved", req.Name, map[string]int{"results": a.Batch().Len()}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"saved": req.Name})
	}
}

// GET /sessions
func (a *App) ListSessionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := auth.SubjectFromContext(r.Context())
		metas, err := a.Store.List(owner)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if metas == nil {
			metas = []session.Meta{}
		}
		respondJSON(w, http.StatusOK, map[string]any{"sessions": metas})
	}
}

// POST /sessions/{name}/load
// Replaces the working batch with a saved one. Grading after a load skips
// the files the saved batch already covers.
func (a *App) LoadSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		b, err := a.Store.Load(name)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		a.setBatch(b)
		respondJSON(w, http.StatusOK, map[string]any{
			"loaded":  name,
			"results": b.Snapshot(),
		})
	}
}

// DELETE /sessions/{name}
func (a *App) DeleteSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if err := a.Store.Delete(name); err != nil {
			if errors.Is(err, session.ErrNotFound) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"deleted": name})
	}
}
