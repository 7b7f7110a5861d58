package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/tgreen520/IB-Lab-Grading-Assistant/internal/api/http"
	auth "github.com/tgreen520/IB-Lab-Grading-Assistant/internal/auth/middleware"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/autosave"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/config"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/db"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/grader"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/pipeline"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/rbac"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/session"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()
	if cfg.APIKey == "" {
		log.Fatal("ANTHROPIC_API_KEY is required")
	}

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := session.NewSQLStore(dbh, cfg.DBDriver)

	// --- Blob store + autosave ---
	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}
	saver := autosave.New(bs, cfg.RecoveryDir)

	// --- Grading pipeline ---
	rubric, err := cfg.Rubric()
	if err != nil {
		log.Fatalf("rubric: %v", err)
	}
	runner := &pipeline.Runner{
		Grader: grader.New(cfg.APIKey, rubric, grader.DefaultPolicy()),
		Saver:  saver,
		Model:  cfg.Model,
		Delay:  cfg.FileDelay,
		OnResult: func(res session.Result) {
			// Events land in the shared "live" stream until the batch is
			// saved under a session name.
			if err := store.AppendEvent("live", "FileGraded", res.Filename, map[string]string{"score": res.Score}); err != nil {
				log.Printf("warning: record event for %s: %v", res.Filename, err)
			}
		},
	}
	app := api.NewApp(runner, store)

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	// Grading a large batch is slow by nature; cap requests generously.
	r.Use(middleware.Timeout(30 * time.Minute))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, cfg.AdminUser, cfg.AdminPassHash))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.With(rbac.Require("reports:grade")).
			Post("/grade", app.GradeHandler())

		pr.With(rbac.Require("results:view")).
			Get("/results", app.ResultsHandler())

		pr.With(rbac.Require("exports:view")).
			Get("/export/doc", app.ExportDocHandler())
		pr.With(rbac.Require("exports:view")).
			Get("/export/zip", app.ExportZipHandler())
		pr.With(rbac.Require("exports:view")).
			Get("/export/csv", app.ExportCSVHandler())

		pr.With(rbac.Require("sessions:manage")).
			Post("/sessions", app.SaveSessionHandler())
		pr.With(rbac.RequireAny("sessions:manage", "results:view")).
			Get("/sessions", app.ListSessionsHandler())
		pr.With(rbac.Require("sessions:manage")).
			Post("/sessions/{name}/load", app.LoadSessionHandler())
		pr.With(rbac.Require("sessions:manage")).
			Delete("/sessions/{name}", app.DeleteSessionHandler())
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s, model=%s)", cfg.HTTPAddr, cfg.DBDriver, cfg.Model)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
