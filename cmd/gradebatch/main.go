// Command gradebatch grades a folder of lab reports from the terminal and
// writes every export format next to them. It shares the whole pipeline
// with the gateway; only the front door differs.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/autosave"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/config"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/db"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/export"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/grader"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/ingest"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/pipeline"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/session"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/storage"
)

func main() {
	var (
		inDir       = flag.String("in", "", "directory of reports to grade (or pass files as args)")
		outDir      = flag.String("out", "./graded", "directory for exports and recovery files")
		model       = flag.String("model", "", "grading model (default from GRADING_MODEL)")
		delay       = flag.Duration("delay", 0, "pause between service calls (default from FILE_DELAY)")
		sessionName = flag.String("session", "", "also save results as a named session in the database")
	)
	flag.Parse()

	cfg := config.FromEnv()
	if cfg.APIKey == "" {
		log.Fatal("ANTHROPIC_API_KEY is required")
	}
	if *model == "" {
		*model = cfg.Model
	}
	if *delay == 0 {
		*delay = cfg.FileDelay
	}

	uploads, err := collectUploads(*inDir, flag.Args())
	if err != nil {
		log.Fatal(err)
	}
	if len(uploads) == 0 {
		log.Fatal("nothing to grade: give -in DIR or file arguments")
	}

	files, counts, ingestErrs := ingest.Normalize(uploads)
	for _, err := range ingestErrs {
		log.Printf("warning: %v", err)
	}
	fmt.Printf("found %d reports (%d docx, %d pdf, %d image), %d ignored\n",
		counts.Accepted(), counts.Docx, counts.PDF, counts.Image, counts.Ignored)

	bs, err := storage.NewFSStore(*outDir)
	if err != nil {
		log.Fatalf("output dir: %v", err)
	}
	rubric, err := cfg.Rubric()
	if err != nil {
		log.Fatalf("rubric: %v", err)
	}

	batch := session.NewBatch()
	runner := &pipeline.Runner{
		Grader: grader.New(cfg.APIKey, rubric, grader.DefaultPolicy()),
		Saver:  autosave.New(bs, cfg.RecoveryDir),
		Model:  *model,
		Delay:  *delay,
		OnResult: func(res session.Result) {
			fmt.Printf("  %-40s %s\n", res.Filename, res.Score)
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	if err := runner.Run(ctx, files, batch); err != nil {
		log.Printf("stopped early: %v (autosaved results kept)", err)
	}
	fmt.Printf("graded %d files in %s\n", batch.Len(), time.Since(start).Round(time.Second))

	if batch.Len() == 0 {
		return
	}
	if err := writeExports(bs, batch); err != nil {
		log.Fatalf("exports: %v", err)
	}
	fmt.Printf("exports written under %s\n", *outDir)

	if *sessionName != "" {
		if err := saveSession(cfg, *sessionName, *model, batch); err != nil {
			log.Fatalf("save session: %v", err)
		}
		fmt.Printf("session %q saved\n", *sessionName)
	}
}

func saveSession(cfg config.Config, name, model string, batch *session.Batch) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return err
	}
	defer dbh.Close()
	store := session.NewSQLStore(dbh, cfg.DBDriver)
	if err := store.Save(name, cfg.AdminUser, model, batch); err != nil {
		return err
	}
	return store.AppendEvent(name, "BatchFinished", name, map[string]int{"results": batch.Len()})
}

func collectUploads(dir string, args []string) ([]ingest.Upload, error) {
	var paths []string
	if dir != "" {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read input dir: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() {
				paths = append(paths, filepath.Join(dir, e.Name()))
			}
		}
	}
	paths = append(paths, args...)

	var uploads []ingest.Upload
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		uploads = append(uploads, ingest.Upload{Name: filepath.Base(p), Data: data})
	}
	return uploads, nil
}

func writeExports(bs storage.BlobStore, batch *session.Batch) error {
	results := batch.Snapshot()

	doc, err := export.MergedDoc(results)
	if err != nil {
		return err
	}
	if err := putBytes(bs, "All_Feedback.docx", doc); err != nil {
		return err
	}

	zipData, err := export.ZipBundle(results)
	if err != nil {
		return err
	}
	if err := putBytes(bs, "Feedback_Bundle.zip", zipData); err != nil {
		return err
	}

	csvData, err := export.Spreadsheet(results)
	if err != nil {
		return err
	}
	return putBytes(bs, "Gradebook.csv", csvData)
}

func putBytes(bs storage.BlobStore, key string, data []byte) error {
	_, err := bs.Put(key, bytes.NewReader(data))
	return err
}
