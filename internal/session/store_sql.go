package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

var ErrNotFound = errors.New("session not found")

// Meta describes a stored session without its results.
type Meta struct {
	ID        string `json:"id"`
	Owner     string `json:"owner"`
	Model     string `json:"model"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// SQLStore persists batches and an append-only grading event log.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// Save writes the session row and replaces its results with the batch
// snapshot. Result positions follow insertion order so Load rebuilds the
// batch exactly.
func (s *SQLStore) Save(id, owner, model string, b *Batch) error {
	now := time.Now().Unix()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO sessions (id,owner,model,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET model=EXCLUDED.model, updated_at=EXCLUDED.updated_at`,
		id, owner, model, now, now)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM session_results WHERE session_id=$1`, id); err != nil {
		return err
	}
	for i, r := range b.Snapshot() {
		_, err := tx.Exec(`INSERT INTO session_results (session_id,position,filename,score,feedback,graded_at)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			id, i, r.Filename, r.Score, r.Feedback, now)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Load rebuilds a batch from storage.
func (s *SQLStore) Load(id string) (*Batch, error) {
	var exist int
	if err := s.db.QueryRow(`SELECT 1 FROM sessions WHERE id=$1`, id).Scan(&exist); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rows, err := s.db.Query(`SELECT filename,score,feedback FROM session_results
		WHERE session_id=$1 ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	b := NewBatch()
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Filename, &r.Score, &r.Feedback); err != nil {
			return nil, err
		}
		b.Upsert(r)
	}
	return b, rows.Err()
}

// List returns stored sessions for an owner, newest first.
func (s *SQLStore) List(owner string) ([]Meta, error) {
	rows, err := s.db.Query(`SELECT id,owner,model,created_at,updated_at FROM sessions
		WHERE owner=$1 ORDER BY updated_at DESC`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Meta
	for rows.Next() {
		var m Meta
		if err := rows.Scan(&m.ID, &m.Owner, &m.Model, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Delete removes a session and, via the FK cascade, its results.
func (s *SQLStore) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM sessions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendEvent records a grading lifecycle event with a JSON payload.
func (s *SQLStore) AppendEvent(sessionID, typ, key string, data interface{}) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO grading_events (session_id,typ,key,data,created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		sessionID, typ, key, string(buf), time.Now().Unix())
	return err
}
