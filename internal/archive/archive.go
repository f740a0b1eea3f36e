// Package archive persists completed runs in a local SQLite database.
package archive

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"refengine/internal/glyph"
	"refengine/internal/jsonutil"
	"refengine/internal/recursor"
	"refengine/internal/state"
)

//go:embed schema.sql
var schema string

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("run not found")

// Record is one archived run.
type Record struct {
	ID         string              `json:"id"`
	CreatedAt  time.Time           `json:"created_at"`
	Seed       state.State         `json:"seed"`
	Config     recursor.Config     `json:"config"`
	FinalState state.State         `json:"final_state"`
	HaltReason recursor.HaltReason `json:"halt_reason"`
	Iterations int                 `json:"iterations"`
	Trace      []glyph.Entry       `json:"trace"`
}

// NewRecord captures a finished run under a fresh ID.
func NewRecord(seed state.State, cfg recursor.Config, result *recursor.Result) Record {
	return Record{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Seed:       seed.Clone(),
		Config:     cfg,
		FinalState: result.FinalState.Clone(),
		HaltReason: result.HaltReason,
		Iterations: result.Iterations,
		Trace:      append([]glyph.Entry(nil), result.Trace...),
	}
}

// LastGlyph returns the glyph of the run's final step, or "".
func (r Record) LastGlyph() string {
	if len(r.Trace) == 0 {
		return ""
	}
	return r.Trace[len(r.Trace)-1].Glyph
}

// Store persists run records in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens (creating if needed) the archive at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Save inserts rec. States containing NaN or infinities cannot be archived.
func (s *Store) Save(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("run id is required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	seed, err := jsonutil.MarshalString(nonNil(rec.Seed), "encode seed")
	if err != nil {
		return err
	}
	cfg, err := jsonutil.MarshalString(rec.Config, "encode config")
	if err != nil {
		return err
	}
	final, err := jsonutil.MarshalString(nonNil(rec.FinalState), "encode final state")
	if err != nil {
		return err
	}
	trace := rec.Trace
	if trace == nil {
		trace = []glyph.Entry{}
	}
	traceJSON, err := jsonutil.MarshalString(trace, "encode trace")
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO runs (
		   id,
		   created_at,
		   seed,
		   config,
		   final_state,
		   halt_reason,
		   iterations,
		   last_glyph,
		   trace
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		toMillis(rec.CreatedAt),
		seed,
		cfg,
		final,
		rec.HaltReason.String(),
		rec.Iterations,
		rec.LastGlyph(),
		traceJSON,
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

const selectColumns = `id, created_at, seed, config, final_state, halt_reason, iterations, trace`

// Get returns one run by ID.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if s == nil || s.sqlDB == nil {
		return Record{}, fmt.Errorf("storage is not configured")
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM runs WHERE id = ?`, strings.TrimSpace(id))
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get run: %w", err)
	}
	return rec, nil
}

// List returns up to limit runs, newest first. A non-positive limit returns
// every run.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM runs ORDER BY created_at DESC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec                              Record
		createdAt                        int64
		seed, cfg, final, halt, traceRaw string
	)
	if err := row.Scan(&rec.ID, &createdAt, &seed, &cfg, &final, &halt, &rec.Iterations, &traceRaw); err != nil {
		return Record{}, err
	}
	rec.CreatedAt = fromMillis(createdAt)

	var err error
	if rec.Seed, err = state.ParseJSON([]byte(seed)); err != nil {
		return Record{}, err
	}
	if rec.FinalState, err = state.ParseJSON([]byte(final)); err != nil {
		return Record{}, err
	}
	if err := jsonutil.UnmarshalWithContext([]byte(cfg), &rec.Config, "decode config"); err != nil {
		return Record{}, err
	}
	if rec.HaltReason, err = recursor.ParseHaltReason(halt); err != nil {
		return Record{}, err
	}
	if rec.Trace, err = jsonutil.UnmarshalArrayAllowEmpty[glyph.Entry]([]byte(traceRaw), "decode trace"); err != nil {
		return Record{}, err
	}
	if rec.Trace == nil {
		rec.Trace = []glyph.Entry{}
	}
	return rec, nil
}

func nonNil(s state.State) state.State {
	if s == nil {
		return state.State{}
	}
	return s
}
