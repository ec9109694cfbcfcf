// Package history keeps a local log of finished extraction runs in an
// embedded SQLite database, so past totals stay auditable between sessions.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id                TEXT PRIMARY KEY,
	started_at        TEXT NOT NULL,
	documents         INTEGER NOT NULL,
	failed_documents  INTEGER NOT NULL,
	blocks            INTEGER NOT NULL,
	skipped_blocks    INTEGER NOT NULL,
	employees         INTEGER NOT NULL,
	net_payable_total TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at DESC);
`

// Run is one recorded extraction run.
type Run struct {
	ID              uuid.UUID
	StartedAt       time.Time
	Documents       int
	FailedDocuments int
	Blocks          int
	SkippedBlocks   int
	Employees       int
	NetPayableTotal decimal.Decimal
}

// Repository persists runs. Safe for sequential CLI use; SQLite serializes
// writers itself.
type Repository struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates or opens the database at path and applies the schema.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Repository, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}

	logger.Debug("history.open", "path", path)
	return &Repository{db: db, logger: logger}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Record inserts a run. The run's ID is assigned here when zero.
func (r *Repository) Record(ctx context.Context, run Run) (uuid.UUID, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, documents, failed_documents, blocks, skipped_blocks, employees, net_payable_total)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(),
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.Documents,
		run.FailedDocuments,
		run.Blocks,
		run.SkippedBlocks,
		run.Employees,
		run.NetPayableTotal.String(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("record run: %w", err)
	}

	r.logger.Info("history.record.ok", "run_id", run.ID.String(), "employees", run.Employees)
	return run.ID, nil
}

// Recent returns up to limit runs, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, started_at, documents, failed_documents, blocks, skipped_blocks, employees, net_payable_total
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run       Run
			id        string
			startedAt string
			total     string
		)
		if err := rows.Scan(&id, &startedAt, &run.Documents, &run.FailedDocuments, &run.Blocks, &run.SkippedBlocks, &run.Employees, &total); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("run id %q: %w", id, err)
		}
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("run started_at %q: %w", startedAt, err)
		}
		if run.NetPayableTotal, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("run total %q: %w", total, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
