// Package storage persists client-side state between CLI invocations: the
// signed-in session and saved invoice drafts.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"invoicer/internal/core"
	"invoicer/internal/log"

	_ "modernc.org/sqlite"
)

var (
	ErrNoSession     = errors.New("no stored session")
	ErrDraftNotFound = errors.New("draft not found")
)

// DraftInfo describes a saved draft without loading it.
type DraftInfo struct {
	Name      string
	UpdatedAt time.Time
}

type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer is all a CLI process needs and it avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger = logger.WithComponent(log.ComponentStorage)
	logger.Debug("State store ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db, logger: logger, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) stamp() string {
	return r.now().UTC().Format(time.RFC3339Nano)
}

// LoadSession returns the stored token and the raw profile JSON. The profile
// is returned undecoded so the caller decides what to do with a corrupt value.
func (r *SQLiteRepository) LoadSession(ctx context.Context) (string, []byte, error) {
	var token, user string
	err := r.db.QueryRowContext(ctx, `SELECT token, user_json FROM session WHERE id = 1`).Scan(&token, &user)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, ErrNoSession
	}
	if err != nil {
		return "", nil, fmt.Errorf("load session: %w", err)
	}
	return token, []byte(user), nil
}

func (r *SQLiteRepository) SaveSession(ctx context.Context, token string, userJSON []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session (id, token, user_json, updated_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET token = excluded.token, user_json = excluded.user_json, updated_at = excluded.updated_at`,
		token, string(userJSON), r.stamp())
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	r.logger.DebugContext(ctx, "Session saved")
	return nil
}

func (r *SQLiteRepository) ClearSession(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	r.logger.DebugContext(ctx, "Session cleared")
	return nil
}

func (r *SQLiteRepository) SaveDraft(ctx context.Context, name string, d core.Draft) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft %q: %w", name, err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO drafts (name, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		name, string(body), r.stamp())
	if err != nil {
		return fmt.Errorf("save draft %q: %w", name, err)
	}
	r.logger.DebugContext(ctx, "Draft saved", log.FieldDraft, name, log.FieldInvoiceNumber, d.InvoiceNumber)
	return nil
}

func (r *SQLiteRepository) LoadDraft(ctx context.Context, name string) (core.Draft, error) {
	var body string
	err := r.db.QueryRowContext(ctx, `SELECT body FROM drafts WHERE name = ?`, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Draft{}, fmt.Errorf("%w: %s", ErrDraftNotFound, name)
	}
	if err != nil {
		return core.Draft{}, fmt.Errorf("load draft %q: %w", name, err)
	}
	var d core.Draft
	if err := json.Unmarshal([]byte(body), &d); err != nil {
		return core.Draft{}, fmt.Errorf("decode draft %q: %w", name, err)
	}
	return d, nil
}

func (r *SQLiteRepository) DeleteDraft(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM drafts WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete draft %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrDraftNotFound, name)
	}
	return nil
}

func (r *SQLiteRepository) ListDrafts(ctx context.Context) ([]DraftInfo, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, updated_at FROM drafts ORDER BY updated_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var out []DraftInfo
	for rows.Next() {
		var name, updated string
		if err := rows.Scan(&name, &updated); err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		ts, _ := time.Parse(time.RFC3339Nano, updated)
		out = append(out, DraftInfo{Name: name, UpdatedAt: ts})
	}
	return out, rows.Err()
}

// ClearDrafts drops every saved draft and reports how many there were.
func (r *SQLiteRepository) ClearDrafts(ctx context.Context) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM drafts`)
	if err != nil {
		return 0, fmt.Errorf("clear drafts: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
