// Package archive records report runs in a SQL database. SQLite, MySQL and
// PostgreSQL are supported through database/sql.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

var ErrNotFound = errors.New("archive: run not found")

// Run is one report download, successful or not.
type Run struct {
	ID         string
	Variant    string // job or definition
	ReportID   string
	Format     string
	Status     string
	Path       string
	Bytes      int64
	Error      string
	Owner      string
	CreatedAt  time.Time
	FinishedAt time.Time
}

const schema = `CREATE TABLE IF NOT EXISTS report_runs (
	id          VARCHAR(64) PRIMARY KEY,
	variant     VARCHAR(16) NOT NULL,
	report_id   VARCHAR(64) NOT NULL,
	format      VARCHAR(8)  NOT NULL,
	status      VARCHAR(16) NOT NULL,
	path        TEXT,
	bytes       BIGINT      NOT NULL DEFAULT 0,
	error       TEXT,
	owner       VARCHAR(255),
	created_at  BIGINT      NOT NULL,
	finished_at BIGINT      NOT NULL DEFAULT 0
)`

const columns = "id, variant, report_id, format, status, path, bytes, error, owner, created_at, finished_at"

type Store struct {
	db     *sql.DB
	driver string
}

// DriverName maps a configured backend to its database/sql driver.
func DriverName(backend string) string {
	switch backend {
	case "sqlite", "sqlite3":
		return "sqlite3"
	case "postgres", "postgresql":
		return "postgres"
	}
	return backend
}

// Open connects to dsn and creates the report_runs table if needed.
func Open(ctx context.Context, backend, dsn string) (*Store, error) {
	driver := DriverName(backend)
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", backend, err)
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: ping %s: %w", backend, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: create schema: %w", err)
	}
	return &Store{db: db, driver: driver}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders as $1, $2... for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Record inserts r, or updates it when a run with the same id exists.
func (s *Store) Record(ctx context.Context, r Run) error {
	if r.ID == "" {
		return errors.New("archive: run id is required")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	var finished int64
	if !r.FinishedAt.IsZero() {
		finished = r.FinishedAt.Unix()
	}

	var exists int
	if err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM report_runs WHERE id = ?`), r.ID).Scan(&exists); err != nil {
		return fmt.Errorf("archive: lookup run %s: %w", r.ID, err)
	}
	if exists > 0 {
		_, err := s.db.ExecContext(ctx, s.rebind(
			`UPDATE report_runs SET status = ?, path = ?, bytes = ?, error = ?, finished_at = ? WHERE id = ?`),
			r.Status, r.Path, r.Bytes, r.Error, finished, r.ID)
		if err != nil {
			return fmt.Errorf("archive: update run %s: %w", r.ID, err)
		}
		return nil
	}

	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO report_runs (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		r.ID, r.Variant, r.ReportID, r.Format, r.Status, r.Path, r.Bytes, r.Error, r.Owner, r.CreatedAt.Unix(), finished)
	if err != nil {
		return fmt.Errorf("archive: insert run %s: %w", r.ID, err)
	}
	return nil
}

// Get returns the run with id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+columns+` FROM report_runs WHERE id = ?`), id)
	r, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("archive: get run %s: %w", id, err)
	}
	return r, nil
}

// List returns the most recent runs first. owner filters when non-empty.
func (s *Store) List(ctx context.Context, owner string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + columns + ` FROM report_runs`
	var args []any
	if owner != "" {
		query += ` WHERE owner = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ` + strconv.Itoa(limit)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("archive: list runs: %w", err)
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("archive: list runs: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// DeleteBefore removes runs created before t and returns how many were
// removed.
func (s *Store) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM report_runs WHERE created_at < ?`), t.Unix())
	if err != nil {
		return 0, fmt.Errorf("archive: delete runs: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(sc scanner) (*Run, error) {
	var (
		r                 Run
		path, errMsg, own sql.NullString
		created, finished int64
	)
	if err := sc.Scan(&r.ID, &r.Variant, &r.ReportID, &r.Format, &r.Status, &path, &r.Bytes, &errMsg, &own, &created, &finished); err != nil {
		return nil, err
	}
	r.Path, r.Error, r.Owner = path.String, errMsg.String, own.String
	r.CreatedAt = time.Unix(created, 0)
	if finished > 0 {
		r.FinishedAt = time.Unix(finished, 0)
	}
	return &r, nil
}
