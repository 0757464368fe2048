package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ashureev/interview-labs/internal/domain"
	"github.com/ashureev/interview-labs/internal/shared"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
	appendRetries    = 3
	appendBaseDelay  = 50 * time.Millisecond
)

type dialect struct {
	dir         string
	goose       goose.Dialect
	placeholder func(n int) string
}

var (
	sqliteDialect = dialect{
		dir:         "sqlite",
		goose:       goose.DialectSQLite3,
		placeholder: func(int) string { return "?" },
	}
	postgresDialect = dialect{
		dir:         "postgres",
		goose:       goose.DialectPostgres,
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	}
)

// rebind rewrites '?' placeholders for the dialect.
func (d dialect) rebind(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(d.placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLStore implements ReportStore on database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

var _ ReportStore = (*SQLStore)(nil)

// NewSQLite opens (creating if needed) a SQLite report database.
func NewSQLite(ctx context.Context, dbPath string) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	return open(ctx, db, sqliteDialect)
}

// NewPostgres connects to a Postgres report database through pgx.
func NewPostgres(ctx context.Context, databaseURL string) (*SQLStore, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return open(ctx, db, postgresDialect)
}

// Open picks the backend by driver name ("sqlite" or "postgres").
func Open(ctx context.Context, driver, sqlitePath, databaseURL string) (*SQLStore, error) {
	switch driver {
	case "", "sqlite":
		return NewSQLite(ctx, sqlitePath)
	case "postgres":
		return NewPostgres(ctx, databaseURL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func open(ctx context.Context, db *sql.DB, d dialect) (*SQLStore, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrate(ctx, db, d); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &SQLStore{db: db, dialect: d}, nil
}

// AppendReport inserts a normalized scorecard. SQLite lock contention is
// retried with exponential backoff.
func (s *SQLStore) AppendReport(ctx context.Context, card domain.Scorecard) (*domain.StoredReport, error) {
	card = card.Normalize()
	createdAt := time.Now().UTC().Truncate(time.Second)

	var lastErr error
	for i := 0; i < appendRetries; i++ {
		id, err := s.insertReport(ctx, card, createdAt)
		if err == nil {
			return &domain.StoredReport{ID: id, Scorecard: card, CreatedAt: createdAt}, nil
		}
		lastErr = err
		if !shared.IsSQLiteConflictError(err) || i == appendRetries-1 {
			break
		}
		delay := appendBaseDelay * time.Duration(1<<i)
		slog.Debug("AppendReport hit SQLite lock, retrying", "attempt", i+1, "delay", delay)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("append report: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("append report: %w", lastErr)
}

func (s *SQLStore) insertReport(ctx context.Context, card domain.Scorecard, createdAt time.Time) (int64, error) {
	query := s.dialect.rebind(`
		INSERT INTO reports (tech_score, clarity_score, originality_score, feedback, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`)

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		card.Tech, card.Clarity, card.Originality, card.Feedback, createdAt.Unix(),
	).Scan(&id)
	return id, err
}

// GetReport retrieves a report by id.
func (s *SQLStore) GetReport(ctx context.Context, id int64) (*domain.StoredReport, error) {
	query := s.dialect.rebind(`
		SELECT id, tech_score, clarity_score, originality_score, feedback, created_at
		FROM reports WHERE id = ?`)

	report, err := scanReport(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan report row: %w", err)
	}
	return report, nil
}

// ListReports returns up to limit reports, newest first.
func (s *SQLStore) ListReports(ctx context.Context, limit int) ([]*domain.StoredReport, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	query := s.dialect.rebind(`
		SELECT id, tech_score, clarity_score, originality_score, feedback, created_at
		FROM reports ORDER BY id DESC LIMIT ?`)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close report rows", "error", closeErr)
		}
	}()

	var reports []*domain.StoredReport
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*domain.StoredReport, error) {
	var r domain.StoredReport
	var createdAt int64
	if err := row.Scan(
		&r.ID, &r.Scorecard.Tech, &r.Scorecard.Clarity, &r.Scorecard.Originality,
		&r.Scorecard.Feedback, &createdAt,
	); err != nil {
		return nil, err
	}
	r.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &r, nil
}

// Ping verifies database connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
