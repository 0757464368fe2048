package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

func migrate(ctx context.Context, db *sql.DB, d dialect) error {
	sub, err := fs.Sub(migrationsFS, "migrations/"+d.dir)
	if err != nil {
		return fmt.Errorf("open %s migrations: %w", d.dir, err)
	}
	provider, err := goose.NewProvider(d.goose, db, sub)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		slog.Info("Applied migration", "dialect", d.dir, "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}
