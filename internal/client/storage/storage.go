// Package storage opens the local SQLite mirror, applies migrations, and
// bundles the repositories the sync core works with.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/echochat/internal/client/migrations"
	"github.com/dmitrijs2005/echochat/internal/client/repositories/conversations"
	"github.com/dmitrijs2005/echochat/internal/client/repositories/messages"
	"github.com/dmitrijs2005/echochat/internal/client/repositories/profiles"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// Repositories bundles the durable-store access objects.
type Repositories struct {
	Messages      messages.Repository
	Conversations conversations.Repository
	Profiles      profiles.Repository
}

// RunMigrations applies the embedded goose migrations. Migrations are
// additive only; cached rows never require a destructive rebuild.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (or creates) the mirror at dsn and migrates it.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, *Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	repos := &Repositories{
		Messages:      messages.NewSQLiteRepository(db),
		Conversations: conversations.NewSQLiteRepository(db),
		Profiles:      profiles.NewSQLiteRepository(db),
	}
	return db, repos, nil
}
