package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
)

func newDB(t *testing.T) *sql.DB {
	t.Helper()
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrate_RunsEmbeddedDir(t *testing.T) {
	db := newDB(t)

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })
	called := false
	gooseUpContext = func(ctx context.Context, got *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		called = true
		if got != db {
			return errors.New("unexpected db")
		}
		if dir != "." {
			return errors.New("unexpected dir")
		}
		return nil
	}

	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("Migrate() err=%v", err)
	}
	if !called {
		t.Fatalf("goose up was not called")
	}
}

func TestMigrate_WrapsError(t *testing.T) {
	db := newDB(t)

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })
	boom := errors.New("boom")
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return boom
	}

	err := Migrate(context.Background(), db)
	if !errors.Is(err, boom) {
		t.Fatalf("Migrate() err=%v, want wrapped boom", err)
	}
}

func TestMigrationStatus_UsesSeam(t *testing.T) {
	db := newDB(t)

	orig := gooseStatusContext
	t.Cleanup(func() { gooseStatusContext = orig })
	gooseStatusContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return nil
	}
	if err := MigrationStatus(context.Background(), db); err != nil {
		t.Fatalf("MigrationStatus() err=%v", err)
	}
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	if err := setupGoose(); err != nil {
		t.Fatalf("setupGoose() err=%v", err)
	}
	ms, err := goose.CollectMigrations(".", 0, goose.MaxVersion)
	if err != nil {
		t.Fatalf("CollectMigrations() err=%v", err)
	}
	if len(ms) == 0 {
		t.Fatalf("no embedded migrations")
	}
}
