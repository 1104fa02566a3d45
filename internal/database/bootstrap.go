package database

import (
	"context"
	"embed"

	"github.com/deppfellow/go-items/internal/config"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// The schema and seed statements are embedded at compile time so the
// binary carries them and never reads the filesystem at runtime.
//
//go:embed sql/*.sql
var statements embed.FS

// Conn is the subset of *pgx.Conn the bootstrap steps need.
type Conn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func statement(name string) (string, error) {
	b, err := statements.ReadFile("sql/" + name)
	if err != nil {
		return "", errors.Wrapf(err, "reading embedded %s", name)
	}
	return string(b), nil
}

// EnsureDatabase creates the database called name unless it already exists.
// It must run on a connection to another (administrative) database.
func EnsureDatabase(ctx context.Context, conn Conn, name string) (bool, error) {
	var exists bool
	err := conn.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)",
		name,
	).Scan(&exists)
	if err != nil {
		return false, errors.Wrapf(err, "checking database %q", name)
	}

	if exists {
		return false, nil
	}

	// Identifiers cannot be bound as parameters, sanitize instead.
	if _, err := conn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize()); err != nil {
		return false, errors.Wrapf(err, "creating database %q", name)
	}

	return true, nil
}

// EnsureSchema creates the items table if it is absent.
func EnsureSchema(ctx context.Context, conn Conn) error {
	sql, err := statement("schema.sql")
	if err != nil {
		return err
	}

	if _, err := conn.Exec(ctx, sql); err != nil {
		return errors.Wrap(err, "creating items table")
	}
	return nil
}

// SeedItems upserts the baseline rows keyed by name and returns the
// number of rows inserted or refreshed.
func SeedItems(ctx context.Context, conn Conn) (int64, error) {
	sql, err := statement("seed.sql")
	if err != nil {
		return 0, err
	}

	tag, err := conn.Exec(ctx, sql)
	if err != nil {
		return 0, errors.Wrap(err, "seeding items")
	}
	return tag.RowsAffected(), nil
}

// Bootstrap provisions the database, the items table and the seed rows.
//
// Flow:
//   - connect to the administrative database and ensure cfg.Database.Name exists
//   - connect to the target database, create the table, upsert seed rows
//
// Each step is idempotent, so running it twice is harmless. Single
// connections are used on purpose, a pool is pointless for a one-shot job.
func Bootstrap(ctx context.Context, logger *zerolog.Logger, cfg *config.Config) error {
	admin, err := pgx.Connect(ctx, DSN(cfg.Database, cfg.Database.AdminName))
	if err != nil {
		return errors.Wrapf(err, "connecting to %q", cfg.Database.AdminName)
	}

	created, err := EnsureDatabase(ctx, admin, cfg.Database.Name)
	// Close before connecting to the target, whatever happened.
	admin.Close(ctx)
	if err != nil {
		return err
	}

	if created {
		logger.Info().Str("database", cfg.Database.Name).Msg("database created successfully")
	} else {
		logger.Info().Str("database", cfg.Database.Name).Msg("database already exists")
	}

	conn, err := pgx.Connect(ctx, DSN(cfg.Database, cfg.Database.Name))
	if err != nil {
		return errors.Wrapf(err, "connecting to %q", cfg.Database.Name)
	}
	defer conn.Close(ctx)

	if err := EnsureSchema(ctx, conn); err != nil {
		return err
	}
	logger.Info().Msg("items table ready")

	rows, err := SeedItems(ctx, conn)
	if err != nil {
		return err
	}
	logger.Info().Int64("rows", rows).Msg("initial data inserted successfully")

	return nil
}
