package reviews

import (
	"context"
	"embed"
	"io/fs"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS returns the migration files for this package
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

// RegisterModels registers every model with db, required before m2m queries
func RegisterModels(db *bun.DB) {
	db.RegisterModel(Models()...)
}

// Migrate applies pending schema migrations. It returns the names of the
// migrations applied, empty when the schema is current.
func Migrate(ctx context.Context, db *bun.DB, logger Logger) ([]string, error) {
	logger = ResolveLogger(logger)

	migrator, err := newMigrator(db)
	if err != nil {
		return nil, err
	}

	if err := migrator.Init(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to init migrations")
	}

	if err := migrator.Lock(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to lock migrations")
	}
	defer migrator.Unlock(ctx)

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to run migrations")
	}

	if group.IsZero() {
		logger.Debug("schema up to date")
		return nil, nil
	}

	applied := make([]string, 0, len(group.Migrations))
	for _, m := range group.Migrations {
		applied = append(applied, m.Name)
	}
	logger.Info("migrated", "group", group.ID, "migrations", applied)

	return applied, nil
}

// Rollback reverts the last applied migration group
func Rollback(ctx context.Context, db *bun.DB, logger Logger) ([]string, error) {
	logger = ResolveLogger(logger)

	migrator, err := newMigrator(db)
	if err != nil {
		return nil, err
	}

	if err := migrator.Init(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to init migrations")
	}

	if err := migrator.Lock(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to lock migrations")
	}
	defer migrator.Unlock(ctx)

	group, err := migrator.Rollback(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to rollback migrations")
	}

	if group.IsZero() {
		logger.Debug("nothing to roll back")
		return nil, nil
	}

	reverted := make([]string, 0, len(group.Migrations))
	for _, m := range group.Migrations {
		reverted = append(reverted, m.Name)
	}
	logger.Info("rolled back", "group", group.ID, "migrations", reverted)

	return reverted, nil
}

func newMigrator(db *bun.DB) (*migrate.Migrator, error) {
	sub, err := fs.Sub(migrationsFS, "data/sql/migrations")
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to open migrations")
	}

	migrations := migrate.NewMigrations()
	if err := migrations.Discover(sub); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to discover migrations")
	}

	return migrate.NewMigrator(db, migrations), nil
}
