package database

import (
	"context"
	"embed"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/trezcool/studentrecords/core"
	"github.com/trezcool/studentrecords/core/student"
	dummydb "github.com/trezcool/studentrecords/storage/database/dummy"
	mongorepos "github.com/trezcool/studentrecords/storage/database/mongo"
	sqlxrepos "github.com/trezcool/studentrecords/storage/database/sqlx"
)

const MigrationsDir = "migrations"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store bundles the repositories of the configured backend.
type Store struct {
	Students student.Repository
	close    func(context.Context) error
}

func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Open connects to the backend selected by conf.Database.Driver and prepares it
// (unique indexes for mongo, migrations for postgres).
func Open(ctx context.Context, conf *core.Config) (*Store, error) {
	switch conf.Database.Driver {
	case core.DriverMongo:
		db, err := mongorepos.Open(ctx, conf)
		if err != nil {
			return nil, errors.Wrap(err, "opening mongo")
		}
		if err = mongorepos.EnsureIndexes(ctx, db); err != nil {
			_ = mongorepos.Close(ctx, db)
			return nil, err
		}
		return &Store{
			Students: mongorepos.NewStudentRepository(db),
			close:    func(ctx context.Context) error { return mongorepos.Close(ctx, db) },
		}, nil

	case core.DriverPostgres:
		db, err := OpenSQL(ctx, conf)
		if err != nil {
			return nil, errors.Wrap(err, "opening postgres")
		}
		if err = Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Store{
			Students: sqlxrepos.NewStudentRepository(db),
			close:    func(context.Context) error { return db.Close() },
		}, nil

	case core.DriverMemory:
		db, _ := dummydb.Open()
		return &Store{
			Students: dummydb.NewStudentRepository(db),
			close:    func(context.Context) error { return db.Close() },
		}, nil
	}
	return nil, errors.Errorf("unknown database driver %q", conf.Database.Driver)
}

// OpenSQL opens the postgres database at conf.Database.URI and waits for it to answer.
func OpenSQL(ctx context.Context, conf *core.Config) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", conf.Database.URI)
	if err != nil {
		return nil, err
	}
	if err = ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// SetupMigrations points goose at the embedded migrations.
func SetupMigrations() error {
	goose.SetBaseFS(migrationsFS)
	return goose.SetDialect("postgres")
}

func Migrate(db *sqlx.DB) error {
	if err := SetupMigrations(); err != nil {
		return errors.Wrap(err, "setting up migrations")
	}
	if err := goose.Up(db.DB, MigrationsDir); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}
