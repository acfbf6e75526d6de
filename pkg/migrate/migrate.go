package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"
)

const DefaultDir = "pkg/migrate/migrations"

const embeddedDir = "migrations"

// Embedded carries the SQL migrations compiled into the binary.
//
//go:embed migrations/*.sql
var Embedded embed.FS

// Source selects where migration files are read from. An empty Dir means
// the embedded copy.
type Source struct {
	Dir string
}

// FS returns the migrations as a filesystem rooted at the migration files.
func (s Source) FS() (fs.FS, error) {
	if s.Dir == "" {
		return fs.Sub(Embedded, embeddedDir)
	}
	return os.DirFS(s.Dir), nil
}

// Migrator applies one Source to a Postgres database.
type Migrator struct {
	provider *goose.Provider
}

func NewMigrator(db *sql.DB, src Source) (*Migrator, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	fsys, err := src.FS()
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}
	p, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Migrator{provider: p}, nil
}

// Step is one applied or rolled back migration.
type Step struct {
	Version   int64
	Path      string
	Direction string
	Err       error
}

func steps(results ...*goose.MigrationResult) []Step {
	out := make([]Step, 0, len(results))
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		out = append(out, Step{Version: r.Source.Version, Path: r.Source.Path, Direction: r.Direction, Err: r.Error})
	}
	return out
}

func (m *Migrator) Up(ctx context.Context) ([]Step, error) {
	res, err := m.provider.Up(ctx)
	if err != nil {
		return steps(res...), fmt.Errorf("goose up: %w", err)
	}
	return steps(res...), nil
}

// Down rolls back the most recent migration only.
func (m *Migrator) Down(ctx context.Context) ([]Step, error) {
	res, err := m.provider.Down(ctx)
	if err != nil {
		return steps(res), fmt.Errorf("goose down: %w", err)
	}
	return steps(res), nil
}

// Status mirrors goose's status listing.
type Status struct {
	Version int64
	Path    string
	Applied bool
}

func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	rows, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose status: %w", err)
	}
	out := make([]Status, 0, len(rows))
	for _, r := range rows {
		out = append(out, Status{Version: r.Source.Version, Path: r.Source.Path, Applied: r.State == goose.StateApplied})
	}
	return out, nil
}

// To moves the database up or down to target, given as the YYYYMMDDHHMMSS
// prefix of a migration file.
func (m *Migrator) To(ctx context.Context, target string) ([]Step, error) {
	version, err := strconv.ParseInt(target, 10, 64)
	if err != nil || version < 0 {
		return nil, fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS)", target)
	}
	current, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("get db version: %w", err)
	}
	var res []*goose.MigrationResult
	switch {
	case current == version:
		return nil, nil
	case current < version:
		res, err = m.provider.UpTo(ctx, version)
	default:
		res, err = m.provider.DownTo(ctx, version)
	}
	if err != nil {
		return steps(res...), fmt.Errorf("migrate to %d: %w", version, err)
	}
	return steps(res...), nil
}
