// Package migrations embeds the schema and seed scripts and applies them in
// filename order. Every script is written to be re-applied on each start.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var schemaFS embed.FS

//go:embed seed/*.sql
var seedFS embed.FS

// Script is one embedded SQL file.
type Script struct {
	Name string
	Body string
}

// Migrator applies embedded scripts to a database.
type Migrator struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewMigrator constructs a Migrator.
func NewMigrator(db *sqlx.DB, logger *zap.Logger) *Migrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{db: db, logger: logger}
}

// Files returns the schema scripts in the order they are applied.
func Files() ([]Script, error) {
	return load(schemaFS, "sql")
}

// SeedFiles returns the demo data scripts in the order they are applied.
func SeedFiles() ([]Script, error) {
	return load(seedFS, "seed")
}

// Apply runs every schema script.
func (m *Migrator) Apply(ctx context.Context) error {
	scripts, err := Files()
	if err != nil {
		return err
	}
	return m.run(ctx, scripts)
}

// Seed runs the demo data scripts. Apply must have run first.
func (m *Migrator) Seed(ctx context.Context) error {
	scripts, err := SeedFiles()
	if err != nil {
		return err
	}
	return m.run(ctx, scripts)
}

func (m *Migrator) run(ctx context.Context, scripts []Script) error {
	for _, script := range scripts {
		start := time.Now()
		if err := m.exec(ctx, script); err != nil {
			return err
		}
		m.logger.Info("sql script applied", zap.String("script", script.Name), zap.Duration("took", time.Since(start)))
	}
	return nil
}

func (m *Migrator) exec(ctx context.Context, script Script) (err error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", script.Name, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, script.Body); err != nil {
		return fmt.Errorf("apply %s: %w", script.Name, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", script.Name, err)
	}
	return nil
}

func load(fsys fs.FS, dir string) ([]Script, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read %s scripts: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	scripts := make([]Script, 0, len(names))
	for _, name := range names {
		body, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		scripts = append(scripts, Script{Name: name, Body: string(body)})
	}
	return scripts, nil
}
