package gormrepo

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"
)

// migrationLockKey serializes concurrent migrators across processes.
const migrationLockKey int64 = 0x51_4d_4f_50

const schemaMigrationsDDL = `CREATE TABLE IF NOT EXISTS schema_migrations (
  version TEXT PRIMARY KEY,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// ApplyMigrations runs the *.sql files at the root of migrations that are not
// recorded in schema_migrations, in lexical order. Pending files apply in one
// transaction, so a failure applies none of them. It returns the versions it
// applied.
func ApplyMigrations(ctx context.Context, db *gorm.DB, migrations fs.FS) ([]string, error) {
	pending, err := pendingFiles(migrations)
	if err != nil {
		return nil, err
	}

	var applied []string
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`SELECT pg_advisory_xact_lock(?)`, migrationLockKey).Error; err != nil {
			return fmt.Errorf("lock migrations: %w", err)
		}
		if err := tx.Exec(schemaMigrationsDDL).Error; err != nil {
			return fmt.Errorf("create schema_migrations: %w", err)
		}
		var done []string
		if err := tx.Table("schema_migrations").Pluck("version", &done).Error; err != nil {
			return fmt.Errorf("list applied migrations: %w", err)
		}

		for _, name := range pending {
			version := strings.TrimSuffix(name, ".sql")
			if slices.Contains(done, version) {
				continue
			}
			if err := applyOne(tx, migrations, name, version); err != nil {
				return err
			}
			applied = append(applied, version)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}

func pendingFiles(migrations fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(migrations, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && path.Ext(e.Name()) == ".sql" {
			files = append(files, e.Name())
		}
	}
	slices.Sort(files)
	return files, nil
}

func applyOne(tx *gorm.DB, migrations fs.FS, name, version string) error {
	content, err := fs.ReadFile(migrations, name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}
	if err := tx.Exec(string(content)).Error; err != nil {
		return fmt.Errorf("apply migration %s: %w", name, err)
	}
	if err := tx.Exec(`INSERT INTO schema_migrations(version, applied_at) VALUES (?, ?)`, version, time.Now().UTC()).Error; err != nil {
		return fmt.Errorf("record migration %s: %w", version, err)
	}
	return nil
}
