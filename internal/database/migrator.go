package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"conduit/internal/middleware"

	"gorm.io/gorm"
)

// migrationLockID keys the advisory lock held while migrating so that
// several instances starting together apply each migration once.
const migrationLockID int64 = 0x636f6e64756974

const ensureMigrationLogSQL = `CREATE TABLE IF NOT EXISTS migration_logs (
	version    BIGINT PRIMARY KEY,
	name       VARCHAR(255) NOT NULL,
	checksum   VARCHAR(64) NOT NULL DEFAULT '',
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// ErrSQLMigrationsUnsupported is returned for drivers other than postgres;
// the embedded scripts are PostgreSQL DDL.
var ErrSQLMigrationsUnsupported = errors.New("sql migrations require postgres; use DB_SCHEMA_MODE=auto")

// MigrationLog is one row of migration_logs.
type MigrationLog struct {
	Version   int
	Name      string
	Checksum  string
	AppliedAt time.Time
}

// Migrator applies and rolls back the registered SQL migrations.
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

// NewMigrator returns a Migrator over the embedded migrations.
func NewMigrator(db *gorm.DB) *Migrator {
	return &Migrator{db: db, migrations: GetMigrations()}
}

// Applied lists recorded migrations in version order. A database that was
// never migrated has no log table and reports none.
func (m *Migrator) Applied(ctx context.Context) ([]MigrationLog, error) {
	logs, err := readLogs(m.db.WithContext(ctx))
	if err != nil && isMissingTableError(err) {
		return []MigrationLog{}, nil
	}
	return logs, err
}

// Pending lists registered migrations that have not been applied.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	logs, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	return m.pending(logs), nil
}

func (m *Migrator) pending(logs []MigrationLog) []Migration {
	done := make(map[int]bool, len(logs))
	for _, l := range logs {
		done[l.Version] = true
	}
	var out []Migration
	for _, mig := range m.migrations {
		if !done[mig.Version] {
			out = append(out, mig)
		}
	}
	return out
}

// Up applies every pending migration in one transaction and returns how
// many ran. It refuses to run when the log holds versions this build does
// not know or when an applied script has since been edited.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	applied := 0
	err := m.locked(ctx, func(tx *gorm.DB) error {
		if err := tx.Exec(ensureMigrationLogSQL).Error; err != nil {
			return fmt.Errorf("ensure migration_logs: %w", err)
		}
		logs, err := readLogs(tx)
		if err != nil {
			return err
		}
		if err := m.verify(logs); err != nil {
			return err
		}

		for _, mig := range m.pending(logs) {
			start := time.Now()
			if err := tx.Exec(mig.Up).Error; err != nil {
				return fmt.Errorf("apply %s: %w", mig.String(), err)
			}
			if err := tx.Exec("INSERT INTO migration_logs (version, name, checksum) VALUES (?, ?, ?)",
				mig.Version, mig.Name, mig.Checksum()).Error; err != nil {
				return fmt.Errorf("record %s: %w", mig.String(), err)
			}
			middleware.Logger.InfoContext(ctx, "migration applied",
				"migration", mig.String(), "duration", time.Since(start))
			applied++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return applied, nil
}

// Down reverts version, which must be the most recently applied migration.
func (m *Migrator) Down(ctx context.Context, version int) error {
	mig := GetMigrationByVersion(version)
	if mig == nil {
		return fmt.Errorf("migration version %d not found", version)
	}

	return m.locked(ctx, func(tx *gorm.DB) error {
		logs, err := readLogs(tx)
		if err != nil {
			return err
		}
		if len(logs) == 0 || logs[len(logs)-1].Version != version {
			applied := false
			for _, l := range logs {
				applied = applied || l.Version == version
			}
			if !applied {
				return fmt.Errorf("migration %d has not been applied", version)
			}
			return fmt.Errorf("migration %d is not the latest applied (%d); roll back newer ones first",
				version, logs[len(logs)-1].Version)
		}

		if err := tx.Exec(mig.Down).Error; err != nil {
			return fmt.Errorf("revert %s: %w", mig.String(), err)
		}
		if err := tx.Exec("DELETE FROM migration_logs WHERE version = ?", version).Error; err != nil {
			return fmt.Errorf("unrecord %s: %w", mig.String(), err)
		}
		middleware.Logger.InfoContext(ctx, "migration rolled back", "migration", mig.String())
		return nil
	})
}

// locked runs fn in a transaction holding the migration advisory lock.
func (m *Migrator) locked(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if m.db.Dialector.Name() != "postgres" {
		return ErrSQLMigrationsUnsupported
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", migrationLockID).Error; err != nil {
			return fmt.Errorf("acquire migration lock: %w", err)
		}
		return fn(tx)
	})
}

func (m *Migrator) verify(logs []MigrationLog) error {
	known := make(map[int]*Migration, len(m.migrations))
	for i := range m.migrations {
		known[m.migrations[i].Version] = &m.migrations[i]
	}

	var problems []string
	for _, l := range logs {
		mig, ok := known[l.Version]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("%06d is applied but unknown to this build", l.Version))
		case l.Checksum != "" && l.Checksum != mig.Checksum():
			problems = append(problems, fmt.Sprintf("%s was edited after it was applied", mig.String()))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("migration_logs does not match this build: %s", strings.Join(problems, "; "))
	}
	return nil
}

func readLogs(db *gorm.DB) ([]MigrationLog, error) {
	var logs []MigrationLog
	err := db.Raw("SELECT version, name, checksum, applied_at FROM migration_logs ORDER BY version").
		Scan(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("read migration_logs: %w", err)
	}
	return logs, nil
}

func isMissingTableError(err error) bool {
	msg := err.Error()
	return (strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist")) ||
		strings.Contains(msg, "no such table")
}

// RunMigrations applies pending SQL migrations.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	_, err := NewMigrator(db).Up(ctx)
	return err
}

// RollbackMigration reverts the latest applied migration, which must be version.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	return NewMigrator(db).Down(ctx, version)
}
