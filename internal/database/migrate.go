package database

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
)

// Migration is one versioned pair of embedded SQL scripts.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

func (m *Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

// Checksum identifies the up script so edits after release are detected.
func (m *Migration) Checksum() string {
	sum := sha256.Sum256([]byte(m.Up))
	return hex.EncodeToString(sum[:])
}

//go:embed migrations/*.sql
var migrationFS embed.FS

var migrationFile = regexp.MustCompile(`^(\d{6})_([a-z0-9_]+)\.up\.sql$`)

// registered holds the embedded migrations; loading panics when the
// directory is malformed.
var registered = mustLoadMigrations(migrationFS, "migrations")

func mustLoadMigrations(fsys fs.FS, dir string) []Migration {
	ms, err := loadMigrations(fsys, dir)
	if err != nil {
		panic(fmt.Sprintf("load embedded migrations: %v", err))
	}
	return ms
}

// loadMigrations reads NNNNNN_name.up.sql files and their .down.sql
// counterparts from dir, sorted by version. Every up script needs a down
// script and versions must be unique.
func loadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	seen := make(map[int]string)
	var out []Migration
	for _, entry := range entries {
		match := migrationFile.FindStringSubmatch(entry.Name())
		if entry.IsDir() || match == nil {
			continue
		}
		version, _ := strconv.Atoi(match[1])
		if version == 0 {
			return nil, fmt.Errorf("%s: version must be positive", entry.Name())
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("%s: version %d already used by %s", entry.Name(), version, prev)
		}
		seen[version] = entry.Name()

		up, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		downName := fmt.Sprintf("%s_%s.down.sql", match[1], match[2])
		down, err := fs.ReadFile(fsys, path.Join(dir, downName))
		if err != nil {
			return nil, fmt.Errorf("%s has no %s: %w", entry.Name(), downName, err)
		}
		out = append(out, Migration{Version: version, Name: match[2], Up: string(up), Down: string(down)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// GetMigrations returns the registered migrations in version order.
func GetMigrations() []Migration {
	return registered
}

// GetMigrationByVersion returns the migration with version, or nil.
func GetMigrationByVersion(version int) *Migration {
	for i := range registered {
		if registered[i].Version == version {
			return &registered[i]
		}
	}
	return nil
}
