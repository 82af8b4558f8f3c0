package migrator

import (
	"crypto/md5"
	"encoding/hex"
	"io/fs"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chmigrate/pkg/failure"
	"github.com/pseudomuto/chmigrate/pkg/parser"
)

type (
	// Migration is a single versioned migration file.
	//
	// The version comes from the digits before the first underscore of the file
	// name, so 007_create_events.sql has version 7. Everything after the
	// underscore is a free form description and plays no part in ordering.
	Migration struct {
		// Version identifies the migration. It is unique within a MigrationDir.
		Version uint32

		// Name is the base name of the file, e.g. 007_create_events.sql. It is
		// stored in the ledger's migration_name column.
		Name string

		// Content holds the exact bytes of the file. Checksums are computed
		// over these bytes.
		Content []byte
	}

	// MigrationDir is the catalog of migrations found in a directory, sorted
	// by ascending version.
	MigrationDir struct {
		Migrations []*Migration
	}
)

// LoadMigrationDir builds the catalog from the top level of dir.
//
// Only files ending in .sql are considered. Every one of them must be named
// `<digits>_<description>.sql`; the leading digits are parsed as the version
// with leading zeros ignored.
//
// Example:
//
//	dir, err := migrator.LoadMigrationDir(os.DirFS("./migrations"))
//	if err != nil {
//		return err
//	}
//
//	for _, m := range dir.Migrations {
//		fmt.Println(m.Version, m.Name)
//	}
//
// The returned error carries one of the failure kinds NoMigrationsDirectory,
// NoMigrationsFound, InvalidVersion or DuplicateVersion.
func LoadMigrationDir(dir fs.FS) (*MigrationDir, error) {
	entries, err := fs.ReadDir(dir, ".")
	if err != nil {
		return nil, failure.Wrap(err, failure.NoMigrationsDirectory, "failed to list migrations directory")
	}

	seen := make(map[uint32]string)
	migrations := make([]*Migration, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}

		name := entry.Name()
		version, err := ParseVersion(name)
		if err != nil {
			return nil, err
		}

		if other, ok := seen[version]; ok {
			return nil, failure.New(
				failure.DuplicateVersion,
				"migrations %s and %s share version %d",
				other,
				name,
				version,
			)
		}
		seen[version] = name

		content, err := fs.ReadFile(dir, name)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read migration: %s", name)
		}

		migrations = append(migrations, &Migration{
			Version: version,
			Name:    name,
			Content: content,
		})
	}

	if len(migrations) == 0 {
		return nil, failure.New(failure.NoMigrationsFound, "no .sql migration files found")
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return &MigrationDir{Migrations: migrations}, nil
}

// Discover loads the catalog from a directory on disk.
func Discover(dir string) (*MigrationDir, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, failure.Wrap(err, failure.NoMigrationsDirectory, "migrations directory %s is not readable", dir)
	}

	if !info.IsDir() {
		return nil, failure.New(failure.NoMigrationsDirectory, "%s is not a directory", dir)
	}

	md, err := LoadMigrationDir(os.DirFS(dir))
	if err != nil && failure.Is(err, failure.NoMigrationsFound) {
		return nil, failure.New(failure.NoMigrationsFound, "no .sql migration files found in %s", dir)
	}

	return md, err
}

// ParseVersion extracts the version from a migration file name.
//
//	ParseVersion("007_create_events.sql") // 7, nil
//	ParseVersion("create_events.sql")     // failure.InvalidVersion
func ParseVersion(name string) (uint32, error) {
	prefix, _, found := strings.Cut(path.Base(name), "_")
	if !found || prefix == "" {
		return 0, failure.New(failure.InvalidVersion, "migration %s must be named <version>_<description>.sql", name)
	}

	for _, c := range prefix {
		if c < '0' || c > '9' {
			return 0, failure.New(failure.InvalidVersion, "migration %s has a non-numeric version %q", name, prefix)
		}
	}

	version, err := strconv.ParseUint(prefix, 10, 32)
	if err != nil {
		return 0, failure.Wrap(err, failure.InvalidVersion, "migration %s has an out of range version", name)
	}

	return uint32(version), nil
}

// Checksum returns the hex encoded MD5 digest of the migration's content.
func (m *Migration) Checksum() string {
	return Checksum(m.Content)
}

// Script parses the migration's content into statements and settings.
func (m *Migration) Script() (*parser.Script, error) {
	return parser.ParseScript(string(m.Content))
}

// Checksum returns the hex encoded MD5 digest of content. It is used to notice
// edits to applied migrations, not as a security measure.
func Checksum(content []byte) string {
	sum := md5.Sum(content) // nolint: gosec
	return hex.EncodeToString(sum[:])
}

// Get returns the migration with the given version, if any.
func (md *MigrationDir) Get(version uint32) (*Migration, bool) {
	i := sort.Search(len(md.Migrations), func(i int) bool {
		return md.Migrations[i].Version >= version
	})

	if i < len(md.Migrations) && md.Migrations[i].Version == version {
		return md.Migrations[i], true
	}

	return nil, false
}
