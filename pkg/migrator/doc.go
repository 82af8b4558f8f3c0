// Package migrator models the two sides that chmigrate reconciles: the catalog
// of migration files on disk and the ledger of migrations already applied to
// ClickHouse.
//
// Migration files live in a single directory and are named
// `<version>_<description>.sql`. The version is the leading run of digits,
// parsed as an unsigned 32 bit integer with leading zeros ignored, and must be
// unique within the directory:
//
//	migrations/
//	├── 001_create_events.sql
//	├── 002_add_created_at.sql
//	└── 010_seed_events.sql
//
// The ledger is the _migrations table. Each applied migration has one row
// holding its version, the MD5 checksum of the file at the time it ran, the
// file name and the time it was applied.
//
// Example usage:
//
//	md, err := migrator.Discover("./migrations")
//	if err != nil {
//		return err
//	}
//
//	ledger, err := migrator.LoadLedger(ctx, client)
//	if err != nil {
//		return err
//	}
//
//	for _, s := range migrator.GetStatus(md.Migrations, ledger) {
//		fmt.Printf("%d %s %s\n", s.Version, s.File, s.State())
//	}
//
// GetStatus is read only. Applying migrations is the job of the executor
// package.
package migrator
