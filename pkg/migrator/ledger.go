package migrator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/pkg/errors"
	"github.com/pseudomuto/chmigrate/pkg/consts"
)

type (
	ClickHouse interface {
		Query(context.Context, string, ...any) (driver.Rows, error)
	}

	// LedgerRow is one record of the _migrations table. Rows are written once
	// after a migration's statements succeed and never updated.
	LedgerRow struct {
		Version       uint32
		Checksum      string
		MigrationName string
		AppliedAt     time.Time
	}

	// Ledger is the set of applied migrations indexed by version.
	Ledger struct {
		rows     map[uint32]*LedgerRow
		versions []uint32
	}
)

// NewLedger builds a Ledger from rows. When a version appears more than once
// the earliest row is kept.
func NewLedger(rows []*LedgerRow) *Ledger {
	l := &Ledger{rows: make(map[uint32]*LedgerRow, len(rows))}

	for _, row := range rows {
		existing, ok := l.rows[row.Version]
		if ok && !row.AppliedAt.Before(existing.AppliedAt) {
			continue
		}

		if !ok {
			l.versions = append(l.versions, row.Version)
		}
		l.rows[row.Version] = row
	}

	sort.Slice(l.versions, func(i, j int) bool { return l.versions[i] < l.versions[j] })
	return l
}

// LoadLedger reads every row of the ledger table.
//
//	ledger, err := migrator.LoadLedger(ctx, client)
//	if err != nil {
//		return err
//	}
//
//	if row, ok := ledger.Get(3); ok {
//		fmt.Println(row.MigrationName, row.AppliedAt)
//	}
func LoadLedger(ctx context.Context, ch ClickHouse) (*Ledger, error) {
	rows, err := ch.Query(ctx, fmt.Sprintf(`
		SELECT
			version,
			checksum,
			migration_name,
			applied_at
		FROM %s
		ORDER BY version ASC, applied_at ASC
	`, consts.LedgerTable))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load ledger")
	}
	defer func() { _ = rows.Close() }()

	var entries []*LedgerRow
	for rows.Next() {
		row := &LedgerRow{}
		if err := rows.Scan(&row.Version, &row.Checksum, &row.MigrationName, &row.AppliedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan ledger row")
		}

		entries = append(entries, row)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate ledger rows")
	}

	return NewLedger(entries), nil
}

// LedgerExists reports whether the ledger table exists in the current
// database. Read only callers use it to avoid creating the table.
func LedgerExists(ctx context.Context, ch ClickHouse) (bool, error) {
	rows, err := ch.Query(
		ctx,
		"SELECT count() FROM system.tables WHERE database = currentDatabase() AND name = ?",
		consts.LedgerTable,
	)
	if err != nil {
		return false, errors.Wrap(err, "failed to look up ledger table")
	}
	defer func() { _ = rows.Close() }()

	var count uint64
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return false, errors.Wrap(err, "failed to scan ledger table count")
		}
	}

	if err := rows.Err(); err != nil {
		return false, errors.Wrap(err, "failed to look up ledger table")
	}

	return count > 0, nil
}

// Get returns the row recorded for version.
func (l *Ledger) Get(version uint32) (*LedgerRow, bool) {
	row, ok := l.rows[version]
	return row, ok
}

// Count returns the number of distinct applied versions.
func (l *Ledger) Count() int {
	return len(l.versions)
}

// Orphans returns the rows whose version has no file in the catalog, ordered
// by version.
func (l *Ledger) Orphans(md *MigrationDir) []*LedgerRow {
	var orphans []*LedgerRow
	for _, v := range l.versions {
		if md == nil {
			orphans = append(orphans, l.rows[v])
			continue
		}

		if _, ok := md.Get(v); !ok {
			orphans = append(orphans, l.rows[v])
		}
	}

	return orphans
}
