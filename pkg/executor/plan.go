package executor

import (
	"github.com/pseudomuto/chmigrate/pkg/failure"
	"github.com/pseudomuto/chmigrate/pkg/migrator"
	"github.com/pseudomuto/chmigrate/pkg/parser"
)

// Step is a pending migration together with the statements and settings that
// applying it would send to ClickHouse.
type Step struct {
	Migration *migrator.Migration
	Script    *parser.Script
}

// Plan reports what Execute would apply given the ledger, without executing
// or recording anything. It fails under the same conditions as Execute would
// before running its first statement: missing migration files, divergent
// migrations when AbortDivergent is set, and unparseable migration files.
//
// Example usage:
//
//	steps, err := exec.Plan(migrationDir.Migrations, ledger)
//	if err != nil {
//		return err
//	}
//
//	for _, step := range steps {
//		fmt.Println(step.Migration.Name)
//		for _, stmt := range step.Script.Statements {
//			fmt.Println("  ", stmt)
//		}
//	}
func (e *Executor) Plan(migrations []*migrator.Migration, ledger *migrator.Ledger) ([]*Step, error) {
	if ledger == nil {
		ledger = migrator.NewLedger(nil)
	}

	migrations = sorted(migrations)
	if err := checkLedger(migrations, ledger); err != nil {
		return nil, err
	}

	steps := make([]*Step, 0, len(migrations))
	for _, m := range migrations {
		if row, ok := ledger.Get(m.Version); ok {
			if err := e.verify(m, row); err != nil {
				return nil, err
			}
			continue
		}

		script, err := m.Script()
		if err != nil {
			return nil, failure.Wrap(err, failure.KindOf(err), "failed to parse migration %s", m.Name)
		}

		steps = append(steps, &Step{Migration: m, Script: script})
	}

	return steps, nil
}
