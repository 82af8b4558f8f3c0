package migrator

import (
	"time"

	"github.com/pseudomuto/chmigrate/pkg/utils"
)

// State summarizes a MigrationStatus.
type State int

const (
	// StatePending means the migration has no ledger row.
	StatePending State = iota

	// StateApplied means the migration has a ledger row with a matching checksum.
	StateApplied

	// StateDivergent means the migration was applied but its file has changed
	// since.
	StateDivergent
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateApplied:
		return "applied"
	case StateDivergent:
		return "divergent"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON and YAML output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// MigrationStatus describes one catalog file against the ledger. It is
// derived on demand and never persisted.
type MigrationStatus struct {
	Version uint32 `json:"version"`
	File    string `json:"file"`
	Applied bool   `json:"applied"`

	// AppliedAt, Checksum and ChecksumMatch are only set for applied
	// migrations. Checksum is the value stored in the ledger.
	AppliedAt     *time.Time `json:"applied_at,omitempty"`
	Checksum      *string    `json:"checksum,omitempty"`
	ChecksumMatch *bool      `json:"checksum_match,omitempty"`
}

// State returns the summary state of the migration.
func (s *MigrationStatus) State() State {
	switch {
	case !s.Applied:
		return StatePending
	case s.ChecksumMatch != nil && !*s.ChecksumMatch:
		return StateDivergent
	default:
		return StateApplied
	}
}

// GetStatus joins the catalog with the ledger by version. It returns one entry
// per migration in catalog order and never fails: edited files are reported
// with ChecksumMatch set to false and ledger rows without a file are left out.
func GetStatus(migrations []*Migration, ledger *Ledger) []*MigrationStatus {
	statuses := make([]*MigrationStatus, 0, len(migrations))

	for _, m := range migrations {
		status := &MigrationStatus{
			Version: m.Version,
			File:    m.Name,
		}

		if ledger != nil {
			if row, ok := ledger.Get(m.Version); ok {
				status.Applied = true
				status.AppliedAt = utils.Ptr(row.AppliedAt)
				status.Checksum = utils.Ptr(row.Checksum)
				status.ChecksumMatch = utils.Ptr(row.Checksum == m.Checksum())
			}
		}

		statuses = append(statuses, status)
	}

	return statuses
}
