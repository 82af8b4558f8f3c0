// Package failure defines the closed set of error kinds produced by chmigrate.
//
// Every fatal condition is constructed explicitly at its fault site as an
// *Error carrying one Kind, so callers can branch on the kind instead of
// inspecting error strings:
//
//	if failure.Is(err, failure.DivergentMigration) {
//		// a previously applied file was edited
//	}
package failure

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an Error.
type Kind int

const (
	// Unknown is reported by KindOf for errors not created by this package.
	Unknown Kind = iota

	// Config marks invalid configuration detected before any network I/O.
	Config

	// NoMigrationsDirectory marks a migrations directory that cannot be listed.
	NoMigrationsDirectory

	// NoMigrationsFound marks a migrations directory without any .sql files.
	NoMigrationsFound

	// InvalidVersion marks a migration file name without a valid numeric prefix.
	InvalidVersion

	// DuplicateVersion marks two migration files sharing one version.
	DuplicateVersion

	// Connection marks failures to reach or authenticate against ClickHouse.
	Connection

	// MissingMigrationFile marks a ledger row whose source file is gone.
	MissingMigrationFile

	// DivergentMigration marks an applied migration whose file changed.
	DivergentMigration

	// MigrationExecution marks a statement or ledger write that failed.
	MigrationExecution

	// UnterminatedComment marks a block comment that is never closed.
	UnterminatedComment
)

var kindNames = map[Kind]string{
	Unknown:               "unknown",
	Config:                "config",
	NoMigrationsDirectory: "no_migrations_directory",
	NoMigrationsFound:     "no_migrations_found",
	InvalidVersion:        "invalid_version",
	DuplicateVersion:      "duplicate_version",
	Connection:            "connection",
	MissingMigrationFile:  "missing_migration_file",
	DivergentMigration:    "divergent_migration",
	MigrationExecution:    "migration_execution",
	UnterminatedComment:   "unterminated_comment",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the error type returned by chmigrate for every fatal condition.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

// New creates an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind that wraps cause.
func Wrap(cause error, kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Msg
	}

	return e.Msg + ": " + e.Cause.Error()
}

// Unwrap exposes the wrapped cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf returns the kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}

	return Unknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
