package consts

import (
	"os"
	"time"
)

const (
	// ModeDir is the standard file mode for creating directories
	ModeDir = os.FileMode(0o755)

	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)

	// LedgerTable is the name of the table recording applied migrations.
	LedgerTable = "_migrations"

	// DefaultConfigFile is the config file loaded when --config is not given.
	DefaultConfigFile = "chmigrate.yaml"

	// DefaultMigrationsDir is the directory scanned for migration files.
	DefaultMigrationsDir = "migrations"

	// DefaultHost is the ClickHouse HTTP endpoint used when none is configured.
	DefaultHost = "http://localhost:8123"

	// DefaultTableEngine is the engine clause for the ledger table.
	DefaultTableEngine = "MergeTree"

	// DefaultTimeout bounds dialing and reading from ClickHouse.
	DefaultTimeout = 30 * time.Second
)

// Environment variables read by the CLI.
const (
	EnvConfig         = "CH_MIGRATIONS_CONFIG"
	EnvHome           = "CH_MIGRATIONS_HOME"
	EnvHost           = "CH_MIGRATIONS_HOST"
	EnvUser           = "CH_MIGRATIONS_USER"
	EnvPassword       = "CH_MIGRATIONS_PASSWORD"
	EnvDatabase       = "CH_MIGRATIONS_DB"
	EnvDBEngine       = "CH_MIGRATIONS_DB_ENGINE"
	EnvTableEngine    = "CH_MIGRATIONS_TABLE_ENGINE"
	EnvTimeout        = "CH_MIGRATIONS_TIMEOUT"
	EnvCACert         = "CH_MIGRATIONS_CA_CERT"
	EnvCert           = "CH_MIGRATIONS_CERT"
	EnvKey            = "CH_MIGRATIONS_KEY"
	EnvAbortDivergent = "CH_MIGRATIONS_ABORT_DIVERGENT"
	EnvCreateDatabase = "CH_MIGRATIONS_CREATE_DATABASE"
	EnvLogFormat      = "CH_MIGRATIONS_LOG_FORMAT"
)
