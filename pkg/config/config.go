package config

import (
	"io"
	"os"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chmigrate/pkg/clickhouse"
	"github.com/pseudomuto/chmigrate/pkg/consts"
	"github.com/pseudomuto/chmigrate/pkg/failure"
	"gopkg.in/yaml.v3"
)

// Engine clauses are spliced into DDL verbatim, so only a name with an
// optional argument list of quoted strings, identifiers and numbers is
// accepted. Quotes, backslashes and semicolons never appear inside an
// argument.
const (
	engineArg  = `(?:'[^'\\;]*'|[A-Za-z0-9_{}.]+)`
	engineArgs = `(?:\(\s*(?:` + engineArg + `(?:\s*,\s*` + engineArg + `)*)?\s*\))?`
)

var (
	databaseEngineRegex = regexp.MustCompile(`^(?:Atomic|Ordinary|Memory|Lazy|Replicated)` + engineArgs + `$`)
	tableEngineRegex    = regexp.MustCompile(
		`^(?:(?:Replicated|Shared)?(?:Replacing|Summing|Aggregating|Collapsing|VersionedCollapsing|Graphite)?MergeTree` +
			`|Memory|Log|TinyLog|StripeLog)` + engineArgs + `$`,
	)
	databaseNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

type (
	// TLS points at the PEM files used to secure the connection.
	TLS struct {
		// CAFile verifies the server certificate. Defaults to the system pool.
		CAFile string `yaml:"ca_file,omitempty"`

		// CertFile and KeyFile enable client certificate authentication and
		// must be set together.
		CertFile string `yaml:"cert_file,omitempty"`
		KeyFile  string `yaml:"key_file,omitempty"`
	}

	// Config holds everything needed to run or report on migrations.
	//
	// Example chmigrate.yaml:
	//
	//	dir: db/migrations
	//	host: https://ch.internal:8443
	//	user: migrator
	//	database: analytics
	//	table_engine: ReplicatedMergeTree('/clickhouse/tables/{shard}/_migrations', '{replica}')
	//	timeout: 1m
	//	settings:
	//	  insert_quorum: "2"
	Config struct {
		// Dir is the directory scanned for migration files.
		Dir string `yaml:"dir"`

		// Host is a ClickHouse HTTP address or DSN.
		Host     string `yaml:"host"`
		User     string `yaml:"user,omitempty"`
		Password string `yaml:"password,omitempty"`

		// Database is the target database. Empty uses the server default.
		Database string `yaml:"database,omitempty"`

		// DBEngine is the engine clause used when creating the database.
		DBEngine string `yaml:"db_engine,omitempty"`

		// TableEngine is the engine clause of the _migrations table.
		TableEngine string `yaml:"table_engine"`

		Timeout time.Duration `yaml:"timeout"`
		TLS     TLS           `yaml:"tls,omitempty"`

		// Settings are sent with every statement unless a migration file
		// sets the same name.
		Settings map[string]string `yaml:"settings,omitempty"`

		// AbortDivergent fails the run when an applied migration was edited.
		AbortDivergent bool `yaml:"abort_divergent"`

		// CreateDatabase creates Database before connecting to it.
		CreateDatabase bool `yaml:"create_database"`
	}
)

// Default returns the configuration used when no file or flag says otherwise.
func Default() *Config {
	return &Config{
		Dir:            consts.DefaultMigrationsDir,
		Host:           consts.DefaultHost,
		TableEngine:    consts.DefaultTableEngine,
		Timeout:        consts.DefaultTimeout,
		AbortDivergent: true,
		CreateDatabase: true,
	}
}

// LoadConfig parses YAML configuration from r on top of Default. Unknown keys
// are rejected and an empty document yields the defaults.
//
// Example:
//
//	cfg, err := config.LoadConfig(strings.NewReader("dir: db/migrations\nabort_divergent: false\n"))
//	if err != nil {
//		panic(err)
//	}
//
//	fmt.Println(cfg.Dir, cfg.AbortDivergent) // db/migrations false
func LoadConfig(r io.Reader) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	return cfg, nil
}

// LoadConfigFile loads the configuration from the specified file path.
// This is a convenience function that opens the file and calls LoadConfig.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadConfig(f)
}

// Load reads the configuration in path. When optional is true and the file
// does not exist the defaults are returned instead.
func Load(path string, optional bool) (*Config, error) {
	if _, err := os.Stat(path); optional && os.IsNotExist(err) {
		return Default(), nil
	}

	return LoadConfigFile(path)
}

// Validate checks the configuration without touching the network. It fails
// with failure.Config on unsafe engine clauses, invalid database names,
// incomplete TLS material and connection parameters that contradict the DSN.
// TLS files that cannot be read fail with failure.Connection.
func (c *Config) Validate() error {
	if c.Dir == "" {
		return failure.New(failure.Config, "the migrations directory is required")
	}

	if c.Timeout < 0 {
		return failure.New(failure.Config, "timeout must not be negative, got %s", c.Timeout)
	}

	if c.TableEngine != "" && !tableEngineRegex.MatchString(c.TableEngine) {
		return failure.New(failure.Config, "unsupported table engine %q", c.TableEngine)
	}

	if c.DBEngine != "" && !databaseEngineRegex.MatchString(c.DBEngine) {
		return failure.New(failure.Config, "unsupported database engine %q", c.DBEngine)
	}

	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		return failure.New(failure.Config, "tls cert_file and key_file must be set together")
	}

	db, err := c.ClientOptions().DatabaseName()
	if err != nil {
		return err
	}

	if db != "" && !databaseNameRegex.MatchString(db) {
		return failure.New(failure.Config, "invalid database name %q", db)
	}

	return nil
}

// ClientOptions converts the configuration into options for clickhouse.NewClient.
func (c *Config) ClientOptions() clickhouse.ClientOptions {
	return clickhouse.ClientOptions{
		Host:     c.Host,
		User:     c.User,
		Password: c.Password,
		Database: c.Database,
		Timeout:  c.Timeout,
		TLSSettings: clickhouse.TLSSettings{
			CAFile:   c.TLS.CAFile,
			CertFile: c.TLS.CertFile,
			KeyFile:  c.TLS.KeyFile,
		},
		Settings: c.Settings,
	}
}
