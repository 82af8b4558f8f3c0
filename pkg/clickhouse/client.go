package clickhouse

import (
	"context"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/pkg/errors"
	"github.com/pseudomuto/chmigrate/pkg/failure"
	"github.com/pseudomuto/chmigrate/pkg/utils"
)

// Client represents a ClickHouse connection over the HTTP interface.
type Client struct {
	conn     driver.Conn
	host     string
	database string
	settings map[string]string
	secrets  []string
}

// NewClient opens a connection and verifies it with a ping.
//
// Example:
//
//	client, err := clickhouse.NewClient(ctx, clickhouse.ClientOptions{
//		Host:     "https://ch.internal:8443",
//		User:     "migrator",
//		Password: os.Getenv("CH_MIGRATIONS_PASSWORD"),
//		Database: "analytics",
//	})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// Invalid options return a failure.Config error. Failing to reach or
// authenticate against the server returns a failure.Connection error with any
// credentials removed from the message.
func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	chOpts, settings, err := opts.DriverOptions()
	if err != nil {
		return nil, err
	}

	secrets := append(opts.Secrets(), chOpts.Auth.Password)
	host := RedactSecrets(Redact(opts.Host), secrets...)

	conn, err := clickhouse.Open(chOpts)
	if err != nil {
		return nil, failure.Wrap(redactError(err, secrets...), failure.Connection, "failed to connect to %s", host)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, failure.Wrap(redactError(err, secrets...), failure.Connection, "failed to connect to %s", host)
	}

	return &Client{
		conn:     conn,
		host:     host,
		database: chOpts.Auth.Database,
		settings: settings,
		secrets:  secrets,
	}, nil
}

// Close closes the ClickHouse connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// Database returns the database selected by the connection. It is empty for
// admin connections.
func (c *Client) Database() string {
	return c.database
}

// Host returns the configured host with any password redacted.
func (c *Client) Host() string {
	return c.host
}

// Query runs a read query with the connection level settings.
func (c *Client) Query(ctx context.Context, query string, args ...any) (driver.Rows, error) {
	rows, err := c.conn.Query(c.withSettings(ctx, nil), query, args...)
	return rows, redactError(err, c.secrets...)
}

// Exec runs a statement with the connection level settings.
func (c *Client) Exec(ctx context.Context, query string, args ...any) error {
	return redactError(c.conn.Exec(c.withSettings(ctx, nil), query, args...), c.secrets...)
}

// ExecuteMigration runs a single migration statement. The settings declared
// by the migration file are merged over the connection level settings.
func (c *Client) ExecuteMigration(ctx context.Context, stmt string, settings map[string]string) error {
	return redactError(c.conn.Exec(c.withSettings(ctx, settings), stmt), c.secrets...)
}

// CreateDatabase creates the database if it does not exist. An empty engine
// keeps the server default.
func (c *Client) CreateDatabase(ctx context.Context, name, engine string) error {
	stmt := utils.NewSQLBuilder().
		Create("DATABASE").
		IfNotExists().
		Name(name).
		Engine(engine).
		String()

	if err := c.Exec(ctx, stmt); err != nil {
		return errors.Wrapf(err, "failed to create database %s", name)
	}

	return nil
}

// DatabaseExists reports whether a database with the given name exists.
func (c *Client) DatabaseExists(ctx context.Context, name string) (bool, error) {
	rows, err := c.Query(ctx, "SELECT count() FROM system.databases WHERE name = ?", name)
	if err != nil {
		return false, errors.Wrapf(err, "failed to look up database %s", name)
	}
	defer func() { _ = rows.Close() }()

	var count uint64
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return false, errors.Wrapf(err, "failed to look up database %s", name)
		}
	}

	return count > 0, errors.Wrapf(rows.Err(), "failed to look up database %s", name)
}

func (c *Client) withSettings(ctx context.Context, file map[string]string) context.Context {
	merged := MergeSettings(c.settings, file)
	if len(merged) == 0 {
		return ctx
	}

	return clickhouse.Context(ctx, clickhouse.WithSettings(toDriverSettings(merged)))
}
