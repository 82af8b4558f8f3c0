// Package clickhouse is the network client used by chmigrate. It talks to
// ClickHouse over the HTTP interface using clickhouse-go.
//
// The client resolves a host or DSN together with explicit credentials into
// driver options, optionally secures the connection with TLS or mTLS, and
// sends session settings with every query. Connection level settings come
// from DSN query parameters and configuration; settings declared by a
// migration file are merged over them for that file's statements only:
//
//	client, err := clickhouse.NewClient(ctx, clickhouse.ClientOptions{
//		Host:     "http://localhost:8123/analytics?max_threads=4",
//		User:     "default",
//		Settings: map[string]string{"mutations_sync": "0"},
//	})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	// Runs with max_threads=4 and mutations_sync=2.
//	err = client.ExecuteMigration(ctx, "ALTER TABLE events DELETE WHERE id = 1",
//		map[string]string{"mutations_sync": "2"})
//
// Errors that could carry credentials are scrubbed before they are returned,
// and Redact removes passwords from DSNs that are about to be logged.
package clickhouse
