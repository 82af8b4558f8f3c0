// Package docker runs disposable ClickHouse servers for integration tests.
//
// Servers are started through the testcontainers-go ClickHouse module and are
// used only through their HTTP interface, the one chmigrate connects to.
//
//	srv, err := docker.Start(ctx, docker.Options{Version: "25.7", Password: "s3cret"})
//	if err != nil {
//		t.Fatal(err)
//	}
//	t.Cleanup(func() { _ = srv.Stop(context.Background()) })
//
//	cfg := config.Default()
//	cfg.Host, err = srv.DSN(ctx)
package docker
