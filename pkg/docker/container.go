package docker

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/pkg/errors"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/clickhouse"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultVersion is the server image tag used when Options.Version is empty.
	DefaultVersion = "25.7"

	// User is the account every server is started with.
	User = "default"

	httpPort     = nat.Port("8123/tcp")
	startTimeout = 5 * time.Minute
)

type (
	// Options configures a disposable server.
	Options struct {
		// Version is the clickhouse-server image tag. Alpine images are used.
		Version string

		// Password of the default user. Empty leaves the user without one.
		Password string
	}

	// Server is a running ClickHouse container reachable over HTTP.
	Server struct {
		password  string
		container *clickhouse.ClickHouseContainer
	}
)

// Start runs a ClickHouse container and blocks until /ping answers.
//
// Example:
//
//	srv, err := docker.Start(ctx, docker.Options{Password: "s3cret"})
//	if err != nil {
//		return err
//	}
//	defer func() { _ = srv.Stop(context.Background()) }()
func Start(ctx context.Context, opts Options) (*Server, error) {
	version := opts.Version
	if version == "" {
		version = DefaultVersion
	}

	ready := wait.NewHTTPStrategy("/ping").
		WithPort(httpPort).
		WithStatusCodeMatcher(func(status int) bool { return status == 200 })

	container, err := clickhouse.Run(ctx,
		fmt.Sprintf("clickhouse/clickhouse-server:%s-alpine", version),
		clickhouse.WithUsername(User),
		clickhouse.WithPassword(opts.Password),
		testcontainers.WithEnv(map[string]string{"CLICKHOUSE_DEFAULT_ACCESS_MANAGEMENT": "1"}),
		testcontainers.WithWaitStrategyAndDeadline(startTimeout, ready),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to start clickhouse-server:%s", version)
	}

	return &Server{password: opts.Password, container: container}, nil
}

// Stop terminates the container. Stopping a stopped server is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	if s.container == nil {
		return nil
	}

	container := s.container
	s.container = nil

	return errors.Wrap(container.Terminate(ctx), "failed to stop ClickHouse container")
}

// Running reports whether Stop has not been called yet.
func (s *Server) Running() bool {
	return s.container != nil
}

// Addr returns the host:port of the HTTP interface.
func (s *Server) Addr(ctx context.Context) (string, error) {
	if s.container == nil {
		return "", errors.New("server is not running")
	}

	host, err := s.container.Host(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve container host")
	}

	port, err := s.container.MappedPort(ctx, httpPort)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve mapped port for %s", httpPort)
	}

	return fmt.Sprintf("%s:%s", host, port.Port()), nil
}

// DSN returns an http:// DSN with the default user's credentials and no
// database selected.
func (s *Server) DSN(ctx context.Context) (string, error) {
	addr, err := s.Addr(ctx)
	if err != nil {
		return "", err
	}

	dsn := url.URL{Scheme: "http", Host: addr, User: url.User(User)}
	if s.password != "" {
		dsn.User = url.UserPassword(User, s.password)
	}

	return dsn.String(), nil
}
