package clickhouse

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chmigrate/pkg/failure"
)

var versionRegex = regexp.MustCompile(`^\s*(\d+)\.(\d+)(?:\.(\d+))?`)

// ServerVersion is the version reported by the server.
type ServerVersion struct {
	Major int
	Minor int
	Patch int
	Raw   string
}

func (v ServerVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ServerVersion queries the version of the connected server.
func (c *Client) ServerVersion(ctx context.Context) (*ServerVersion, error) {
	rows, err := c.Query(ctx, "SELECT version()")
	if err != nil {
		return nil, failure.Wrap(err, failure.Connection, "failed to query server version")
	}
	defer rows.Close()

	var raw string
	if rows.Next() {
		if err := rows.Scan(&raw); err != nil {
			return nil, failure.Wrap(err, failure.Connection, "failed to query server version")
		}
	}

	if err := rows.Err(); err != nil {
		return nil, failure.Wrap(err, failure.Connection, "failed to query server version")
	}

	return parseVersion(raw)
}

// parseVersion accepts the forms the server reports, e.g. 24.8.4.13,
// 22.8.2.11-testing and 21.10.3.9 (official build).
func parseVersion(raw string) (*ServerVersion, error) {
	m := versionRegex.FindStringSubmatch(raw)
	if m == nil {
		return nil, errors.Errorf("invalid server version %q", raw)
	}

	v := &ServerVersion{Raw: raw}
	v.Major, _ = strconv.Atoi(m[1])
	v.Minor, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		v.Patch, _ = strconv.Atoi(m[3])
	}

	return v, nil
}
