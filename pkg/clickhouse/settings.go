package clickhouse

import (
	"maps"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// MergeSettings combines connection level settings with the settings declared
// by a migration file. File settings win when both define the same name.
// Neither input is modified.
//
//	MergeSettings(
//		map[string]string{"max_threads": "8", "mutations_sync": "0"},
//		map[string]string{"mutations_sync": "2"},
//	)
//	// map[string]string{"max_threads": "8", "mutations_sync": "2"}
func MergeSettings(conn, file map[string]string) map[string]string {
	merged := make(map[string]string, len(conn)+len(file))
	maps.Copy(merged, conn)
	maps.Copy(merged, file)
	return merged
}

func toDriverSettings(settings map[string]string) clickhouse.Settings {
	out := make(clickhouse.Settings, len(settings))
	for k, v := range settings {
		out[k] = v
	}

	return out
}
