package utils

import "strings"

// BacktickIdentifier adds backticks around an identifier, handling qualified
// names by quoting each part.
//
// Examples:
//   - "events" -> "`events`"
//   - "analytics.events" -> "`analytics`.`events`"
//   - "`events`" -> "`events`" (already backticked, not double-backticked)
//   - "we`ird" -> "`we``ird`"
//   - "" -> ""
func BacktickIdentifier(name string) string {
	if name == "" {
		return ""
	}

	if IsBackticked(name) {
		return name
	}

	parts := strings.Split(name, ".")
	for i, part := range parts {
		if IsBackticked(part) {
			continue
		}
		parts[i] = "`" + strings.ReplaceAll(part, "`", "``") + "`"
	}

	return strings.Join(parts, ".")
}

// IsBackticked checks if a string is a single identifier wrapped in backticks.
//
// Examples:
//   - "`events`" -> true
//   - "events" -> false
//   - "`db`.`events`" -> false (qualified name, not a single backticked identifier)
func IsBackticked(s string) bool {
	return len(s) >= 2 && s[0] == '`' && s[len(s)-1] == '`' && !strings.Contains(s[1:len(s)-1], "`")
}
