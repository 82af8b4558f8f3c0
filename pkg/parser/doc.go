// Package parser turns the text of a migration file into the statements and
// session settings that are sent to ClickHouse.
//
// Split removes comments and breaks a script on unquoted semicolons. Quoted
// strings and identifiers ('...', "..." and `...`) are copied unchanged, so
// comment markers and semicolons inside them do not count:
//
//	stmts, err := parser.Split(`
//		-- create the table
//		CREATE TABLE events (id UInt64) ENGINE = MergeTree ORDER BY id;
//		INSERT INTO events VALUES (1); /* trailing */
//	`)
//	// []string{
//	//	"CREATE TABLE events (id UInt64) ENGINE = MergeTree ORDER BY id",
//	//	"INSERT INTO events VALUES (1)",
//	// }
//
// ParseScript additionally recognizes SET directives. The directive line is
// tokenized with the participle lexer and the setting is returned in
// Script.Settings instead of being executed:
//
//	script, err := parser.ParseScript("SET max_threads = 4;\nOPTIMIZE TABLE events FINAL;")
//	// script.Settings   == map[string]string{"max_threads": "4"}
//	// script.Statements == []string{"OPTIMIZE TABLE events FINAL"}
//
// The statements are never validated. ClickHouse reports syntax errors when
// they run.
package parser
