package parser

import (
	"io"

	"github.com/pkg/errors"
)

// Script is a migration file broken into what gets sent to ClickHouse: the
// executable statements in file order and the session settings declared by
// its SET directives.
type Script struct {
	// Statements holds the cleaned statements without SET directives or a
	// trailing semicolon.
	Statements []string

	// Settings maps setting names to their literal values. Never nil.
	Settings map[string]string
}

// ParseScript splits sql into statements and moves every
// `SET <name> = <value>` directive into the returned settings map. A bare
// `SET <name>` is dropped without being executed or captured.
//
// Example:
//
//	script, err := parser.ParseScript(`
//		SET allow_experimental_object_type = 1;
//		CREATE TABLE logs (payload JSON) ENGINE = MergeTree ORDER BY tuple();
//	`)
//	// script.Settings   == map[string]string{"allow_experimental_object_type": "1"}
//	// script.Statements == []string{"CREATE TABLE logs (payload JSON) ENGINE = MergeTree ORDER BY tuple()"}
func ParseScript(sql string) (*Script, error) {
	stmts, err := Split(sql)
	if err != nil {
		return nil, err
	}

	script := &Script{
		Statements: make([]string, 0, len(stmts)),
		Settings:   make(map[string]string),
	}

	for _, stmt := range stmts {
		d, err := parseDirective(stmt)
		if err != nil {
			return nil, err
		}

		switch d.kind {
		case settingDirective:
			script.Settings[d.name] = d.value
		case bareDirective:
			continue
		default:
			script.Statements = append(script.Statements, stmt)
		}
	}

	return script, nil
}

// Parse reads a migration script from r and parses it with ParseScript.
func Parse(r io.Reader) (*Script, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read SQL")
	}

	return ParseScript(string(data))
}
