package utils

import "strings"

// SQLBuilder provides a fluent interface for building the ClickHouse DDL
// statements chmigrate issues on its own.
//
// Example usage:
//
//	sql := NewSQLBuilder().
//		Create("TABLE").
//		IfNotExists().
//		Name("_migrations").
//		Raw("(version UInt32)").
//		Engine("MergeTree").
//		Raw("ORDER BY tuple()").
//		String()
//	// Output: CREATE TABLE IF NOT EXISTS `_migrations` (version UInt32) ENGINE = MergeTree ORDER BY tuple()
type SQLBuilder struct {
	parts []string
}

// NewSQLBuilder creates a new SQLBuilder instance.
func NewSQLBuilder() *SQLBuilder {
	return &SQLBuilder{
		parts: make([]string, 0, 8),
	}
}

// Create adds a CREATE clause with the specified object type.
//
// Example:
//
//	builder.Create("DATABASE")  // CREATE DATABASE
//	builder.Create("TABLE")     // CREATE TABLE
func (b *SQLBuilder) Create(objectType string) *SQLBuilder {
	b.parts = append(b.parts, "CREATE", objectType)
	return b
}

// IfNotExists adds an IF NOT EXISTS clause.
func (b *SQLBuilder) IfNotExists() *SQLBuilder {
	b.parts = append(b.parts, "IF", "NOT", "EXISTS")
	return b
}

// Name adds a backticked identifier. Empty names are skipped.
func (b *SQLBuilder) Name(name string) *SQLBuilder {
	if name != "" {
		b.parts = append(b.parts, BacktickIdentifier(name))
	}
	return b
}

// Engine adds an ENGINE = clause when engine is not empty. The engine is
// written verbatim and must be validated by the caller.
func (b *SQLBuilder) Engine(engine string) *SQLBuilder {
	if engine != "" {
		b.parts = append(b.parts, "ENGINE", "=", engine)
	}
	return b
}

// Raw adds raw SQL. Empty strings are skipped.
func (b *SQLBuilder) Raw(sql string) *SQLBuilder {
	if sql != "" {
		b.parts = append(b.parts, sql)
	}
	return b
}

// String returns the statement without a trailing semicolon.
func (b *SQLBuilder) String() string {
	return strings.Join(b.parts, " ")
}
