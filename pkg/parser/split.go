package parser

import (
	"strings"

	"github.com/pseudomuto/chmigrate/pkg/failure"
)

type scanState int

const (
	stateNormal scanState = iota
	stateSingleQuote
	stateDoubleQuote
	stateBacktick
	stateBlockComment
	stateLineComment
)

type splitter struct {
	src        string
	statements []string
	current    strings.Builder

	// pendingSpace records whitespace (or a removed comment) seen since the
	// last emitted byte. It is flushed as a single space before the next
	// token so runs collapse and statements never start or end with one.
	pendingSpace bool

	commentLine int
	line        int
}

// Split breaks a migration script into its executable statements.
//
// Comments are removed (`--`, `#` and `#!` line comments, `/* */` block
// comments), runs of whitespace outside quoted regions collapse to a single
// space, statements are separated by top-level semicolons and empty
// statements are dropped. Text inside '...', "..." and `...` is copied
// verbatim, so comment markers and semicolons inside literals are kept.
// Outside quotes a backslash only escapes a following comment or quote
// marker; it never escapes a semicolon or whitespace.
//
// Example:
//
//	stmts, err := parser.Split(`
//		-- create the table
//		CREATE TABLE events (id UInt64) ENGINE = MergeTree ORDER BY id;
//		INSERT INTO events VALUES (1); /* seed */
//	`)
//	// stmts == []string{
//	//	"CREATE TABLE events (id UInt64) ENGINE = MergeTree ORDER BY id",
//	//	"INSERT INTO events VALUES (1)",
//	// }
//
// A block comment that is never closed returns a failure.UnterminatedComment
// error. Unterminated line comments and quoted strings end at the end of the
// input without an error.
func Split(sql string) ([]string, error) {
	s := &splitter{src: sql, line: 1}
	return s.run()
}

func (s *splitter) run() ([]string, error) {
	state := stateNormal
	n := len(s.src)

	for i := 0; i < n; i++ {
		c := s.src[i]
		if c == '\n' {
			s.line++
		}

		switch state {
		case stateBlockComment:
			// Quotes have no meaning here; the first */ closes the comment.
			if c == '*' && i+1 < n && s.src[i+1] == '/' {
				i++
				state = stateNormal
				s.pendingSpace = true
			}

		case stateLineComment:
			if c == '\n' {
				state = stateNormal
				s.pendingSpace = true
			}

		case stateSingleQuote, stateDoubleQuote, stateBacktick:
			quote := quoteFor(state)
			s.current.WriteByte(c)

			switch {
			case c == '\\' && i+1 < n:
				i++
				s.current.WriteByte(s.src[i])
				if s.src[i] == '\n' {
					s.line++
				}
			case c == quote && i+1 < n && s.src[i+1] == quote:
				i++
				s.current.WriteByte(quote)
			case c == quote:
				state = stateNormal
			}

		default:
			state = s.scanNormal(&i)
		}
	}

	if state == stateBlockComment {
		return nil, failure.New(
			failure.UnterminatedComment,
			"block comment opened on line %d was never closed",
			s.commentLine,
		)
	}

	s.endStatement()
	return s.statements, nil
}

// scanNormal consumes the byte at *i outside of any quote or comment and
// returns the state to continue in.
func (s *splitter) scanNormal(i *int) scanState {
	c := s.src[*i]
	next := byte(0)
	if *i+1 < len(s.src) {
		next = s.src[*i+1]
	}

	switch {
	case c == '-' && next == '-':
		*i++
		return stateLineComment
	case c == '#':
		return stateLineComment
	case c == '/' && next == '*':
		*i++
		s.commentLine = s.line
		return stateBlockComment
	case c == ';':
		s.endStatement()
	case isSpace(c):
		s.pendingSpace = true
	case c == '\\' && isEscapable(next):
		// An escaped comment or quote marker outside quotes is kept as-is and
		// starts nothing. Any other backslash is an ordinary byte.
		s.write(c)
		*i++
		s.current.WriteByte(next)
	case c == '\'':
		s.write(c)
		return stateSingleQuote
	case c == '"':
		s.write(c)
		return stateDoubleQuote
	case c == '`':
		s.write(c)
		return stateBacktick
	default:
		s.write(c)
	}

	return stateNormal
}

func (s *splitter) write(c byte) {
	if s.pendingSpace && s.current.Len() > 0 {
		s.current.WriteByte(' ')
	}

	s.pendingSpace = false
	s.current.WriteByte(c)
}

func (s *splitter) endStatement() {
	if stmt := strings.TrimSpace(s.current.String()); stmt != "" {
		s.statements = append(s.statements, stmt)
	}

	s.current.Reset()
	s.pendingSpace = false
}

func quoteFor(state scanState) byte {
	switch state {
	case stateSingleQuote:
		return '\''
	case stateDoubleQuote:
		return '"'
	default:
		return '`'
	}
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}

	return false
}

func isEscapable(c byte) bool {
	switch c {
	case '-', '#', '/', '\'', '"', '`', '\\':
		return true
	}

	return false
}
