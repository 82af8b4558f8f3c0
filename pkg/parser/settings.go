package parser

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

var (
	// directiveLexer tokenizes a single, comment free statement. Quoting
	// rules match Split so a SET inside a literal is never seen as a keyword.
	directiveLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "String", Pattern: `'([^'\\]|\\[\s\S]|'')*'`},
		{Name: "QuotedIdent", Pattern: `"([^"\\]|\\[\s\S]|"")*"`},
		{Name: "BacktickIdent", Pattern: "`([^`\\\\]|\\\\[\\s\\S]|``)*`"},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
		{Name: "Number", Pattern: `\d+(\.\d*)?`},
		{Name: "Eq", Pattern: `=`},
		{Name: "Whitespace", Pattern: `\s+`},
		{Name: "Other", Pattern: `[\s\S]`},
	})

	tokString        = directiveLexer.Symbols()["String"]
	tokBacktickIdent = directiveLexer.Symbols()["BacktickIdent"]
	tokIdent         = directiveLexer.Symbols()["Ident"]
	tokEq            = directiveLexer.Symbols()["Eq"]
	tokWhitespace    = directiveLexer.Symbols()["Whitespace"]
)

type directiveKind int

const (
	// notDirective is an executable statement.
	notDirective directiveKind = iota

	// settingDirective is SET <name> = <value>.
	settingDirective

	// bareDirective is SET <name> without a value. It is dropped.
	bareDirective
)

type directive struct {
	kind  directiveKind
	name  string
	value string
}

// ExtractSettings returns the session settings declared in a migration
// script with `SET <name> = <value>` statements.
//
// Only the first '=' separates the name from the value, so `SET a = 'x=y'`
// yields a -> "x=y". Single quoted values are unquoted (with '' collapsed to
// a single quote), other values are returned verbatim. When a name is set
// more than once the last value wins. SET statements inside comments or
// string literals are ignored.
//
// Example:
//
//	settings, err := parser.ExtractSettings("SET a = 1;\nSET b = 'x=y';\nSELECT 1;")
//	// settings == map[string]string{"a": "1", "b": "x=y"}
func ExtractSettings(sql string) (map[string]string, error) {
	script, err := ParseScript(sql)
	if err != nil {
		return nil, err
	}

	return script.Settings, nil
}

// parseDirective classifies a single statement produced by Split.
func parseDirective(stmt string) (*directive, error) {
	lex, err := directiveLexer.LexString("", stmt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to tokenize statement")
	}

	all, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, errors.Wrap(err, "failed to tokenize statement")
	}

	tokens := make([]lexer.Token, 0, len(all))
	for _, tok := range all {
		if tok.EOF() || tok.Type == tokWhitespace {
			continue
		}
		tokens = append(tokens, tok)
	}

	if len(tokens) < 2 || tokens[0].Type != tokIdent || !strings.EqualFold(tokens[0].Value, "SET") {
		return &directive{kind: notDirective}, nil
	}

	name, ok := settingName(tokens[1])
	if !ok {
		return &directive{kind: notDirective}, nil
	}

	switch {
	case len(tokens) == 2:
		return &directive{kind: bareDirective, name: name}, nil
	case tokens[2].Type != tokEq:
		// SET ROLE admin, SET DEFAULT ROLE ... are real statements.
		return &directive{kind: notDirective}, nil
	case len(tokens) == 3:
		// SET name = with nothing after it carries no value.
		return &directive{kind: bareDirective, name: name}, nil
	}

	value := strings.TrimSpace(stmt[tokens[2].Pos.Offset+1:])
	if len(tokens) == 4 && tokens[3].Type == tokString {
		value = unquote(tokens[3].Value)
	}

	return &directive{kind: settingDirective, name: name, value: value}, nil
}

func settingName(tok lexer.Token) (string, bool) {
	switch tok.Type {
	case tokIdent:
		return tok.Value, true
	case tokBacktickIdent:
		return unquote(tok.Value), true
	default:
		return "", false
	}
}

// unquote strips the outer quote characters of a literal and resolves
// doubled quotes and backslash escaped quotes or backslashes.
func unquote(lit string) string {
	if len(lit) < 2 {
		return lit
	}

	quote := lit[0]
	body := lit[1 : len(lit)-1]

	var b strings.Builder
	b.Grow(len(body))

	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '\\' && i+1 < len(body) && (body[i+1] == quote || body[i+1] == '\\'):
			i++
			b.WriteByte(body[i])
		case c == quote && i+1 < len(body) && body[i+1] == quote:
			i++
			b.WriteByte(quote)
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}
