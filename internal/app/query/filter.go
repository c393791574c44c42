// Package query implements the list filter language and pagination shared by
// every collection endpoint.
//
// A filter is a boolean expression of comparisons:
//
//	name~'java' and (salary>:1000 or level:'SENIOR') and not active:false
//
// Operators: ":" equal, "!" not equal, "~" contains (case-insensitive),
// "!~" does not contain, ">" ">:" "<" "<:" ordering. Values are single quoted
// strings, numbers, true, false or null.
package query

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ErrInvalid is wrapped by every filter, sort and page error so callers can
// report them as client errors.
var ErrInvalid = errors.New("invalid query")

type expr struct {
	Or []*andTerm `parser:"@@ ( 'or' @@ )*"`
}

type andTerm struct {
	And []*factor `parser:"@@ ( 'and' @@ )*"`
}

type factor struct {
	Not *factor     `parser:"  'not' @@"`
	Sub *expr       `parser:"| '(' @@ ')'"`
	Cmp *comparison `parser:"| @@"`
}

type comparison struct {
	Field string `parser:"@Ident"`
	Op    string `parser:"@Op"`
	Value value  `parser:"@@"`
}

type value struct {
	String *string  `parser:"  @String"`
	Number *float64 `parser:"| @Number"`
	Bool   *string  `parser:"| @('true' | 'false')"`
	Null   bool     `parser:"| @'null'"`
}

var filterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "String", Pattern: `'(?:[^'\\]|\\.)*'`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
	{Name: "Op", Pattern: `>:|<:|!~|[:!~<>]`},
	{Name: "Punct", Pattern: `[()]`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_.]*`},
})

var parser = participle.MustBuild[expr](
	participle.Lexer(filterLexer),
	participle.Elide("Whitespace"),
	participle.CaseInsensitive("Ident"),
	participle.Map(unquote, "String"),
	participle.UseLookahead(2),
)

func unquote(tok lexer.Token) (lexer.Token, error) {
	inner := tok.Value[1 : len(tok.Value)-1]
	tok.Value = strings.NewReplacer(`\'`, `'`, `\\`, `\`).Replace(inner)
	return tok, nil
}

// Filter is a parsed filter expression. A nil *Filter matches everything.
type Filter struct {
	root *expr
	raw  string
}

// Parse parses s. An empty or blank s yields a nil filter.
func Parse(s string) (*Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	root, err := parser.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("%w: filter: %v", ErrInvalid, err)
	}
	return &Filter{root: root, raw: s}, nil
}

// MustParse is Parse for constant filters; it panics on error.
func MustParse(s string) *Filter {
	f, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.raw
}

// Fields returns every field name referenced by f, lower-cased, in order of
// first appearance.
func (f *Filter) Fields() []string {
	if f == nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	f.root.walk(func(c *comparison) {
		name := strings.ToLower(c.Field)
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	})
	return out
}

func (e *expr) walk(fn func(*comparison)) {
	for _, t := range e.Or {
		for _, fac := range t.And {
			fac.walk(fn)
		}
	}
}

func (f *factor) walk(fn func(*comparison)) {
	switch {
	case f.Not != nil:
		f.Not.walk(fn)
	case f.Sub != nil:
		f.Sub.walk(fn)
	case f.Cmp != nil:
		fn(f.Cmp)
	}
}

// literal returns the Go value of v: string, float64, bool or nil.
func (v value) literal() interface{} {
	switch {
	case v.String != nil:
		return *v.String
	case v.Number != nil:
		return *v.Number
	case v.Bool != nil:
		return strings.EqualFold(*v.Bool, "true")
	default:
		return nil
	}
}

// SQL compiles f to a parameterised WHERE fragment. columns maps the
// lower-cased filter field names to SQL column expressions; any other field
// is rejected.
func (f *Filter) SQL(columns map[string]string) (string, []interface{}, error) {
	if f == nil {
		return "", nil, nil
	}
	var args []interface{}
	clause, err := f.root.sql(columns, &args)
	if err != nil {
		return "", nil, err
	}
	if len(f.root.Or) > 1 {
		clause = "(" + clause + ")"
	}
	return clause, args, nil
}

func (e *expr) sql(columns map[string]string, args *[]interface{}) (string, error) {
	parts := make([]string, 0, len(e.Or))
	for _, t := range e.Or {
		ands := make([]string, 0, len(t.And))
		for _, fac := range t.And {
			s, err := fac.sql(columns, args)
			if err != nil {
				return "", err
			}
			ands = append(ands, s)
		}
		parts = append(parts, strings.Join(ands, " AND "))
	}
	return strings.Join(parts, " OR "), nil
}

func (f *factor) sql(columns map[string]string, args *[]interface{}) (string, error) {
	switch {
	case f.Not != nil:
		s, err := f.Not.sql(columns, args)
		if err != nil {
			return "", err
		}
		if f.Not.Sub != nil {
			return "NOT " + s, nil
		}
		return "NOT (" + s + ")", nil
	case f.Sub != nil:
		s, err := f.Sub.sql(columns, args)
		if err != nil {
			return "", err
		}
		return "(" + s + ")", nil
	default:
		return f.Cmp.sql(columns, args)
	}
}

func (c *comparison) sql(columns map[string]string, args *[]interface{}) (string, error) {
	col, ok := columns[strings.ToLower(c.Field)]
	if !ok {
		return "", fmt.Errorf("%w: unknown filter field %q", ErrInvalid, c.Field)
	}
	lit := c.Value.literal()

	if lit == nil {
		switch c.Op {
		case ":":
			return col + " IS NULL", nil
		case "!":
			return col + " IS NOT NULL", nil
		default:
			return "", fmt.Errorf("%w: operator %q cannot compare with null", ErrInvalid, c.Op)
		}
	}

	switch c.Op {
	case ":":
		*args = append(*args, lit)
		return col + " = ?", nil
	case "!":
		*args = append(*args, lit)
		return col + " <> ?", nil
	case "~", "!~":
		s, ok := lit.(string)
		if !ok {
			s = fmt.Sprint(lit)
		}
		*args = append(*args, "%"+escapeLike(strings.ToLower(s))+"%")
		if c.Op == "!~" {
			return "LOWER(" + col + ") NOT LIKE ?", nil
		}
		return "LOWER(" + col + ") LIKE ?", nil
	case ">", ">:", "<", "<:":
		if _, isBool := lit.(bool); isBool {
			return "", fmt.Errorf("%w: operator %q cannot compare booleans", ErrInvalid, c.Op)
		}
		*args = append(*args, lit)
		return col + " " + sqlOrdering[c.Op] + " ?", nil
	}
	return "", fmt.Errorf("unsupported operator %q", c.Op)
}

var sqlOrdering = map[string]string{">": ">", ">:": ">=", "<": "<", "<:": "<="}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Getter resolves a lower-cased filter field on a record. ok is false for
// unknown fields.
type Getter func(field string) (value interface{}, ok bool)

// Match evaluates f against a record. A nil filter matches.
func (f *Filter) Match(get Getter) (bool, error) {
	if f == nil {
		return true, nil
	}
	return f.root.match(get)
}

func (e *expr) match(get Getter) (bool, error) {
	for _, t := range e.Or {
		ok := true
		for _, fac := range t.And {
			m, err := fac.match(get)
			if err != nil {
				return false, err
			}
			if !m {
				ok = false
				break
			}
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (f *factor) match(get Getter) (bool, error) {
	switch {
	case f.Not != nil:
		m, err := f.Not.match(get)
		return !m, err
	case f.Sub != nil:
		return f.Sub.match(get)
	default:
		return f.Cmp.match(get)
	}
}

func (c *comparison) match(get Getter) (bool, error) {
	actual, ok := get(strings.ToLower(c.Field))
	if !ok {
		return false, fmt.Errorf("%w: unknown filter field %q", ErrInvalid, c.Field)
	}
	actual = normalize(actual)
	lit := c.Value.literal()

	if lit == nil || actual == nil {
		switch c.Op {
		case ":":
			return lit == nil && actual == nil, nil
		case "!":
			return (lit == nil) != (actual == nil), nil
		default:
			return false, nil
		}
	}

	switch c.Op {
	case "~", "!~":
		contains := strings.Contains(strings.ToLower(fmt.Sprint(actual)), strings.ToLower(fmt.Sprint(lit)))
		return contains == (c.Op == "~"), nil
	}

	cmp, comparable := compare(actual, lit)
	if !comparable {
		return c.Op == "!", nil
	}
	switch c.Op {
	case ":":
		return cmp == 0, nil
	case "!":
		return cmp != 0, nil
	case ">":
		return cmp > 0, nil
	case ">:":
		return cmp >= 0, nil
	case "<":
		return cmp < 0, nil
	case "<:":
		return cmp <= 0, nil
	}
	return false, fmt.Errorf("unsupported operator %q", c.Op)
}

func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		return t
	case *time.Time:
		if t == nil {
			return nil
		}
		return *t
	case *int64:
		if t == nil {
			return nil
		}
		return float64(*t)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return fmt.Sprint(v)
}

// compare orders actual against a literal. Strings compare
// case-insensitively; times accept RFC 3339 or YYYY-MM-DD literals.
func compare(actual, lit interface{}) (int, bool) {
	switch a := actual.(type) {
	case float64:
		b, ok := lit.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case a < b:
			return -1, true
		case a > b:
			return 1, true
		}
		return 0, true
	case bool:
		b, ok := lit.(bool)
		if !ok {
			return 0, false
		}
		if a == b {
			return 0, true
		}
		return 1, true
	case time.Time:
		if b, ok := lit.(time.Time); ok {
			return a.Compare(b), true
		}
		s, ok := lit.(string)
		if !ok {
			return 0, false
		}
		b, err := parseTime(s)
		if err != nil {
			return 0, false
		}
		return a.Compare(b), true
	case string:
		return strings.Compare(strings.ToLower(a), strings.ToLower(fmt.Sprint(lit))), true
	}
	return 0, false
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
