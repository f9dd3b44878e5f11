// translate.go
package xbind

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Scheme classifies the placeholder notation a statement was written in.
type Scheme int

const (
	// SchemePositional: only native "?" markers (or none at all).
	SchemePositional Scheme = iota
	// SchemeNumeric: every identifier is all digits, e.g. "?1" or ":2".
	SchemeNumeric
	// SchemeNamed: ":name" or "@name" identifiers (mixed digit/alpha names included).
	SchemeNamed
)

func (s Scheme) String() string {
	switch s {
	case SchemePositional:
		return "positional"
	case SchemeNumeric:
		return "numeric"
	case SchemeNamed:
		return "named"
	default:
		return "scheme(" + strconv.Itoa(int(s)) + ")"
	}
}

// Placeholder selects the positional parameter style for a target database.
//
// Common choices:
//   - PlaceholderQuestion   → "?"           (MySQL, SQLite, DuckDB, ClickHouse)
//   - PlaceholderDollar     → "$1, $2, …"  (PostgreSQL)
//   - PlaceholderAtP        → "@p1, @p2…"  (SQL Server)
//   - PlaceholderColonNum   → ":1, :2, …"  (Oracle)
type Placeholder int

const (
	PlaceholderQuestion Placeholder = iota
	PlaceholderDollar
	PlaceholderAtP
	PlaceholderColonNum
)

// PlaceholderFor picks a Placeholder based on a driver name string.
//
// Examples:
//
//	ph := xbind.PlaceholderFor("pgx")       // => PlaceholderDollar
//	ph := xbind.PlaceholderFor("sqlserver") // => PlaceholderAtP
//	ph := xbind.PlaceholderFor("sqlite")    // => PlaceholderQuestion
func PlaceholderFor(driverName string) Placeholder {
	switch strings.ToLower(driverName) {
	case "pgx", "pgx/v5", "postgres", "postgresql", "lib/pq", "pg":
		return PlaceholderDollar
	case "sqlserver", "mssql":
		return PlaceholderAtP
	case "godror", "oracle", "goracle":
		return PlaceholderColonNum
	default:
		return PlaceholderQuestion
	}
}

func (ph Placeholder) appendMarker(out []byte, arg int) []byte {
	switch ph {
	case PlaceholderDollar:
		out = append(out, '$')
	case PlaceholderAtP:
		out = append(out, '@', 'p')
	case PlaceholderColonNum:
		out = append(out, ':')
	default:
		return append(out, '?')
	}
	return strconv.AppendInt(out, int64(arg), 10)
}

// Translation describes one rewritten statement.
type Translation struct {
	// SQL is the statement with every honored placeholder replaced by "?".
	SQL string
	// Names lists one identifier per rewritten occurrence, in source order.
	// Named-at identifiers keep their "@"; colon and numeric ones carry no sigil.
	Names []string
	// Scheme is the classification of Names.
	Scheme Scheme
	// Positions holds the 1-based marker ordinal of each entry in Names.
	// It differs from 1..len(Names) only when native "?" markers are mixed in.
	Positions []int
	// Markers is the number of "?" markers in SQL, native ones included.
	Markers int
}

// Index builds the ParamIndex for t, or nil when t has no identifiers.
func (t Translation) Index() *ParamIndex { return newParamIndex(t.Names, t.Positions) }

// Mixed reports whether native "?" markers sit alongside rewritten ones.
func (t Translation) Mixed() bool { return len(t.Names) > 0 && t.Markers > len(t.Names) }

// For returns SQL with its markers in the style ph expects.
func (t Translation) For(ph Placeholder) string { return rewritePlaceholders(t.SQL, ph) }

// Translate rewrites query to all-positional form and returns the rewritten
// text with the identifiers it replaced, in order.
//
// Exactly one notation is honored per statement, by priority:
//
//  1. ":name"  (identifiers without the colon)
//  2. "@name"  (identifiers keep the "@", so "@id" and ":id" never collide)
//  3. "?N"     (identifiers are the digits)
//  4. none: the text is returned unchanged.
//
// Tokens of a lower-priority notation stay as literal text. Quoted strings,
// quoted identifiers, comments, $tag$ blocks, "::" casts and "@@" variables are
// never treated as placeholders.
func Translate(query string) (string, []string) {
	t := Analyze(query)
	return t.SQL, t.Names
}

// Analyze is Translate with the scheme and marker count included.
func Analyze(query string) Translation {
	toks := scanPlaceholders(query)

	kind, ok := pickNotation(toks)
	if !ok {
		return Translation{SQL: query, Scheme: SchemePositional, Markers: countBare(toks)}
	}

	var b strings.Builder
	b.Grow(len(query))
	names := make([]string, 0, len(toks))
	positions := make([]int, 0, len(toks))
	markers, last := 0, 0

	for _, t := range toks {
		switch t.kind {
		case tokQuestion:
			markers++
		case kind:
			b.WriteString(query[last:t.start])
			b.WriteByte('?')
			names = append(names, t.name)
			markers++
			positions = append(positions, markers)
			last = t.end
		}
	}
	b.WriteString(query[last:])

	return Translation{
		SQL:       b.String(),
		Names:     names,
		Scheme:    classify(names),
		Positions: positions,
		Markers:   markers,
	}
}

func pickNotation(toks []token) (tokenKind, bool) {
	var seen [tokAt + 1]bool
	for _, t := range toks {
		seen[t.kind] = true
	}
	for _, k := range []tokenKind{tokColon, tokAt, tokNumeric} {
		if seen[k] {
			return k, true
		}
	}
	return 0, false
}

func classify(names []string) Scheme {
	if len(names) == 0 {
		return SchemePositional
	}
	for _, n := range names {
		if !isDigits(n) {
			return SchemeNamed
		}
	}
	return SchemeNumeric
}

func countBare(toks []token) int {
	n := 0
	for _, t := range toks {
		if t.kind == tokQuestion {
			n++
		}
	}
	return n
}

// rewritePlaceholders renumbers bare "?" markers for the target dialect.
func rewritePlaceholders(query string, ph Placeholder) string {
	if ph == PlaceholderQuestion {
		return query
	}
	out := make([]byte, 0, len(query)+16)
	last, arg := 0, 1

	for _, t := range scanPlaceholders(query) {
		if t.kind != tokQuestion {
			continue
		}
		out = append(out, query[last:t.start]...)
		out = ph.appendMarker(out, arg)
		arg++
		last = t.end
	}
	out = append(out, query[last:]...)
	return string(out)
}

type tokenKind uint8

const (
	tokQuestion tokenKind = iota // ?
	tokNumeric                   // ?N
	tokColon                     // :name
	tokAt                        // @name
)

type token struct {
	kind  tokenKind
	name  string
	start int
	end   int
}

// scanPlaceholders finds every placeholder-looking token outside quotes and
// comments. Unterminated quotes or comments swallow the rest of the text.
func scanPlaceholders(query string) []token {
	var out []token
	i := 0
	for i < len(query) {
		r, w := utf8.DecodeRuneInString(query[i:])
		switch r {
		case '\'', '"', '`':
			i = skipQuoted(query, i+w, byte(r))
			continue
		case '-':
			if hasPrefix(query[i:], "--") {
				i = skipLineComment(query, i+2)
				continue
			}
		case '/':
			if hasPrefix(query[i:], "/*") {
				i = skipBlockComment(query, i+2)
				continue
			}
		case '$':
			if j, ok := skipDollarQuoted(query, i); ok {
				i = j
				continue
			}
		case ':':
			if hasPrefix(query[i:], "::") {
				i += 2 // skip PG cast
				continue
			}
			if name, end := parseIdent(query, i+1); name != "" {
				out = append(out, token{kind: tokColon, name: name, start: i, end: end})
				i = end
				continue
			}
		case '@':
			if hasPrefix(query[i:], "@@") {
				_, end := parseIdent(query, i+2) // MySQL system variable
				i = end
				continue
			}
			if name, end := parseIdent(query, i+1); name != "" {
				out = append(out, token{kind: tokAt, name: "@" + name, start: i, end: end})
				i = end
				continue
			}
		case '?':
			end := i + 1
			for end < len(query) && query[end] >= '0' && query[end] <= '9' {
				end++
			}
			if end > i+1 {
				out = append(out, token{kind: tokNumeric, name: query[i+1 : end], start: i, end: end})
			} else {
				out = append(out, token{kind: tokQuestion, start: i, end: end})
			}
			i = end
			continue
		}
		i += w
	}
	return out
}

// skipQuoted returns the index just past the closing quote q; a doubled
// quote is an escaped one.
func skipQuoted(s string, i int, q byte) int {
	for i < len(s) {
		c := s[i]
		i++
		if c == q {
			if i < len(s) && s[i] == q {
				i++
				continue
			}
			return i
		}
	}
	return len(s)
}

func skipLineComment(s string, i int) int {
	for i < len(s) {
		if s[i] == '\n' {
			return i + 1
		}
		i++
	}
	return i
}

func skipBlockComment(s string, i int) int {
	for i < len(s)-1 {
		if s[i] == '*' && s[i+1] == '/' {
			return i + 2
		}
		i++
	}
	return len(s)
}

// skipDollarQuoted handles $$...$$ and $tag$...$tag$ (PostgreSQL).
func skipDollarQuoted(s string, i int) (int, bool) {
	j := i + 1
	for j < len(s) && s[j] != '$' && isTagChar(rune(s[j])) {
		j++
	}
	if j >= len(s) || s[j] != '$' {
		return 0, false
	}
	tag := s[i : j+1]
	k := j + 1
	idx := strings.Index(s[k:], tag)
	if idx < 0 {
		return len(s), true
	}
	return k + idx + len(tag), true
}

func isTagChar(r rune) bool      { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) }
func hasPrefix(s, p string) bool { return len(s) >= len(p) && s[:len(p)] == p }

func isWordRune(r rune) bool { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) }

func parseIdent(s string, i int) (string, int) {
	start := i
	for i < len(s) {
		r, w := utf8.DecodeRuneInString(s[i:])
		if !isWordRune(r) {
			break
		}
		i += w
	}
	if i == start {
		return "", i
	}
	return s[start:i], i
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
