package css

import (
	"fmt"
	"strings"

	dcss "github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

// RuleBlock is one selector path with its declarations. A rule with a
// selector list becomes one block per selector.
type RuleBlock struct {
	Path         CssPath
	Declarations []Declaration
}

// Stylesheet is an ordered sequence of rule blocks; source order is the
// index in Rules.
type Stylesheet struct {
	Rules []RuleBlock
}

// Append adds the rules of other after the rules of s.
func (s *Stylesheet) Append(other *Stylesheet) {
	if other == nil {
		return
	}
	s.Rules = append(s.Rules, other.Rules...)
}

// ParseError locates a rule or declaration that was dropped.
type ParseError struct {
	Line   int
	Column int
	Rule   string
	Err    error
}

func (e ParseError) Error() string {
	return fmt.Sprintf("css %d:%d: %q: %v", e.Line, e.Column, e.Rule, e.Err)
}

func (e ParseError) Unwrap() error { return e.Err }

// ParseStylesheet parses CSS text. Invalid rules and declarations are dropped
// and reported; the remaining rules are always returned.
func ParseStylesheet(text string) (*Stylesheet, []ParseError) {
	sheet := &Stylesheet{}
	var errs []ParseError

	loc := newLocator(text)
	for _, chunk := range splitRules(text) {
		parsed, err := parser.Parse(chunk.text)
		if err != nil {
			line, col := loc.position(chunk.offset)
			errs = append(errs, ParseError{Line: line, Column: col, Rule: strings.TrimSpace(chunk.text), Err: err})
			continue
		}
		for _, r := range parsed.Rules {
			line, col := loc.position(chunk.offset + strings.Index(chunk.text, r.Prelude))
			errs = append(errs, addRule(sheet, r, line, col)...)
		}
	}
	return sheet, errs
}

// MustParseStylesheet parses CSS text and panics on any error. Intended for
// built-in sheets and tests.
func MustParseStylesheet(text string) *Stylesheet {
	s, errs := ParseStylesheet(text)
	if len(errs) > 0 {
		panic(errs[0])
	}
	return s
}

func addRule(sheet *Stylesheet, r *dcss.Rule, line, col int) []ParseError {
	fail := func(err error) ParseError {
		return ParseError{Line: line, Column: col, Rule: r.Prelude, Err: err}
	}
	if r.Kind == dcss.AtRule {
		return []ParseError{fail(fmt.Errorf("unsupported at-rule %s", r.Name))}
	}
	paths, err := ParseSelectorList(r.Prelude)
	if err != nil {
		return []ParseError{fail(err)}
	}

	var errs []ParseError
	var decls []Declaration
	for _, d := range r.Declarations {
		expanded, err := ExpandDeclaration(d.Property, d.Value, d.Important)
		if err != nil {
			errs = append(errs, fail(err))
			continue
		}
		decls = append(decls, expanded...)
	}
	for _, p := range paths {
		sheet.Rules = append(sheet.Rules, RuleBlock{Path: p, Declarations: decls})
	}
	return errs
}

// ParseInlineStyle parses the body of a style attribute, e.g.
// "width: 10px; color: red".
func ParseInlineStyle(text string) ([]Declaration, []error) {
	var out []Declaration
	var errs []error
	decls, err := parser.ParseDeclarations(text)
	if err != nil {
		// Fall back to a plain split so one bad declaration does not drop all.
		for _, part := range strings.Split(text, ";") {
			name, value, ok := strings.Cut(part, ":")
			if !ok {
				if strings.TrimSpace(part) != "" {
					errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidValue, part))
				}
				continue
			}
			d, err := ExpandDeclaration(name, value, false)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			out = append(out, d...)
		}
		return out, errs
	}
	for _, d := range decls {
		expanded, err := ExpandDeclaration(d.Property, d.Value, d.Important)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, expanded...)
	}
	return out, errs
}

type ruleChunk struct {
	text   string
	offset int
}

// splitRules splits CSS into top-level rules so that a syntax error in one
// rule cannot take the rest of the sheet down with it.
func splitRules(css string) []ruleChunk {
	var chunks []ruleChunk
	depth := 0
	start := 0
	inComment := false
	for i := 0; i < len(css); i++ {
		if inComment {
			if css[i] == '*' && i+1 < len(css) && css[i+1] == '/' {
				inComment = false
				i++
			}
			continue
		}
		switch css[i] {
		case '/':
			if i+1 < len(css) && css[i+1] == '*' {
				inComment = true
				i++
			}
		case '{':
			depth++
		case '}':
			depth--
			if depth <= 0 {
				if s := css[start : i+1]; strings.TrimSpace(s) != "" {
					chunks = append(chunks, ruleChunk{text: s, offset: start})
				}
				start = i + 1
				depth = 0
			}
		}
	}
	if rest := css[start:]; strings.TrimSpace(stripComments(rest)) != "" {
		chunks = append(chunks, ruleChunk{text: rest, offset: start})
	}
	return chunks
}

func stripComments(s string) string {
	for {
		i := strings.Index(s, "/*")
		if i < 0 {
			return s
		}
		j := strings.Index(s[i+2:], "*/")
		if j < 0 {
			return s[:i]
		}
		s = s[:i] + s[i+2+j+2:]
	}
}

type locator struct {
	lineStarts []int
}

func newLocator(text string) locator {
	l := locator{lineStarts: []int{0}}
	for i, c := range text {
		if c == '\n' {
			l.lineStarts = append(l.lineStarts, i+1)
		}
	}
	return l
}

// position converts a byte offset to a 1-based line and column.
func (l locator) position(offset int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	line := 0
	for line+1 < len(l.lineStarts) && l.lineStarts[line+1] <= offset {
		line++
	}
	col := offset - l.lineStarts[line]
	return line + 1, col + 1
}
