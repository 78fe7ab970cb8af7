package css

import (
	"fmt"
	"strings"
	"unicode"
)

// selector tokenizer

type selectorTokenType int

const (
	tokIdent      selectorTokenType = iota
	tokHash                         // #id
	tokDot                          // .
	tokColon                        // :
	tokStar                         // *
	tokGreater                      // >
	tokWhitespace                   // descendant combinator candidate
	tokFunction                     // nth-child(...), argument in Arg
	tokEOF
)

type selectorToken struct {
	Type  selectorTokenType
	Value string
	Arg   string
	Pos   int
}

type selectorTokenizer struct {
	input string
	pos   int
}

func newSelectorTokenizer(input string) *selectorTokenizer {
	return &selectorTokenizer{input: strings.TrimSpace(input)}
}

func (t *selectorTokenizer) next() (selectorToken, error) {
	start := t.pos
	if t.skipWhitespace() {
		// Whitespace next to '>' is not a combinator of its own.
		if t.peek() == '>' || t.pos >= len(t.input) {
			return t.next()
		}
		return selectorToken{Type: tokWhitespace, Pos: start}, nil
	}
	if t.pos >= len(t.input) {
		return selectorToken{Type: tokEOF, Pos: t.pos}, nil
	}

	ch := t.input[t.pos]
	switch ch {
	case '.':
		t.pos++
		return selectorToken{Type: tokDot, Value: ".", Pos: start}, nil
	case ':':
		t.pos++
		if t.peek() == ':' {
			t.pos++
		}
		return selectorToken{Type: tokColon, Value: ":", Pos: start}, nil
	case '*':
		t.pos++
		return selectorToken{Type: tokStar, Value: "*", Pos: start}, nil
	case '>':
		t.pos++
		t.skipWhitespace()
		return selectorToken{Type: tokGreater, Value: ">", Pos: start}, nil
	case '#':
		t.pos++
		name := t.readName()
		if name == "" {
			return selectorToken{}, t.errorf("expected id after '#'")
		}
		return selectorToken{Type: tokHash, Value: name, Pos: start}, nil
	}

	name := t.readName()
	if name == "" {
		return selectorToken{}, t.errorf("unexpected character %q", ch)
	}
	if t.peek() == '(' {
		end := strings.IndexByte(t.input[t.pos:], ')')
		if end < 0 {
			return selectorToken{}, t.errorf("unterminated %s(", name)
		}
		arg := t.input[t.pos+1 : t.pos+end]
		t.pos += end + 1
		return selectorToken{Type: tokFunction, Value: name, Arg: strings.TrimSpace(arg), Pos: start}, nil
	}
	return selectorToken{Type: tokIdent, Value: name, Pos: start}, nil
}

func (t *selectorTokenizer) readName() string {
	start := t.pos
	for t.pos < len(t.input) {
		r := rune(t.input[t.pos])
		if r == '-' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || r >= 0x80 {
			t.pos++
			continue
		}
		break
	}
	return t.input[start:t.pos]
}

// skipWhitespace skips blanks and comments and reports whether any were skipped.
func (t *selectorTokenizer) skipWhitespace() bool {
	start := t.pos
	for t.pos < len(t.input) {
		if unicode.IsSpace(rune(t.input[t.pos])) {
			t.pos++
		} else if t.pos+1 < len(t.input) && t.input[t.pos] == '/' && t.input[t.pos+1] == '*' {
			t.skipComment()
		} else {
			break
		}
	}
	return t.pos > start
}

// skipComment skips a /* ... */ comment. Assumes pos is at the '/'.
func (t *selectorTokenizer) skipComment() {
	t.pos += 2
	for t.pos+1 < len(t.input) {
		if t.input[t.pos] == '*' && t.input[t.pos+1] == '/' {
			t.pos += 2
			return
		}
		t.pos++
	}
	// Unterminated comment: skip to end
	t.pos = len(t.input)
}

func (t *selectorTokenizer) peek() byte {
	if t.pos >= len(t.input) {
		return 0
	}
	return t.input[t.pos]
}

func (t *selectorTokenizer) errorf(format string, args ...any) error {
	return fmt.Errorf("selector %q at offset %d: %s", t.input, t.pos, fmt.Sprintf(format, args...))
}
