package css

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
)

type SelectorKind uint8

const (
	SelectorGlobal SelectorKind = iota
	SelectorType
	SelectorClass
	SelectorID
	SelectorPseudo
	SelectorChildren   // '>'
	SelectorDescendant // ' '
)

type PseudoKind uint8

const (
	PseudoHover PseudoKind = iota
	PseudoActive
	PseudoFocus
	PseudoFirst
	PseudoLast
	PseudoNthChild
	PseudoUnknown
)

// NthChild is the an+b pattern of :nth-child. A node at 1-based index i
// matches when i = Repeat*n + Offset for some n >= 0.
type NthChild struct {
	Repeat int
	Offset int
}

// Matches reports whether the 1-based sibling index matches the pattern.
func (n NthChild) Matches(index int) bool {
	d := index - n.Offset
	if n.Repeat == 0 {
		return d == 0
	}
	if d%n.Repeat != 0 {
		return false
	}
	return d/n.Repeat >= 0
}

// PathSelector is one element of a CssPath.
type PathSelector struct {
	Kind   SelectorKind
	Name   string
	Pseudo PseudoKind
	Nth    NthChild
}

func (s PathSelector) String() string {
	switch s.Kind {
	case SelectorGlobal:
		return "*"
	case SelectorType:
		return s.Name
	case SelectorClass:
		return "." + s.Name
	case SelectorID:
		return "#" + s.Name
	case SelectorChildren:
		return " > "
	case SelectorDescendant:
		return " "
	}
	switch s.Pseudo {
	case PseudoHover:
		return ":hover"
	case PseudoActive:
		return ":active"
	case PseudoFocus:
		return ":focus"
	case PseudoFirst:
		return ":first-child"
	case PseudoLast:
		return ":last-child"
	case PseudoNthChild:
		return fmt.Sprintf(":nth-child(%dn+%d)", s.Nth.Repeat, s.Nth.Offset)
	}
	return ":" + s.Name
}

// IsCombinator reports whether s separates content groups.
func (s PathSelector) IsCombinator() bool {
	return s.Kind == SelectorChildren || s.Kind == SelectorDescendant
}

// IsStatePseudo reports whether s depends on hover, active or focus state.
func (s PathSelector) IsStatePseudo() bool {
	return s.Kind == SelectorPseudo && (s.Pseudo == PseudoHover || s.Pseudo == PseudoActive || s.Pseudo == PseudoFocus)
}

// CssPath is a compound selector, stored left to right.
type CssPath struct {
	Selectors []PathSelector
}

func (p CssPath) String() string {
	var b strings.Builder
	for _, s := range p.Selectors {
		b.WriteString(s.String())
	}
	return b.String()
}

// HasStatePseudo reports whether any selector depends on UI state.
func (p CssPath) HasStatePseudo() bool {
	for _, s := range p.Selectors {
		if s.IsStatePseudo() {
			return true
		}
	}
	return false
}

// Specificity orders rules: inline declarations beat everything, then id
// count, then class+pseudo count, then type count.
type Specificity struct {
	Inline  bool
	IDs     int
	Classes int
	Types   int
}

// InlineSpecificity is the specificity of a node's inline declarations.
var InlineSpecificity = Specificity{Inline: true}

// Less reports whether s sorts before o.
func (s Specificity) Less(o Specificity) bool {
	if s.Inline != o.Inline {
		return !s.Inline
	}
	if s.IDs != o.IDs {
		return s.IDs < o.IDs
	}
	if s.Classes != o.Classes {
		return s.Classes < o.Classes
	}
	return s.Types < o.Types
}

// Specificity computes the specificity of the path.
func (p CssPath) Specificity() Specificity {
	var sp Specificity
	for _, s := range p.Selectors {
		switch s.Kind {
		case SelectorID:
			sp.IDs++
		case SelectorClass, SelectorPseudo:
			sp.Classes++
		case SelectorType:
			sp.Types++
		}
	}
	return sp
}

// GroupReason says how a content group relates to the group on its left.
type GroupReason uint8

const (
	// DirectChildren: the group to the left must match the immediate parent.
	DirectChildren GroupReason = iota
	// AnyChild: the group to the left must match some ancestor.
	AnyChild
)

// ContentGroup is a run of selectors that must all hold on the same node.
type ContentGroup struct {
	Selectors []PathSelector
	// Reason is the combinator to the left of this group. The leftmost group
	// reports DirectChildren even though nothing precedes it.
	Reason GroupReason
}

// Groups iterates the content groups of the path right to left.
func (p CssPath) Groups() iter.Seq[ContentGroup] {
	return func(yield func(ContentGroup) bool) {
		end := len(p.Selectors)
		for i := len(p.Selectors) - 1; i >= -1; i-- {
			if i >= 0 && !p.Selectors[i].IsCombinator() {
				continue
			}
			g := ContentGroup{Selectors: p.Selectors[i+1 : end], Reason: DirectChildren}
			if i >= 0 && p.Selectors[i].Kind == SelectorDescendant {
				g.Reason = AnyChild
			}
			if !yield(g) {
				return
			}
			end = i
		}
	}
}

// ParseSelector parses one compound selector such as "div.tab > .close:hover".
func ParseSelector(s string) (CssPath, error) {
	t := newSelectorTokenizer(s)
	var path CssPath
	push := func(sel PathSelector) {
		path.Selectors = append(path.Selectors, sel)
	}
	lastWasCombinator := true
	for {
		tok, err := t.next()
		if err != nil {
			return CssPath{}, err
		}
		switch tok.Type {
		case tokEOF:
			if len(path.Selectors) == 0 {
				return CssPath{}, fmt.Errorf("empty selector")
			}
			if lastWasCombinator {
				return CssPath{}, t.errorf("dangling combinator")
			}
			return path, nil
		case tokWhitespace, tokGreater:
			if lastWasCombinator {
				return CssPath{}, t.errorf("unexpected combinator")
			}
			if tok.Type == tokGreater {
				push(PathSelector{Kind: SelectorChildren})
			} else {
				push(PathSelector{Kind: SelectorDescendant})
			}
			lastWasCombinator = true
			continue
		case tokStar:
			push(PathSelector{Kind: SelectorGlobal})
		case tokIdent:
			push(PathSelector{Kind: SelectorType, Name: strings.ToLower(tok.Value)})
		case tokHash:
			push(PathSelector{Kind: SelectorID, Name: tok.Value})
		case tokDot:
			name, err := t.next()
			if err != nil {
				return CssPath{}, err
			}
			if name.Type != tokIdent {
				return CssPath{}, t.errorf("expected class name")
			}
			push(PathSelector{Kind: SelectorClass, Name: name.Value})
		case tokColon:
			name, err := t.next()
			if err != nil {
				return CssPath{}, err
			}
			sel, err := parsePseudo(name)
			if err != nil {
				return CssPath{}, t.errorf("%v", err)
			}
			push(sel)
		default:
			return CssPath{}, t.errorf("unexpected token %q", tok.Value)
		}
		lastWasCombinator = false
	}
}

// ParseSelectorList parses a comma separated selector list.
func ParseSelectorList(s string) ([]CssPath, error) {
	var out []CssPath
	for _, part := range strings.Split(s, ",") {
		p, err := ParseSelector(part)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func parsePseudo(tok selectorToken) (PathSelector, error) {
	sel := PathSelector{Kind: SelectorPseudo, Name: strings.ToLower(tok.Value)}
	switch tok.Type {
	case tokIdent:
		switch sel.Name {
		case "hover":
			sel.Pseudo = PseudoHover
		case "active":
			sel.Pseudo = PseudoActive
		case "focus":
			sel.Pseudo = PseudoFocus
		case "first", "first-child":
			sel.Pseudo = PseudoFirst
		case "last", "last-child":
			sel.Pseudo = PseudoLast
		default:
			sel.Pseudo = PseudoUnknown
		}
		return sel, nil
	case tokFunction:
		if sel.Name != "nth-child" {
			sel.Pseudo = PseudoUnknown
			return sel, nil
		}
		nth, err := ParseNthChild(tok.Arg)
		if err != nil {
			return PathSelector{}, err
		}
		sel.Pseudo = PseudoNthChild
		sel.Nth = nth
		return sel, nil
	}
	return PathSelector{}, fmt.Errorf("expected pseudo-class name")
}

// ParseNthChild parses "3", "odd", "even", "2n+1", "n", "-n+3".
func ParseNthChild(arg string) (NthChild, error) {
	a := strings.ReplaceAll(strings.ToLower(arg), " ", "")
	switch a {
	case "odd":
		return NthChild{Repeat: 2, Offset: 1}, nil
	case "even":
		return NthChild{Repeat: 2, Offset: 0}, nil
	}
	idx := strings.IndexByte(a, 'n')
	if idx < 0 {
		n, err := strconv.Atoi(a)
		if err != nil {
			return NthChild{}, fmt.Errorf("invalid nth-child argument %q", arg)
		}
		return NthChild{Offset: n}, nil
	}
	var nth NthChild
	switch coef := a[:idx]; coef {
	case "", "+":
		nth.Repeat = 1
	case "-":
		nth.Repeat = -1
	default:
		n, err := strconv.Atoi(coef)
		if err != nil {
			return NthChild{}, fmt.Errorf("invalid nth-child argument %q", arg)
		}
		nth.Repeat = n
	}
	if rest := a[idx+1:]; rest != "" {
		n, err := strconv.Atoi(rest)
		if err != nil {
			return NthChild{}, fmt.Errorf("invalid nth-child argument %q", arg)
		}
		nth.Offset = n
	}
	return nth, nil
}
