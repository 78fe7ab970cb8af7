package layout

import (
	"slices"

	"styledom/pkg/text"
)

// CachedInlineLayout is the line layout of an inline formatting context
// together with the inputs it was computed from.
type CachedInlineLayout struct {
	Content     []text.InlineContent
	Constraints text.Constraints
	Layout      *text.UnifiedLayout
}

// Valid reports whether the cached layout can stand for content laid out
// under c. A nil cache is never valid.
func (c *CachedInlineLayout) Valid(content []text.InlineContent, cons text.Constraints) bool {
	if c == nil || c.Layout == nil {
		return false
	}
	return slices.Equal(c.Content, content) && sameConstraints(c.Constraints, cons)
}

func sameConstraints(a, b text.Constraints) bool {
	return a.AvailableWidth == b.AvailableWidth &&
		a.TextAlign == b.TextAlign &&
		a.TextJustify == b.TextJustify &&
		a.Direction == b.Direction &&
		a.CanBreak == b.CanBreak &&
		a.CanHyphenate == b.CanHyphenate &&
		a.WritingMode == b.WritingMode &&
		a.MinLineHeight == b.MinLineHeight &&
		a.TextIndent == b.TextIndent &&
		slices.Equal(a.Holes, b.Holes)
}
