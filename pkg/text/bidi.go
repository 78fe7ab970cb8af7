package text

import (
	"golang.org/x/text/unicode/bidi"

	"styledom/pkg/css"
)

// bidiClass returns the bidirectional class of r.
func bidiClass(r rune) bidi.Class {
	p, _ := bidi.LookupRune(r)
	return p.Class()
}

func isStrongRTL(c bidi.Class) bool { return c == bidi.R || c == bidi.AL }

// ParagraphDirection resolves auto to the direction of the first strong
// character, defaulting to ltr.
func ParagraphDirection(text []rune, d css.Direction) css.Direction {
	if d != css.DirectionAuto {
		if d == "" {
			return css.DirectionLTR
		}
		return d
	}
	for _, r := range text {
		switch c := bidiClass(r); {
		case c == bidi.L:
			return css.DirectionLTR
		case isStrongRTL(c):
			return css.DirectionRTL
		}
	}
	return css.DirectionLTR
}

// resolveLevels assigns an embedding level to every rune. It implements
// the implicit part of the bidi algorithm without explicit embeddings:
// weak types follow their strong context, neutrals between equal strong
// types take that direction and otherwise the paragraph direction.
func resolveLevels(text []rune, rtl bool) []uint8 {
	n := len(text)
	base := uint8(0)
	if rtl {
		base = 1
	}
	types := make([]bidi.Class, n)
	for i, r := range text {
		types[i] = bidiClass(r)
	}

	// W1: non-spacing marks take the type of the previous character.
	prev := bidi.L
	if rtl {
		prev = bidi.R
	}
	for i, t := range types {
		if t == bidi.NSM {
			types[i] = prev
		} else {
			prev = t
		}
	}
	// W2, W3: European numbers after Arabic letters become Arabic numbers;
	// AL becomes R.
	last := bidi.L
	if rtl {
		last = bidi.R
	}
	for i, t := range types {
		switch t {
		case bidi.L, bidi.R:
			last = t
		case bidi.AL:
			last = bidi.AL
			types[i] = bidi.R
		case bidi.EN:
			if last == bidi.AL {
				types[i] = bidi.AN
			}
		}
	}
	// W7: European numbers in a left-to-right context become L.
	last = bidi.L
	if rtl {
		last = bidi.R
	}
	for i, t := range types {
		switch t {
		case bidi.L, bidi.R:
			last = t
		case bidi.EN:
			if last == bidi.L {
				types[i] = bidi.L
			}
		}
	}

	strong := func(t bidi.Class) (bidi.Class, bool) {
		switch t {
		case bidi.L:
			return bidi.L, true
		case bidi.R, bidi.EN, bidi.AN:
			return bidi.R, true
		}
		return 0, false
	}
	// N1, N2: neutrals.
	for i := 0; i < n; {
		if _, ok := strong(types[i]); ok {
			i++
			continue
		}
		j := i
		for j < n {
			if _, ok := strong(types[j]); ok {
				break
			}
			j++
		}
		before := bidi.L
		if rtl {
			before = bidi.R
		}
		if i > 0 {
			before, _ = strong(types[i-1])
		}
		after := bidi.L
		if rtl {
			after = bidi.R
		}
		if j < n {
			after, _ = strong(types[j])
		}
		fill := bidi.L
		if before == after {
			fill = before
		} else if rtl {
			fill = bidi.R
		}
		for k := i; k < j; k++ {
			types[k] = fill
		}
		i = j
	}

	// I1, I2: implicit levels.
	levels := make([]uint8, n)
	for i, t := range types {
		l := base
		if base%2 == 0 {
			switch t {
			case bidi.R:
				l++
			case bidi.AN, bidi.EN:
				l += 2
			}
		} else if t == bidi.L || t == bidi.EN || t == bidi.AN {
			l++
		}
		levels[i] = l
	}
	return levels
}

// visualOrder returns the indices of items in visual order given their
// levels (rule L2): from the highest level down to the lowest odd level,
// every maximal sequence at that level or above is reversed.
func visualOrder(levels []uint8) []int {
	order := make([]int, len(levels))
	for i := range order {
		order[i] = i
	}
	if len(levels) == 0 {
		return order
	}
	hi, lowOdd := uint8(0), uint8(255)
	for _, l := range levels {
		hi = max(hi, l)
		if l%2 == 1 {
			lowOdd = min(lowOdd, l)
		}
	}
	if lowOdd == 255 {
		return order
	}
	for lvl := hi; lvl >= lowOdd; lvl-- {
		for i := 0; i < len(order); {
			if levels[order[i]] < lvl {
				i++
				continue
			}
			j := i
			for j < len(order) && levels[order[j]] >= lvl {
				j++
			}
			for a, b := i, j-1; a < b; a, b = a+1, b-1 {
				order[a], order[b] = order[b], order[a]
			}
			i = j
		}
		if lvl == 0 {
			break
		}
	}
	return order
}
