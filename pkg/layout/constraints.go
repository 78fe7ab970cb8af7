package layout

import (
	"math"
	"slices"

	"styledom/pkg/css"
	"styledom/pkg/dom"
	"styledom/pkg/geom"
	"styledom/pkg/text"
)

// Exclusion is a placed float, as its margin box in the coordinate space of
// the content box of the block formatting context root that owns it.
type Exclusion struct {
	Rect geom.Rect
	Side css.FloatType
	// Node is the layout node of the float.
	Node int
}

// ExclusionSpace is the set of floats placed so far in one block formatting
// context. It is immutable: Add returns a new space, so a layout that is
// retried never sees floats from an abandoned attempt.
type ExclusionSpace struct {
	exclusions []Exclusion
}

// NewExclusionSpace creates an empty exclusion space.
func NewExclusionSpace() *ExclusionSpace {
	return &ExclusionSpace{}
}

// IsEmpty returns true if there are no exclusions.
func (es *ExclusionSpace) IsEmpty() bool {
	return es == nil || len(es.exclusions) == 0
}

// Exclusions returns the placed floats in placement order.
func (es *ExclusionSpace) Exclusions() []Exclusion {
	if es == nil {
		return nil
	}
	return es.exclusions
}

// Add returns a NEW ExclusionSpace with the given exclusion added.
// The original ExclusionSpace is NOT modified.
func (es *ExclusionSpace) Add(e Exclusion) *ExclusionSpace {
	var prev []Exclusion
	if es != nil {
		prev = es.exclusions
	}
	next := make([]Exclusion, len(prev)+1)
	copy(next, prev)
	next[len(prev)] = e
	return &ExclusionSpace{exclusions: next}
}

// Edges narrows the span [left, right) by the floats overlapping
// [y, y+height). A zero height still probes the line at y.
func (es *ExclusionSpace) Edges(left, right, y, height float64) (float64, float64) {
	for _, e := range es.Exclusions() {
		if e.Rect.Bottom() <= y || e.Rect.Y >= y+max(height, epsilon) {
			continue
		}
		switch e.Side {
		case css.FloatLeft:
			left = max(left, e.Rect.Right())
		case css.FloatRight:
			right = min(right, e.Rect.X)
		}
	}
	return left, right
}

// AvailableInlineSize returns the width left between the floats at y.
func (es *ExclusionSpace) AvailableInlineSize(left, right, y, height float64) float64 {
	l, r := es.Edges(left, right, y, height)
	return max(0, r-l)
}

// NextBottom returns the smallest float bottom edge below y among the floats
// overlapping [y, y+height); ok is false when there is none.
func (es *ExclusionSpace) NextBottom(y, height float64) (float64, bool) {
	best, ok := math.Inf(1), false
	for _, e := range es.Exclusions() {
		if e.Rect.Bottom() <= y || e.Rect.Y >= y+max(height, epsilon) {
			continue
		}
		best, ok = min(best, e.Rect.Bottom()), true
	}
	return best, ok
}

// ClearanceY returns the lowest bottom edge of the floats a box with the
// given clear value must be placed below.
func (es *ExclusionSpace) ClearanceY(clear css.ClearType) float64 {
	y := math.Inf(-1)
	for _, e := range es.Exclusions() {
		if clear == css.ClearBoth || string(clear) == string(e.Side) {
			y = max(y, e.Rect.Bottom())
		}
	}
	return y
}

// LowestTop returns the top of the most recently placed float; later
// floats may not be placed above it.
func (es *ExclusionSpace) LowestTop() float64 {
	y := 0.0
	for _, e := range es.Exclusions() {
		y = max(y, e.Rect.Y)
	}
	return y
}

// Bottom returns the lowest float bottom edge, or 0 without floats.
func (es *ExclusionSpace) Bottom() float64 {
	y := 0.0
	for _, e := range es.Exclusions() {
		y = max(y, e.Rect.Bottom())
	}
	return y
}

// Holes returns the floats overlapping a box whose content box starts at
// origin and has the given width, translated into that box's coordinates.
// Only floats that reach below origin.Y matter.
func (es *ExclusionSpace) Holes(origin geom.Point, width float64) []text.Hole {
	var out []text.Hole
	for _, e := range es.Exclusions() {
		if e.Rect.Bottom() <= origin.Y {
			continue
		}
		r := e.Rect.Translate(-origin.X, -origin.Y)
		if r.Right() <= 0 || r.X >= width {
			continue
		}
		out = append(out, text.Hole{Rect: r, Side: e.Side})
	}
	return out
}

// floatBand is the height of one float cache band.
const floatBand = 64

type floatKey struct {
	root dom.NodeId
	band int
}

// FloatCache keeps the placed floats of every block formatting context
// between passes, bucketed by vertical band. Inline formatting contexts that
// are relaid alone query it instead of replaying their ancestors. Keys are
// AnonDom ids of block formatting context roots.
type FloatCache struct {
	bands map[floatKey][]Exclusion
}

func NewFloatCache() *FloatCache {
	return &FloatCache{bands: map[floatKey][]Exclusion{}}
}

// Add records e for the formatting context root.
func (fc *FloatCache) Add(root dom.NodeId, e Exclusion) {
	first := int(math.Floor(e.Rect.Y / floatBand))
	last := int(math.Floor(max(e.Rect.Bottom()-epsilon, e.Rect.Y) / floatBand))
	for b := first; b <= last; b++ {
		k := floatKey{root, b}
		fc.bands[k] = append(fc.bands[k], e)
	}
}

// Drop forgets every float of root.
func (fc *FloatCache) Drop(root dom.NodeId) {
	for k := range fc.bands {
		if k.root == root {
			delete(fc.bands, k)
		}
	}
}

// Clear forgets everything.
func (fc *FloatCache) Clear() { clear(fc.bands) }

// Space rebuilds the exclusion space of root from the bands overlapping
// [top, bottom). Exclusions are returned in placement order.
func (fc *FloatCache) Space(root dom.NodeId, top, bottom float64) *ExclusionSpace {
	seen := map[int]bool{}
	var out []Exclusion
	for k, list := range fc.bands {
		if k.root != root || float64(k.band+1)*floatBand <= top || float64(k.band)*floatBand >= bottom {
			continue
		}
		for _, e := range list {
			if !seen[e.Node] {
				seen[e.Node] = true
				out = append(out, e)
			}
		}
	}
	slices.SortFunc(out, func(a, b Exclusion) int { return a.Node - b.Node })
	return &ExclusionSpace{exclusions: out}
}

// Len returns the number of cached floats.
func (fc *FloatCache) Len() int {
	type owned struct {
		root dom.NodeId
		node int
	}
	seen := map[owned]bool{}
	n := 0
	for k, list := range fc.bands {
		for _, e := range list {
			key := owned{k.root, e.Node}
			if !seen[key] {
				seen[key] = true
				n++
			}
		}
	}
	return n
}
