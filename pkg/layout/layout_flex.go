package layout

import (
	"math"
	"slices"

	"styledom/pkg/css"
	"styledom/pkg/dom"
	"styledom/pkg/geom"
	"styledom/pkg/style"
)

// FlexItem tracks one item through the flex algorithm. Sizes are border
// box sizes.
type FlexItem struct {
	id      dom.NodeId
	cs      *style.ComputedStyle
	margin  geom.Edges
	bp      geom.Edges
	order   int
	grow    float64
	shrink  float64
	basis   float64
	minMain float64
	maxMain float64
	// hypo is the basis clamped by the min and max main sizes.
	hypo      float64
	target    float64
	frozen    bool
	MainSize  float64
	CrossSize float64
	MainPos   float64
	CrossPos  float64
	stretch   bool
	baseline  float64
}

// FlexLine is one line of a flex container.
type FlexLine struct {
	Items     []*FlexItem
	CrossSize float64
	CrossPos  float64
}

// FlexContainer is the state of one flex layout.
type FlexContainer struct {
	Lines          []*FlexLine
	Direction      css.FlexDirection
	Wrap           css.FlexWrap
	JustifyContent css.JustifyContent
	AlignItems     css.AlignItems
	AlignContent   css.AlignContent
	// MainAxisSize is +Inf for a column container of auto height.
	MainAxisSize  float64
	CrossAxisSize float64
	IsRow         bool
	definiteCross bool
}

func (it *FlexItem) mainMargins(row bool) (float64, float64) {
	if row {
		return it.margin.Left, it.margin.Right
	}
	return it.margin.Top, it.margin.Bottom
}

func (it *FlexItem) crossMargins(row bool) (float64, float64) {
	if row {
		return it.margin.Top, it.margin.Bottom
	}
	return it.margin.Left, it.margin.Right
}

func (it *FlexItem) outerMain(row bool, size float64) float64 {
	a, b := it.mainMargins(row)
	return size + a + b
}

func (it *FlexItem) outerCross(row bool) float64 {
	a, b := it.crossMargins(row)
	return it.CrossSize + a + b
}

func (it *FlexItem) clampMain(v float64) float64 {
	return max(it.minMain, min(v, it.maxMain))
}

// passMark records the state of a pass so a speculative layout can be
// undone.
type passMark struct {
	nodes     int
	absolutes int
	parent    int
	children  int
	stats     Stats
}

func (p *pass) mark(parent int) passMark {
	return passMark{
		nodes:     len(p.tree.Nodes),
		absolutes: len(p.absolutes),
		parent:    parent,
		children:  len(p.node(parent).Children),
		stats:     p.tree.Stats,
	}
}

func (p *pass) rewind(m passMark) {
	p.tree.Nodes = p.tree.Nodes[:m.nodes]
	p.absolutes = p.absolutes[:m.absolutes]
	pn := p.node(m.parent)
	pn.Children = pn.Children[:m.children]
	p.tree.Stats = m.stats
}

// layoutFlex runs the flexbox algorithm over the children of id, whose
// content box is w wide and cbH high (negative when auto). It returns the
// content height.
func (p *pass) layoutFlex(idx int, id dom.NodeId, w, cbH float64) float64 {
	cs := p.style(id)
	direction := cs.FlexDirection()
	container := &FlexContainer{
		Direction:      direction,
		Wrap:           cs.FlexWrap(),
		JustifyContent: cs.JustifyContent(),
		AlignItems:     cs.AlignItems(),
		AlignContent:   cs.AlignContent(),
		IsRow:          !direction.IsColumn(),
	}
	if container.IsRow {
		container.MainAxisSize = w
		container.CrossAxisSize, container.definiteCross = cbH, cbH >= 0
	} else {
		container.MainAxisSize = math.Inf(1)
		if cbH >= 0 {
			container.MainAxisSize = cbH
		}
		container.CrossAxisSize, container.definiteCross = w, true
	}

	items := p.createFlexItems(idx, id, container, w, cbH)
	if len(items) == 0 {
		return max(cbH, 0)
	}
	slices.SortStableFunc(items, func(a, b *FlexItem) int { return a.order - b.order })

	container.createFlexLines(items)
	for _, line := range container.Lines {
		container.resolveFlexibleLengths(line)
	}
	p.measureCrossSizes(idx, container, w, cbH)
	container.sizeLines()
	container.distributeMainAxis()
	container.alignCrossAxis()

	// Final layout of every item at its resolved size and position.
	baselineSet := false
	for _, line := range container.Lines {
		for _, it := range line.Items {
			sz := sizing{mode: sizeFixed, cbWidth: w, cbHeight: cbH, height: -1}
			var at geom.Point
			if container.IsRow {
				sz.width = it.MainSize
				if it.stretch {
					sz.height = it.CrossSize
				}
				at = geom.Point{X: it.MainPos, Y: it.CrossPos + it.margin.Top}
			} else {
				sz.width, sz.height = it.CrossSize, it.MainSize
				at = geom.Point{X: it.CrossPos, Y: it.MainPos + it.margin.Top}
			}
			sz.avail = sz.width + it.margin.Horizontal()
			res := p.layoutBox(it.id, idx, sz, nil, at, geom.Point{})
			child := p.node(res.idx)
			if !baselineSet && child.Baseline > 0 {
				pn := p.node(idx)
				pn.Baseline = pn.Border.Top + pn.Padding.Top + at.Y + child.Baseline
				baselineSet = true
			}
		}
	}

	if cbH >= 0 {
		return cbH
	}
	if container.IsRow {
		h := 0.0
		for _, line := range container.Lines {
			h += line.CrossSize
		}
		return h
	}
	h := 0.0
	for _, line := range container.Lines {
		used := 0.0
		for _, it := range line.Items {
			used += it.outerMain(false, it.MainSize)
		}
		h = max(h, used)
	}
	return h
}

// createFlexItems resolves the flex base size and hypothetical main size
// of every in-flow child. Out-of-flow children are queued with the
// container's content box origin as static position.
func (p *pass) createFlexItems(idx int, id dom.NodeId, c *FlexContainer, w, cbH float64) []*FlexItem {
	var items []*FlexItem
	for child := range p.anon.Children(id) {
		ccs := p.style(child)
		if ccs.IsOutOfFlow() {
			p.deferAbsolute(child, idx, geom.Point{})
			continue
		}
		it := &FlexItem{
			id:     child,
			cs:     ccs,
			margin: ccs.Margin(w),
			bp:     ccs.Border().Add(ccs.Padding(w)),
			order:  ccs.Order(),
			grow:   ccs.FlexGrow(),
			shrink: ccs.FlexShrink(),
		}
		if c.IsRow {
			p.rowBasis(it, w)
		} else {
			p.columnBasis(idx, it, c.AlignItems, w, cbH)
		}
		it.hypo = it.clampMain(it.basis)
		items = append(items, it)
	}
	return items
}

func (p *pass) rowBasis(it *FlexItem, w float64) {
	cs := it.cs
	m := p.intrinsicSizes(it.id)
	content := m.MaxContentSize + it.bp.Horizontal()
	switch {
	case !cs.IsAuto(css.PropFlexBasis):
		it.basis = cs.ResolveLength(css.PropFlexBasis, w, 0)
		if cs.BoxSizing() != css.BoxSizingBorderBox {
			it.basis += it.bp.Horizontal()
		}
	default:
		if sw, ok := specifiedWidth(cs, w, it.bp); ok {
			it.basis = sw + it.bp.Horizontal()
		} else {
			it.basis = content
		}
	}
	it.minMain = 0
	if !cs.IsAuto(css.PropMinWidth) {
		it.minMain = clampWidth(cs, 0, w, it.bp) + it.bp.Horizontal()
	} else if !cs.ClipsContent() {
		it.minMain = m.MinContentSize + it.bp.Horizontal()
		if sw, ok := specifiedWidth(cs, w, it.bp); ok {
			it.minMain = min(it.minMain, sw+it.bp.Horizontal())
		}
	}
	it.maxMain = math.Inf(1)
	if !cs.IsAuto(css.PropMaxWidth) {
		it.maxMain = clampWidth(cs, math.Inf(1), w, it.bp) + it.bp.Horizontal()
	}
	it.minMain = max(it.minMain, it.bp.Horizontal())
}

// columnBasis measures a column item by laying it out at its cross size.
func (p *pass) columnBasis(idx int, it *FlexItem, alignItems css.AlignItems, w, cbH float64) {
	cs := it.cs
	align := itemAlignment(cs, alignItems)
	cross := 0.0
	if sw, ok := specifiedWidth(cs, w, it.bp); ok {
		cross = clampWidth(cs, sw, w, it.bp) + it.bp.Horizontal()
	} else if align == css.AlignStretch && !autoCrossMargins(cs, false) {
		cross = max(0, w-it.margin.Horizontal())
	} else {
		avail := w - it.margin.Horizontal() - it.bp.Horizontal()
		cross = clampWidth(cs, p.intrinsicSizes(it.id).ShrinkToFit(avail), w, it.bp) + it.bp.Horizontal()
	}
	it.CrossSize = cross

	m := p.mark(idx)
	res := p.layoutBox(it.id, idx, sizing{mode: sizeFixed, width: cross, avail: cross + it.margin.Horizontal(), cbWidth: w, cbHeight: -1, height: -1}, nil, geom.Point{}, geom.Point{})
	content := p.node(res.idx).Rect.Height
	p.rewind(m)

	switch {
	case !cs.IsAuto(css.PropFlexBasis) && !(isPercent(cs, css.PropFlexBasis) && cbH < 0):
		it.basis = cs.ResolveLength(css.PropFlexBasis, max(cbH, 0), 0)
		if cs.BoxSizing() != css.BoxSizingBorderBox {
			it.basis += it.bp.Vertical()
		}
	default:
		if sh, ok := specifiedHeight(cs, cbH, it.bp); ok {
			it.basis = sh + it.bp.Vertical()
		} else {
			it.basis = content
		}
	}
	it.minMain = it.bp.Vertical()
	if !cs.IsAuto(css.PropMinHeight) {
		it.minMain = max(it.minMain, clampHeight(cs, 0, cbH, it.bp)+it.bp.Vertical())
	} else if !cs.ClipsContent() {
		it.minMain = max(it.minMain, min(content, it.basis))
	}
	it.maxMain = math.Inf(1)
	if !cs.IsAuto(css.PropMaxHeight) {
		it.maxMain = clampHeight(cs, math.Inf(1), cbH, it.bp) + it.bp.Vertical()
	}
}

// createFlexLines collects items into lines, breaking before an item whose
// hypothetical outer main size does not fit.
func (c *FlexContainer) createFlexLines(items []*FlexItem) {
	if c.Wrap == css.FlexWrapNoWrap || math.IsInf(c.MainAxisSize, 1) {
		c.Lines = []*FlexLine{{Items: items}}
		return
	}
	line := &FlexLine{}
	used := 0.0
	for _, it := range items {
		size := it.outerMain(c.IsRow, it.hypo)
		if len(line.Items) > 0 && used+size > c.MainAxisSize+epsilon {
			c.Lines = append(c.Lines, line)
			line, used = &FlexLine{}, 0
		}
		line.Items = append(line.Items, it)
		used += size
	}
	c.Lines = append(c.Lines, line)
	if c.Wrap == css.FlexWrapWrapReverse {
		slices.Reverse(c.Lines)
	}
}

// resolveFlexibleLengths distributes the free space of a line, freezing
// items that hit their min or max main size (CSS Flexbox §9.7). Shrinking
// is weighted by flex-shrink times the base size.
func (c *FlexContainer) resolveFlexibleLengths(line *FlexLine) {
	if math.IsInf(c.MainAxisSize, 1) {
		for _, it := range line.Items {
			it.MainSize = it.hypo
		}
		return
	}
	used := 0.0
	for _, it := range line.Items {
		used += it.outerMain(c.IsRow, it.hypo)
	}
	growing := used < c.MainAxisSize
	for _, it := range line.Items {
		it.target, it.frozen = it.hypo, false
		switch {
		case growing && (it.grow == 0 || it.basis > it.hypo):
			it.frozen = true
		case !growing && (it.shrink == 0 || it.basis < it.hypo):
			it.frozen = true
		}
	}
	for {
		free := c.MainAxisSize
		var factors float64
		active := false
		for _, it := range line.Items {
			if it.frozen {
				free -= it.outerMain(c.IsRow, it.target)
				continue
			}
			active = true
			free -= it.outerMain(c.IsRow, it.basis)
			if growing {
				factors += it.grow
			} else {
				factors += it.shrink * it.basis
			}
		}
		if !active {
			break
		}
		violation := 0.0
		for _, it := range line.Items {
			if it.frozen {
				continue
			}
			t := it.basis
			switch {
			case growing && factors > 0:
				t += free * it.grow / factors
			case !growing && factors > 0:
				t += free * it.shrink * it.basis / factors
			}
			clamped := it.clampMain(t)
			violation += clamped - t
			it.target = clamped
		}
		for _, it := range line.Items {
			if it.frozen {
				continue
			}
			switch {
			case math.Abs(violation) < epsilon:
				it.frozen = true
			case violation > 0 && it.target <= it.minMain+epsilon:
				it.frozen = true
			case violation < 0 && it.target >= it.maxMain-epsilon:
				it.frozen = true
			}
		}
		if math.Abs(violation) < epsilon {
			break
		}
	}
	for _, it := range line.Items {
		it.MainSize = it.target
	}
}

// measureCrossSizes lays out row items at their main size to learn their
// hypothetical cross size. The layouts are discarded.
func (p *pass) measureCrossSizes(idx int, c *FlexContainer, w, cbH float64) {
	if !c.IsRow {
		return
	}
	m := p.mark(idx)
	for _, line := range c.Lines {
		for _, it := range line.Items {
			res := p.layoutBox(it.id, idx, sizing{mode: sizeFixed, width: it.MainSize, avail: it.MainSize + it.margin.Horizontal(), cbWidth: w, cbHeight: cbH, height: -1}, nil, geom.Point{}, geom.Point{})
			n := p.node(res.idx)
			it.CrossSize = n.Rect.Height
			it.baseline = n.Baseline
		}
	}
	p.rewind(m)
}

// sizeLines computes line cross sizes and positions, applying
// align-content when the container's cross size is definite.
func (c *FlexContainer) sizeLines() {
	for _, line := range c.Lines {
		for _, it := range line.Items {
			line.CrossSize = max(line.CrossSize, it.outerCross(c.IsRow))
		}
	}
	if !c.definiteCross {
		pos := 0.0
		for _, line := range c.Lines {
			line.CrossPos = pos
			pos += line.CrossSize
		}
		return
	}
	if len(c.Lines) == 1 {
		c.Lines[0].CrossSize = c.CrossAxisSize
		return
	}
	used := 0.0
	for _, line := range c.Lines {
		used += line.CrossSize
	}
	free := c.CrossAxisSize - used
	pos, gap := 0.0, 0.0
	switch c.AlignContent {
	case css.AlignContentFlexEnd:
		pos = free
	case css.AlignContentCenter:
		pos = free / 2
	case css.AlignContentSpaceBetween:
		if free > 0 {
			gap = free / float64(len(c.Lines)-1)
		}
	case css.AlignContentSpaceAround:
		if free > 0 {
			gap = free / float64(len(c.Lines))
			pos = gap / 2
		}
	case css.AlignContentStretch:
		if free > 0 {
			extra := free / float64(len(c.Lines))
			for _, line := range c.Lines {
				line.CrossSize += extra
			}
		}
	}
	for _, line := range c.Lines {
		line.CrossPos = pos
		pos += line.CrossSize + gap
	}
}

// distributeMainAxis positions items along the main axis. MainPos is the
// margin box start in the container's content box.
func (c *FlexContainer) distributeMainAxis() {
	for _, line := range c.Lines {
		total := 0.0
		for _, it := range line.Items {
			total += it.outerMain(c.IsRow, it.MainSize)
		}
		size := c.MainAxisSize
		if math.IsInf(size, 1) {
			size = total
		}
		free := size - total
		spacing, pos := 0.0, 0.0
		n := float64(len(line.Items))
		switch c.JustifyContent {
		case css.JustifyFlexEnd, "end":
			pos = free
		case css.JustifyCenter:
			pos = free / 2
		case css.JustifySpaceBetween:
			if len(line.Items) > 1 && free > 0 {
				spacing = free / (n - 1)
			}
		case css.JustifySpaceAround:
			if free > 0 {
				spacing = free / n
				pos = spacing / 2
			}
		case css.JustifySpaceEvenly:
			if free > 0 {
				spacing = free / (n + 1)
				pos = spacing
			}
		}
		for _, it := range line.Items {
			outer := it.outerMain(c.IsRow, it.MainSize)
			it.MainPos = pos
			if c.Direction.IsReverse() {
				it.MainPos = size - pos - outer
			}
			pos += outer + spacing
		}
	}
}

// itemAlignment resolves align-self against the container's align-items.
// Baseline alignment is laid out as flex-start.
func itemAlignment(item *style.ComputedStyle, alignItems css.AlignItems) css.AlignItems {
	a := item.AlignSelf()
	if a == css.AlignAuto {
		a = alignItems
	}
	switch a {
	case "start", css.AlignBaseline:
		return css.AlignFlexStart
	case "end":
		return css.AlignFlexEnd
	}
	return a
}

func autoCrossMargins(cs *style.ComputedStyle, row bool) bool {
	var a, b bool
	if row {
		a, b = cs.AutoMarginsVertical()
	} else {
		a, b = cs.AutoMargins()
	}
	return a || b
}

// alignCrossAxis positions items in their line. CrossPos is the margin box
// start in the container's content box.
func (c *FlexContainer) alignCrossAxis() {
	for _, line := range c.Lines {
		for _, it := range line.Items {
			free := line.CrossSize - it.outerCross(c.IsRow)
			pos := line.CrossPos
			switch itemAlignment(it.cs, c.AlignItems) {
			case css.AlignFlexEnd:
				pos += free
			case css.AlignCenter:
				pos += free / 2
			case css.AlignStretch:
				prop := css.PropHeight
				if !c.IsRow {
					prop = css.PropWidth
				}
				if it.cs.IsAuto(prop) && !autoCrossMargins(it.cs, c.IsRow) {
					before, after := it.crossMargins(c.IsRow)
					size := line.CrossSize - before - after
					if c.IsRow {
						bp := it.bp
						size = clampHeight(it.cs, size-bp.Vertical(), c.CrossAxisSize, bp) + bp.Vertical()
					} else {
						size = clampWidth(it.cs, size-it.bp.Horizontal(), c.CrossAxisSize, it.bp) + it.bp.Horizontal()
					}
					it.CrossSize = max(0, size)
					it.stretch = c.IsRow
				}
			}
			it.CrossPos = pos
		}
	}
}
