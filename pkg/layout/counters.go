package layout

import (
	"maps"
	"strconv"
	"strings"

	"styledom/pkg/dom"
	"styledom/pkg/style"
)

// listItemCounter is the implicit counter of ol, ul and li.
const listItemCounter = "list-item"

// CounterCache holds the CSS counters in scope at every element and the
// list markers of list items.
type CounterCache struct {
	values  map[dom.NodeId]map[string]int
	markers map[dom.NodeId]string
}

// counterStacks keeps one stack of nested scopes per counter name.
type counterStacks map[string][]int

// reset opens a new scope for the counter.
func (s counterStacks) reset(name string, value int) {
	s[name] = append(s[name], value)
}

// increment adds to the innermost scope, creating one at 0 when the
// counter was never reset.
func (s counterStacks) increment(name string, value int) {
	stack := s[name]
	if len(stack) == 0 {
		s[name] = []int{value}
		return
	}
	stack[len(stack)-1] += value
}

func (s counterStacks) pop(name string) {
	if stack := s[name]; len(stack) > 0 {
		s[name] = stack[:len(stack)-1]
	}
}

func (s counterStacks) snapshot() map[string]int {
	out := make(map[string]int, len(s))
	for name, stack := range s {
		if len(stack) > 0 {
			out[name] = stack[len(stack)-1]
		}
	}
	return out
}

// parseCounterList parses counter-reset and counter-increment values:
// "name [value] [name2 [value2] ...]" or "none". Missing values are def.
func parseCounterList(value string, def int) []counterOp {
	value = strings.TrimSpace(value)
	if value == "" || value == "none" {
		return nil
	}
	var out []counterOp
	parts := strings.Fields(value)
	for i := 0; i < len(parts); i++ {
		op := counterOp{name: parts[i], value: def}
		if i+1 < len(parts) {
			if v, err := strconv.Atoi(parts[i+1]); err == nil {
				op.value = v
				i++
			}
		}
		out = append(out, op)
	}
	return out
}

type counterOp struct {
	name  string
	value int
}

// ComputeCounters evaluates counter-reset and counter-increment over the
// document in preorder. Lists reset the list-item counter and list items
// increment it.
func ComputeCounters(s *style.StyledDom) *CounterCache {
	c := &CounterCache{values: map[dom.NodeId]map[string]int{}, markers: map[dom.NodeId]string{}}
	root, ok := s.Dom.Root()
	if !ok {
		return c
	}
	stacks := counterStacks{}
	var visit func(id dom.NodeId, list dom.NodeType)
	visit = func(id dom.NodeId, list dom.NodeType) {
		n := s.Dom.Ptr(id)
		if n.Type == dom.NodeText {
			return
		}
		cs := s.Style(id)
		var opened []string
		if n.Type == dom.NodeOl || n.Type == dom.NodeUl {
			stacks.reset(listItemCounter, 0)
			opened = append(opened, listItemCounter)
		}
		for _, op := range parseCounterList(cs.CounterReset(), 0) {
			stacks.reset(op.name, op.value)
			opened = append(opened, op.name)
		}
		if n.Type == dom.NodeLi {
			stacks.increment(listItemCounter, 1)
		}
		for _, op := range parseCounterList(cs.CounterIncrement(), 1) {
			stacks.increment(op.name, op.value)
		}
		if len(stacks) > 0 {
			if snap := stacks.snapshot(); len(snap) > 0 {
				c.values[id] = snap
			}
		}
		if n.Type == dom.NodeLi {
			switch list {
			case dom.NodeOl:
				c.markers[id] = strconv.Itoa(c.values[id][listItemCounter]) + "."
			case dom.NodeUl:
				c.markers[id] = "•"
			}
		}
		inner := list
		if n.Type == dom.NodeOl || n.Type == dom.NodeUl {
			inner = n.Type
		}
		for child := range s.Dom.Children(id) {
			visit(child, inner)
		}
		for i := len(opened) - 1; i >= 0; i-- {
			stacks.pop(opened[i])
		}
	}
	visit(root, dom.NodeBody)
	return c
}

// Value returns the innermost value of a counter at an element.
func (c *CounterCache) Value(id dom.NodeId, name string) (int, bool) {
	if c == nil {
		return 0, false
	}
	v, ok := c.values[id][name]
	return v, ok
}

// Values returns a copy of every counter in scope at an element.
func (c *CounterCache) Values(id dom.NodeId) map[string]int {
	if c == nil {
		return nil
	}
	return maps.Clone(c.values[id])
}

// Marker returns the list marker of a list item: "3." in an ordered list
// and a bullet in an unordered one.
func (c *CounterCache) Marker(id dom.NodeId) (string, bool) {
	if c == nil {
		return "", false
	}
	m, ok := c.markers[id]
	return m, ok
}

// counters returns the counters of the pass, reusing the previous tree's
// when nothing that affects them changed.
func (p *pass) counters() *CounterCache {
	if p.reuse != nil && p.reuse.counters != nil {
		return p.reuse.counters
	}
	return ComputeCounters(p.styled)
}
