package style

import (
	"strings"
	"testing"

	"github.com/andybalholm/cascadia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"styledom/pkg/css"
	"styledom/pkg/dom"
)

func path(t *testing.T, s string) css.CssPath {
	t.Helper()
	p, err := css.ParseSelector(s)
	require.NoError(t, err)
	return p
}

// tabs builds:
//
//	body(0)
//	  div.tab.active(1)
//	    div.close(2)
//	    div.label(3)
//	  div.tab(4)
//	    div.close(5)
func tabs() *dom.FlatDom {
	return dom.Flatten(dom.Body().WithChildren(
		dom.Div().WithClass("tab active").WithChildren(
			dom.Div().WithClass("close"),
			dom.Div().WithClass("label"),
		),
		dom.Div().WithClass("tab").WithChild(dom.Div().WithClass("close")),
	))
}

func TestMatches_ContentGroupsAnchoredAtCandidate(t *testing.T) {
	d := tabs()
	p := path(t, ".tab.active .close")
	assert.True(t, Matches(d, 2, p, nil))
	assert.False(t, Matches(d, 3, p, nil), ".label must not match")
	assert.False(t, Matches(d, 5, p, nil), "the ancestor lacks .active")
	assert.Equal(t, []dom.NodeId{2}, Select(d, p, nil))
}

func TestMatches_ChildCombinator(t *testing.T) {
	d := tabs()
	assert.Equal(t, []dom.NodeId{2, 5}, Select(d, path(t, "body .close"), nil))
	assert.Empty(t, Select(d, path(t, "body > .close"), nil))
	assert.Equal(t, []dom.NodeId{1, 4}, Select(d, path(t, "body > .tab"), nil))
	assert.Equal(t, []dom.NodeId{2}, Select(d, path(t, "body > .active > div:first-child"), nil))
}

func TestMatches_StatePseudo(t *testing.T) {
	d := tabs()
	state := NewUIState(0, 4, 5)

	assert.Equal(t, []dom.NodeId{0, 4, 5}, Select(d, path(t, ":hover"), &state), "unanchored :hover acts like *:hover")
	assert.Equal(t, []dom.NodeId{5}, Select(d, path(t, ".tab:hover .close"), &state))
	assert.Empty(t, Select(d, path(t, ".close:active"), &state))

	state.Active = true
	assert.Equal(t, []dom.NodeId{5}, Select(d, path(t, ".close:active"), &state))

	state = state.WithFocus(3)
	assert.Equal(t, []dom.NodeId{3}, Select(d, path(t, ":focus"), &state))
	assert.Empty(t, Select(d, path(t, ":hover"), nil), "no state, no match")
}

func TestMatches_UnknownPseudoNeverMatches(t *testing.T) {
	assert.Empty(t, Select(tabs(), path(t, "div:visited"), nil))
}

func TestMatches_TextNodesOnlyInherit(t *testing.T) {
	d := dom.Flatten(dom.Div().WithChild(dom.Text("x")))
	assert.Equal(t, []dom.NodeId{0}, Select(d, path(t, "*"), nil))
}

func TestMatches_NthChild(t *testing.T) {
	items := make([]dom.Dom, 6)
	for i := range items {
		items[i] = dom.New(dom.NodeLi)
	}
	d := dom.Flatten(dom.New(dom.NodeUl).WithChildren(items...))

	assert.Equal(t, []dom.NodeId{1, 3, 5}, Select(d, path(t, "li:nth-child(odd)"), nil))
	assert.Equal(t, []dom.NodeId{2, 4, 6}, Select(d, path(t, "li:nth-child(2n)"), nil))
	assert.Equal(t, []dom.NodeId{3}, Select(d, path(t, "li:nth-child(3)"), nil))
	assert.Equal(t, []dom.NodeId{1, 2, 3}, Select(d, path(t, "li:nth-child(-n+3)"), nil))
	assert.Equal(t, []dom.NodeId{6}, Select(d, path(t, "li:last-child"), nil))
}

const crossCheckHTML = `<html><body>
<div id="main" class="a">
  <p class="b">one</p>
  <div class="b c"><span>two</span><span class="c">three</span></div>
  <p>four</p>
</div>
<div class="a b">
  <ul><li>x</li><li class="c">y</li><li>z</li></ul>
  <p class="c"><span id="s">five</span></p>
</div>
</body></html>`

// fromHTML converts the element tree below n. Text is dropped so that
// sibling positions agree with the element-only counting of cascadia.
func fromHTML(n *html.Node, nodes *[]*html.Node) dom.Dom {
	t, _ := dom.NodeTypeFromTag(n.Data)
	d := dom.New(t)
	for _, a := range n.Attr {
		switch a.Key {
		case "id":
			d = d.WithID(a.Val)
		case "class":
			d = d.WithClass(a.Val)
		}
	}
	*nodes = append(*nodes, n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			d = d.WithChild(fromHTML(c, nodes))
		}
	}
	return d
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

func TestMatches_AgreesWithCascadia(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(crossCheckHTML))
	require.NoError(t, err)
	body := findBody(doc)
	require.NotNil(t, body)

	var nodes []*html.Node
	d := dom.Flatten(fromHTML(body, &nodes))
	require.Equal(t, len(nodes), d.Len())

	selectors := []string{
		"div p", "div > p", ".a .c", ".a > .b", "#main span", ".b.c span",
		"div span.c", "p:first-child", "li:last-child", "li:nth-child(2n+1)",
		"*", "div div span", "#s", ".a p span",
	}
	for _, sel := range selectors {
		want := map[*html.Node]bool{}
		for _, n := range cascadia.MustCompile(sel).MatchAll(body) {
			if n != body {
				want[n] = true
			}
		}
		got := map[*html.Node]bool{}
		for _, id := range Select(d, path(t, sel), nil) {
			if id != 0 {
				got[nodes[id]] = true
			}
		}
		assert.Equal(t, len(want), len(got), sel)
		for n := range want {
			assert.True(t, got[n], "%s: missing <%s>", sel, n.Data)
		}
	}
}
