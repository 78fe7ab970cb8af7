package markup

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"styledom/pkg/dom"
)

// Parse reads an HTML document. Parsing follows the HTML5 tree
// construction rules, so it does not fail on malformed markup.
func Parse(ctx context.Context, src string, opts ...Option) (*Document, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	c := newConverter(ctx, opts)
	top := c.htmlChildren(root)
	return c.finish(top), nil
}

// ParseFragment reads markup meant for the inside of a body element.
func ParseFragment(ctx context.Context, src string, opts ...Option) (*Document, error) {
	parent := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), parent)
	if err != nil {
		return nil, fmt.Errorf("parse html fragment: %w", err)
	}
	c := newConverter(ctx, opts)
	var top []dom.Dom
	for _, n := range nodes {
		top = append(top, c.htmlNode(n)...)
	}
	return c.finish(top), nil
}

func (c *converter) htmlChildren(n *html.Node) []dom.Dom {
	var out []dom.Dom
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		out = append(out, c.htmlNode(ch)...)
	}
	return out
}

func (c *converter) htmlNode(n *html.Node) []dom.Dom {
	switch n.Type {
	case html.DocumentNode:
		return c.htmlChildren(n)
	case html.TextNode:
		return []dom.Dom{dom.Text(n.Data)}
	case html.ElementNode:
	default:
		return nil
	}

	attrs := make([]attr, 0, len(n.Attr))
	for _, a := range n.Attr {
		if a.Namespace == "" {
			attrs = append(attrs, attr{strings.ToLower(a.Key), a.Val})
		}
	}
	switch n.DataAtom {
	case atom.Html:
		return c.htmlChildren(n)
	case atom.Title:
		c.doc.Title = strings.TrimSpace(textContent(n))
		return nil
	case atom.Style:
		c.style(textContent(n))
		return nil
	case atom.Script:
		c.script(attrs, textContent(n))
		return nil
	case atom.Link:
		c.link(attrs)
		return nil
	case atom.Head:
		c.htmlChildren(n)
		return nil
	case atom.Body:
		body := c.element("body", attrs, c.htmlChildren(n))
		c.body = &body
		return nil
	}
	if skipTags[n.Data] {
		return nil
	}
	return []dom.Dom{c.element(n.Data, attrs, c.htmlChildren(n))}
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return sb.String()
}
