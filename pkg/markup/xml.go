package markup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"styledom/pkg/dom"
)

var ErrEmptyDocument = errors.New("document has no root element")

// xhtmlEntities are the named entities XHTML pages commonly use beyond the
// five predefined by XML.
var xhtmlEntities = map[string]string{
	"nbsp": "\u00a0", "copy": "\u00a9", "reg": "\u00ae", "mdash": "\u2014",
	"ndash": "\u2013", "hellip": "\u2026", "laquo": "\u00ab", "raquo": "\u00bb",
	"shy": "\u00ad", "zwj": "\u200d", "zwnj": "\u200c",
}

// ParseXML reads an XHTML document, or any well-formed XML whose element
// names follow HTML. A root other than html or body is wrapped in a body.
func ParseXML(ctx context.Context, src string, opts ...Option) (*Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.Entity = xhtmlEntities
	if err := doc.ReadFromString(src); err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, ErrEmptyDocument
	}
	c := newConverter(ctx, opts)
	top := c.xmlElement(root)
	return c.finish(top), nil
}

func (c *converter) xmlChildren(e *etree.Element) []dom.Dom {
	var out []dom.Dom
	for _, tok := range e.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			out = append(out, dom.Text(t.Data))
		case *etree.Element:
			out = append(out, c.xmlElement(t)...)
		}
	}
	return out
}

func (c *converter) xmlElement(e *etree.Element) []dom.Dom {
	tag := strings.ToLower(e.Tag)
	attrs := make([]attr, 0, len(e.Attr))
	for _, a := range e.Attr {
		if a.Space == "" || a.Space == "xml" {
			attrs = append(attrs, attr{strings.ToLower(a.Key), a.Value})
		}
	}
	switch tag {
	case "html":
		return c.xmlChildren(e)
	case "title":
		c.doc.Title = strings.TrimSpace(xmlText(e))
		return nil
	case "style":
		c.style(xmlText(e))
		return nil
	case "script":
		c.script(attrs, xmlText(e))
		return nil
	case "link":
		c.link(attrs)
		return nil
	case "head":
		c.xmlChildren(e)
		return nil
	case "body":
		body := c.element("body", attrs, c.xmlChildren(e))
		c.body = &body
		return nil
	}
	if skipTags[tag] {
		return nil
	}
	return []dom.Dom{c.element(tag, attrs, c.xmlChildren(e))}
}

func xmlText(e *etree.Element) string {
	var sb strings.Builder
	for _, tok := range e.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			sb.WriteString(t.Data)
		case *etree.Element:
			sb.WriteString(xmlText(t))
		}
	}
	return sb.String()
}
