// Package markup builds DOM trees from HTML and XHTML documents. Style
// and script elements are collected separately; linked stylesheets and
// scripts are loaded through a resource.Fetcher.
package markup

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"styledom/pkg/css"
	"styledom/pkg/dom"
	"styledom/pkg/images"
	"styledom/pkg/resource"
)

var ErrNoHandler = errors.New("no handler for event attribute")

// Document is a parsed page.
type Document struct {
	Title string
	Body  dom.Dom
	// Styles holds the text of style elements and linked stylesheets in
	// document order.
	Styles []string
	// Scripts holds the text of script elements in document order.
	Scripts []string
	// Matches are the hrefs of link rel="match" elements: documents that
	// must render the same.
	Matches []string
}

// Stylesheet parses the collected styles as one sheet.
func (d *Document) Stylesheet() (*css.Stylesheet, []css.ParseError) {
	return css.ParseStylesheet(strings.Join(d.Styles, "\n"))
}

// Handler turns an inline event attribute such as onclick="..." into a
// callback.
type Handler func(attr, code string) (dom.Callback, any, error)

// Option configures a parse.
type Option func(*converter)

func WithLogger(l *zap.Logger) Option {
	return func(c *converter) { c.log = l.Named("markup") }
}

// WithFetcher loads linked stylesheets, external scripts and images. The
// default fetcher only reads data URIs and local files.
func WithFetcher(f resource.Fetcher) Option {
	return func(c *converter) { c.fetch = f }
}

// WithHandler binds inline event attributes.
func WithHandler(h Handler) Option {
	return func(c *converter) { c.handler = h }
}

// WithImages sizes images that have no width or height attributes.
func WithImages(s *images.Store) Option {
	return func(c *converter) { c.images = s }
}

// eventAttrs maps inline event attributes to filters.
var eventAttrs = map[string]dom.EventFilter{
	"onclick":       dom.HoverFilter(dom.EventLeftMouseUp),
	"onmousedown":   dom.HoverFilter(dom.EventMouseDown),
	"onmouseup":     dom.HoverFilter(dom.EventMouseUp),
	"onmouseover":   dom.HoverFilter(dom.EventMouseOver),
	"onmouseenter":  dom.HoverFilter(dom.EventMouseEnter),
	"onmouseleave":  dom.HoverFilter(dom.EventMouseLeave),
	"oncontextmenu": dom.HoverFilter(dom.EventRightMouseUp),
	"onwheel":       dom.HoverFilter(dom.EventScroll),
	"onscroll":      dom.HoverFilter(dom.EventScroll),
	"onfocus":       dom.FocusFilter(dom.EventFocusReceived),
	"onblur":        dom.FocusFilter(dom.EventFocusLost),
	"onkeydown":     dom.FocusFilter(dom.EventVirtualKeyDown),
	"onkeyup":       dom.FocusFilter(dom.EventVirtualKeyUp),
	"oninput":       dom.FocusFilter(dom.EventTextInput),
	"onload":        dom.ComponentFilter(dom.EventMount),
	"onunload":      dom.ComponentFilter(dom.EventUnmount),
	"onresize":      dom.ComponentFilter(dom.EventResize),
}

// blockTags are unknown elements that become divs; other unknown
// elements become spans.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "center": true,
	"details": true, "dialog": true, "dd": true, "dl": true, "dt": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "form": true, "header": true,
	"hgroup": true, "hr": true, "main": true, "menu": true, "nav": true, "pre": true,
	"section": true, "summary": true, "table": true, "tbody": true, "thead": true,
	"tfoot": true, "tr": true, "td": true, "th": true, "caption": true, "html": true,
}

// skipTags never produce nodes.
var skipTags = map[string]bool{
	"head": true, "meta": true, "base": true, "noscript": true, "template": true,
	"iframe": true, "object": true, "svg": true, "math": true,
}

type attr struct{ key, val string }

// converter holds the state shared by the HTML and XML front ends.
type converter struct {
	ctx     context.Context
	log     *zap.Logger
	fetch   resource.Fetcher
	handler Handler
	images  *images.Store

	doc  *Document
	body *dom.Dom
}

func newConverter(ctx context.Context, opts []Option) *converter {
	c := &converter{ctx: ctx, log: zap.NewNop(), doc: &Document{}}
	for _, o := range opts {
		o(c)
	}
	if c.fetch == nil {
		c.fetch = resource.NewFetcher("")
	}
	return c
}

// finish wraps top-level content in a body unless a body element was seen.
func (c *converter) finish(top []dom.Dom) *Document {
	if c.body != nil {
		c.doc.Body = *c.body
	} else {
		c.doc.Body = dom.Body().WithChildren(top...)
	}
	return c.doc
}

func nodeType(tag string) dom.NodeType {
	if t, ok := dom.NodeTypeFromTag(tag); ok {
		switch t {
		case dom.NodeText, dom.NodeIFrame, dom.NodeGL:
		default:
			return t
		}
	}
	if blockTags[tag] {
		return dom.NodeDiv
	}
	return dom.NodeSpan
}

func lookup(attrs []attr, key string) (string, bool) {
	for _, a := range attrs {
		if a.key == key {
			return a.val, true
		}
	}
	return "", false
}

// style records the content of a style element.
func (c *converter) style(text string) {
	c.doc.Styles = append(c.doc.Styles, text)
}

// link loads a linked stylesheet.
func (c *converter) link(attrs []attr) {
	rel, _ := lookup(attrs, "rel")
	href, ok := lookup(attrs, "href")
	if !ok {
		return
	}
	rels := strings.Fields(strings.ToLower(rel))
	if slices.Contains(rels, "match") {
		c.doc.Matches = append(c.doc.Matches, strings.TrimSpace(href))
	}
	if !slices.Contains(rels, "stylesheet") {
		return
	}
	text, err := resource.FetchCSS(c.ctx, c.fetch, strings.TrimSpace(href))
	if err != nil {
		c.log.Warn("stylesheet not loaded", zap.String("href", href), zap.Error(err))
		return
	}
	c.doc.Styles = append(c.doc.Styles, text)
}

// script records inline script text or loads an external script.
func (c *converter) script(attrs []attr, text string) {
	if src, ok := lookup(attrs, "src"); ok {
		body, _, err := c.fetch.Fetch(c.ctx, src)
		if err != nil {
			c.log.Warn("script not loaded", zap.String("src", src), zap.Error(err))
			return
		}
		text = string(body)
	}
	if strings.TrimSpace(text) != "" {
		c.doc.Scripts = append(c.doc.Scripts, text)
	}
}

// element converts one element with already converted children.
func (c *converter) element(tag string, attrs []attr, children []dom.Dom) dom.Dom {
	var d dom.Dom
	if tag == "img" {
		d = c.image(attrs)
	} else {
		d = dom.New(nodeType(tag)).WithChildren(children...)
	}
	var acc dom.AccessibilityInfo
	for _, a := range attrs {
		switch key := a.key; {
		case key == "id":
			for _, id := range strings.Fields(a.val) {
				d = d.WithID(id)
			}
		case key == "class":
			d = d.WithClass(a.val)
		case key == "style":
			decls, errs := css.ParseInlineStyle(a.val)
			for _, err := range errs {
				c.log.Warn("inline declaration dropped", zap.String("tag", tag), zap.Error(err))
			}
			d = d.WithCSS(decls...)
		case key == "key" || key == "data-key":
			d = d.WithKey(a.val)
		case key == "role":
			acc.Role = a.val
		case key == "aria-label" || key == "alt":
			acc.Label = a.val
		case key == "aria-description" || key == "title":
			acc.Description = a.val
		case strings.HasPrefix(key, "aria-") && (a.val == "true" || a.val == "false"):
			if a.val == "true" {
				acc.States = append(acc.States, strings.TrimPrefix(key, "aria-"))
			}
		case strings.HasPrefix(key, "on"):
			d = c.callback(d, key, a.val)
		}
	}
	if acc.Role != "" || acc.Label != "" || acc.Description != "" || len(acc.States) > 0 {
		d = d.WithAccessibility(acc)
	}
	return d
}

func (c *converter) callback(d dom.Dom, key, code string) dom.Dom {
	filter, ok := eventAttrs[key]
	if !ok {
		c.log.Debug("event attribute ignored", zap.String("attr", key))
		return d
	}
	if c.handler == nil {
		c.log.Warn("event attribute dropped", zap.String("attr", key), zap.Error(ErrNoHandler))
		return d
	}
	cb, data, err := c.handler(key, code)
	if err != nil {
		c.log.Warn("event attribute dropped", zap.String("attr", key), zap.Error(err))
		return d
	}
	return d.WithCallback(filter, cb, data)
}

// image sizes an img element from its attributes, then from the image
// store.
func (c *converter) image(attrs []attr) dom.Dom {
	src, _ := lookup(attrs, "src")
	w, wok := dimension(attrs, "width")
	h, hok := dimension(attrs, "height")
	if (!wok || !hok) && c.images != nil && src != "" {
		iw, ih, err := c.images.Size(c.ctx, src)
		switch {
		case err != nil:
			c.log.Warn("image size unknown", zap.String("src", src), zap.Error(err))
		case !wok && !hok:
			w, h = float64(iw), float64(ih)
		case !wok && ih > 0:
			w = h * float64(iw) / float64(ih)
		case !hok && iw > 0:
			h = w * float64(ih) / float64(iw)
		}
	}
	return dom.Img(src, w, h)
}

func dimension(attrs []attr, key string) (float64, bool) {
	v, ok := lookup(attrs, key)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return f, true
}
