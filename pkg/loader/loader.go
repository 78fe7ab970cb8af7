// Package loader turns a document URI into the layout function of an
// application window: it fetches and parses the markup, loads its styles
// and images, runs its scripts and replays their element writes on every
// regenerated page.
package loader

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"styledom/pkg/app"
	"styledom/pkg/css"
	"styledom/pkg/dom"
	"styledom/pkg/images"
	"styledom/pkg/markup"
	"styledom/pkg/resource"
	"styledom/pkg/script"
	"styledom/pkg/task"
)

// Syntax selects the markup parser.
type Syntax int

const (
	// SyntaxAuto picks XHTML for XML media types and .xhtml/.xml files.
	SyntaxAuto Syntax = iota
	SyntaxHTML
	SyntaxXHTML
)

// Option configures a load.
type Option func(*loader)

func WithLogger(l *zap.Logger) Option {
	return func(o *loader) { o.log = l }
}

// WithFetcher replaces the fetcher built from the document URI.
func WithFetcher(f resource.Fetcher) Option {
	return func(o *loader) { o.fetch = f }
}

// WithSyntax forces a parser.
func WithSyntax(s Syntax) Option {
	return func(o *loader) { o.syntax = s }
}

// WithoutScripts skips script elements and inline event attributes.
func WithoutScripts() Option {
	return func(o *loader) { o.noScripts = true }
}

type loader struct {
	log       *zap.Logger
	fetch     resource.Fetcher
	syntax    Syntax
	noScripts bool
}

// Document is a loaded page.
type Document struct {
	URI    string
	Title  string
	Body   dom.Dom
	Sheet  *css.Stylesheet
	Errors []css.ParseError
	Images *images.Store
	// Script is nil when scripts are disabled.
	Script *script.Host
	// Matches are the reference documents a reftest names, resolved
	// against the document.
	Matches []string

	reported bool
}

// Load fetches the document at uri and prepares it.
func Load(ctx context.Context, uri string, opts ...Option) (*Document, error) {
	l := newLoader(uri, opts)
	body, contentType, err := l.fetch.Fetch(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", uri, err)
	}
	if l.syntax == SyntaxAuto {
		l.syntax = detect(uri, contentType)
	}
	return l.load(ctx, uri, string(body))
}

// Parse prepares a document from source. Relative references resolve
// against base.
func Parse(ctx context.Context, base, src string, opts ...Option) (*Document, error) {
	l := newLoader(base, opts)
	if l.syntax == SyntaxAuto {
		l.syntax = detect(base, "")
	}
	return l.load(ctx, base, src)
}

func newLoader(uri string, opts []Option) *loader {
	l := &loader{log: zap.NewNop()}
	for _, o := range opts {
		o(l)
	}
	l.log = l.log.Named("loader")
	if l.fetch == nil {
		l.fetch = resource.NewFetcher(baseOf(uri), resource.WithLogger(l.log))
	}
	return l
}

func (l *loader) load(ctx context.Context, uri, src string) (*Document, error) {
	doc := &Document{URI: uri, Images: images.NewStore(l.fetch, l.log)}
	mopts := []markup.Option{
		markup.WithLogger(l.log),
		markup.WithFetcher(l.fetch),
		markup.WithImages(doc.Images),
	}
	if !l.noScripts {
		doc.Script = script.New(script.WithLogger(l.log))
		mopts = append(mopts, markup.WithHandler(doc.Script.Handler))
	}

	parse := markup.Parse
	if l.syntax == SyntaxXHTML {
		parse = markup.ParseXML
	}
	md, err := parse(ctx, src, mopts...)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", uri, err)
	}
	doc.Title, doc.Body = md.Title, md.Body
	for _, m := range md.Matches {
		doc.Matches = append(doc.Matches, resolve(uri, m))
	}
	doc.Sheet, doc.Errors = md.Stylesheet()

	if doc.Script != nil && len(md.Scripts) > 0 {
		if err := doc.Script.Run(md.Scripts...); err != nil {
			l.log.Warn("page scripts failed", zap.String("uri", uri), zap.Error(err))
		}
	}
	l.log.Info("document loaded", zap.String("uri", uri), zap.String("title", doc.Title),
		zap.Int("styles", len(md.Styles)), zap.Int("scripts", len(md.Scripts)),
		zap.Int("css_errors", len(doc.Errors)))
	return doc, nil
}

// Layout is an app.LayoutFunc building the page from the parsed body with
// script writes applied. The sheet is shared between calls so that
// regenerating restyles only what scripts changed. Parse errors go with
// the first page only.
func (d *Document) Layout(_ any, _ app.LayoutInfo) app.Page {
	body := d.Body
	if d.Script != nil {
		body = d.Script.Apply(body)
	}
	page := app.NewPage(body, d.Sheet)
	if !d.reported {
		page.Errors = d.Errors
		d.reported = true
	}
	return page
}

// Bind routes timers that page scripts created outside of callbacks to
// host, normally the window showing the document.
func (d *Document) Bind(host task.Host) {
	if d.Script != nil {
		d.Script.Bind(host)
	}
}

// WindowTitle returns the document title, or the last element of the URI.
func (d *Document) WindowTitle() string {
	if d.Title != "" {
		return d.Title
	}
	if u, err := url.Parse(d.URI); err == nil && u.Path != "" {
		return filepath.Base(u.Path)
	}
	return d.URI
}

func detect(uri, contentType string) Syntax {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch {
		case mt == "application/xhtml+xml", mt == "text/xml", mt == "application/xml":
			return SyntaxXHTML
		case mt == "text/html":
			return SyntaxHTML
		}
	}
	if u, err := url.Parse(uri); err == nil {
		switch strings.ToLower(filepath.Ext(u.Path)) {
		case ".xhtml", ".xht", ".xml":
			return SyntaxXHTML
		}
	}
	return SyntaxHTML
}

// resolve makes ref absolute against the document at uri.
func resolve(uri, ref string) string {
	base := baseOf(uri)
	switch {
	case base == "", resource.IsDataURI(ref), resource.IsNetworkURL(ref), filepath.IsAbs(ref):
		return ref
	case resource.IsNetworkURL(base):
		return resource.ResolveURL(base, ref)
	}
	return filepath.Join(base, ref)
}

// baseOf returns the URI relative references of the document resolve
// against: the URL itself or the directory of a file.
func baseOf(uri string) string {
	switch {
	case uri == "", resource.IsDataURI(uri):
		return ""
	case resource.IsNetworkURL(uri):
		return uri
	}
	return filepath.Dir(strings.TrimPrefix(uri, "file://"))
}
