// Package resource loads the documents, stylesheets and images a page
// refers to: data URIs, local files and HTTP(S) URLs.
package resource

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	ErrUnsupportedScheme = errors.New("unsupported URI scheme")
	ErrBadDataURI        = errors.New("malformed data URI")
	ErrUnexpectedType    = errors.New("unexpected content type")
)

const userAgent = "styledom/1.0 (compatible; Go)"

// Fetcher retrieves resources by URI.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (body []byte, contentType string, err error)
}

// Option configures a DefaultFetcher.
type Option func(*DefaultFetcher)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *DefaultFetcher) { f.log = l.Named("resource") }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *DefaultFetcher) { f.client = c }
}

// WithRateLimit caps network requests per second; burst requests may go
// out at once.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(f *DefaultFetcher) { f.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// DefaultFetcher loads data URIs, files and HTTP(S) URLs. Relative URIs
// are resolved against the base, which is a URL or a directory.
type DefaultFetcher struct {
	base    string
	client  *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewFetcher returns a fetcher resolving relative URIs against base.
func NewFetcher(base string, opts ...Option) *DefaultFetcher {
	f := &DefaultFetcher{
		base:    base,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Inf, 1),
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Base returns the base URI.
func (f *DefaultFetcher) Base() string { return f.base }

// Resolve returns uri made absolute against the base.
func (f *DefaultFetcher) Resolve(uri string) string {
	switch {
	case IsDataURI(uri), IsNetworkURL(uri), strings.HasPrefix(uri, "file://"), f.base == "":
		return uri
	case IsNetworkURL(f.base):
		return ResolveURL(f.base, uri)
	case filepath.IsAbs(uri):
		return uri
	}
	return filepath.Join(strings.TrimPrefix(f.base, "file://"), uri)
}

// Fetch retrieves the resource at uri.
func (f *DefaultFetcher) Fetch(ctx context.Context, uri string) ([]byte, string, error) {
	resolved := f.Resolve(uri)
	switch {
	case IsDataURI(resolved):
		return DecodeDataURI(resolved)
	case IsNetworkURL(resolved):
		return f.fetchHTTP(ctx, resolved)
	case strings.Contains(resolved, "://") && !strings.HasPrefix(resolved, "file://"):
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, resolved)
	}
	path := strings.TrimPrefix(resolved, "file://")
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", path, err)
	}
	return body, mime.TypeByExtension(filepath.Ext(path)), nil
}

func (f *DefaultFetcher) fetchHTTP(ctx context.Context, rawURL string) ([]byte, string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, rawURL)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading response body: %w", err)
	}
	f.log.Debug("fetched", zap.String("url", rawURL), zap.Int("bytes", len(body)), zap.Duration("took", time.Since(start)))
	return body, resp.Header.Get("Content-Type"), nil
}

// FetchCSS fetches a stylesheet and returns its text.
func FetchCSS(ctx context.Context, f Fetcher, uri string) (string, error) {
	body, contentType, err := f.Fetch(ctx, uri)
	if err != nil {
		return "", err
	}
	ct := strings.ToLower(contentType)
	if ct != "" && !strings.HasPrefix(ct, "text/") && !strings.Contains(ct, "css") {
		return "", fmt.Errorf("%w for CSS: %s", ErrUnexpectedType, contentType)
	}
	return string(body), nil
}

// ResolveURL resolves a possibly relative reference against a base URL.
// An absolute ref is returned as is.
func ResolveURL(base, ref string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

// IsNetworkURL reports whether s is an HTTP or HTTPS URL.
func IsNetworkURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// IsDataURI reports whether s is a data: URI.
func IsDataURI(s string) bool { return strings.HasPrefix(s, "data:") }

// DecodeDataURI returns the payload and media type of a data: URI.
func DecodeDataURI(s string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, "", ErrBadDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("%w: no payload", ErrBadDataURI)
	}
	mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
	if mediaType == "" {
		mediaType = "text/plain;charset=US-ASCII"
	}
	if !isBase64 {
		text, err := url.PathUnescape(payload)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrBadDataURI, err)
		}
		return []byte(text), mediaType, nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrBadDataURI, err)
	}
	return data, mediaType, nil
}
