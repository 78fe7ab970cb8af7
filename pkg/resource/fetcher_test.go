package resource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDataURI(t *testing.T) {
	body, ct, err := DecodeDataURI("data:text/css;base64,cCB7IGNvbG9yOiByZWQgfQ==")
	require.NoError(t, err)
	assert.Equal(t, "p { color: red }", string(body))
	assert.Equal(t, "text/css", ct)

	body, ct, err = DecodeDataURI("data:,a%20b")
	require.NoError(t, err)
	assert.Equal(t, "a b", string(body))
	assert.Equal(t, "text/plain;charset=US-ASCII", ct)

	for _, bad := range []string{"not-data", "data:image/png;base64", "data:image/png;base64,!!!"} {
		_, _, err := DecodeDataURI(bad)
		assert.ErrorIs(t, err, ErrBadDataURI, bad)
	}
}

func TestFetcher_Files(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "site.css"), []byte("body { margin: 0 }"), 0o644))
	f := NewFetcher(dir)

	body, ct, err := f.Fetch(context.Background(), "site.css")
	require.NoError(t, err)
	assert.Equal(t, "body { margin: 0 }", string(body))
	assert.Contains(t, ct, "text/css")

	_, _, err = f.Fetch(context.Background(), "file://"+filepath.Join(dir, "site.css"))
	assert.NoError(t, err)
	_, _, err = f.Fetch(context.Background(), "missing.css")
	assert.Error(t, err)
	_, _, err = f.Fetch(context.Background(), "ftp://example.com/x")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}

func TestFetcher_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/css/site.css":
			assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
			w.Header().Set("Content-Type", "text/css")
			_, _ = w.Write([]byte("p { color: blue }"))
		case "/blob":
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write([]byte{1, 2, 3})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	f := NewFetcher(srv.URL+"/css/index.html", WithRateLimit(100, 2))

	css, err := FetchCSS(context.Background(), f, "site.css")
	require.NoError(t, err)
	assert.Equal(t, "p { color: blue }", css)

	_, err = FetchCSS(context.Background(), f, "/blob")
	assert.ErrorIs(t, err, ErrUnexpectedType)

	_, _, err = f.Fetch(context.Background(), "/nope")
	assert.ErrorContains(t, err, "HTTP 404")
}

func TestFetcher_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := NewFetcher("", WithRateLimit(1, 1)).Fetch(ctx, "http://127.0.0.1:1/x")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "https://a.test/x/y.css", NewFetcher("https://a.test/x/index.html").Resolve("y.css"))
	assert.Equal(t, filepath.Join("/srv/site", "img/a.png"), NewFetcher("/srv/site").Resolve("img/a.png"))
	assert.Equal(t, "data:,x", NewFetcher("/srv").Resolve("data:,x"))
	assert.Equal(t, "rel.css", NewFetcher("").Resolve("rel.css"))
}
