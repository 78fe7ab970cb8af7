package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"styledom/pkg/app"
	"styledom/pkg/config"
	"styledom/pkg/dom"
	"styledom/pkg/geom"
	"styledom/pkg/task"
	"styledom/pkg/text"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const clickPage = `<!doctype html>
<html><head><title>Clicks</title>
<style>body { margin: 0 } #b { height: 20px }</style>
<script>var loaded = true; setTimeout(function () { document.getElementById("out").textContent = "later"; }, 50);</script>
</head><body>
<div id="b" onclick="document.getElementById('out').textContent = 'clicked'">press</div>
<p id="out">idle</p>
</body></html>`

// open shows doc in a window over a manual clock.
func open(t *testing.T, doc *Document) (*app.Window, *task.ManualClock) {
	t.Helper()
	clock := task.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	a, err := app.New(nil, config.Default(), doc.Layout,
		app.WithClock(clock), app.WithFonts(text.FixedProvider{}), app.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	w, err := a.OpenWindow(app.WindowOptions{Title: doc.WindowTitle(), Size: geom.Size{Width: 200, Height: 100}})
	require.NoError(t, err)
	doc.Bind(w)
	t.Cleanup(func() { require.NoError(t, a.Shutdown(context.Background())) })
	return w, clock
}

func frame(t *testing.T, w *app.Window, clock *task.ManualClock) app.FrameStats {
	t.Helper()
	stats, err := w.Frame(clock.Now())
	require.NoError(t, err)
	return stats
}

func texts(w *app.Window) []string { return pageTexts(w.Page()) }

func TestParse_ClickRegenerates(t *testing.T) {
	doc, err := Parse(context.Background(), "", clickPage, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	assert.Equal(t, "Clicks", doc.WindowTitle())
	assert.Equal(t, true, doc.Script.Get("loaded"))

	w, clock := open(t, doc)
	frame(t, w, clock)
	assert.Contains(t, texts(w), "idle")

	w.Dispatch(dom.Event{Type: dom.EventLeftMouseUp, Position: geom.Point{X: 5, Y: 5}})
	frame(t, w, clock)
	assert.Contains(t, texts(w), "clicked")
	assert.NotContains(t, texts(w), "idle")
}

func TestParse_PageTimersRunAfterBind(t *testing.T) {
	doc, err := Parse(context.Background(), "", clickPage)
	require.NoError(t, err)
	w, clock := open(t, doc)
	frame(t, w, clock)
	assert.Equal(t, 1, w.Timers().Len())

	clock.Advance(50 * time.Millisecond)
	frame(t, w, clock)
	assert.Contains(t, texts(w), "later")
	assert.Equal(t, 0, w.Timers().Len())
}

func TestParse_WithoutScripts(t *testing.T) {
	doc, err := Parse(context.Background(), "", clickPage, WithoutScripts())
	require.NoError(t, err)
	assert.Nil(t, doc.Script)

	w, clock := open(t, doc)
	frame(t, w, clock)
	w.Dispatch(dom.Event{Type: dom.EventLeftMouseUp, Position: geom.Point{X: 5, Y: 5}})
	frame(t, w, clock)
	assert.Contains(t, texts(w), "idle")
}

func TestLayout_SharesSheetAndReportsErrorsOnce(t *testing.T) {
	doc, err := Parse(context.Background(), "", `<style>p { color: red } div..x { color: red }</style><p>x</p>`)
	require.NoError(t, err)
	require.NotEmpty(t, doc.Errors)

	first := doc.Layout(nil, app.LayoutInfo{})
	second := doc.Layout(nil, app.LayoutInfo{})
	assert.Same(t, first.Sheet, second.Sheet)
	assert.NotEmpty(t, first.Errors)
	assert.Empty(t, second.Errors)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "site.css"), []byte(`p { width: 10px }`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.xhtml"), []byte(
		`<html xmlns="http://www.w3.org/1999/xhtml"><head><link rel="stylesheet" href="site.css"/></head>`+
			`<body><p>a&nbsp;b</p></body></html>`), 0o644))

	doc, err := Load(context.Background(), filepath.Join(dir, "index.xhtml"))
	require.NoError(t, err)
	assert.Equal(t, "index.xhtml", doc.WindowTitle())
	require.NotNil(t, doc.Sheet)
	assert.Len(t, doc.Sheet.Rules, 1)

	page := doc.Layout(nil, app.LayoutInfo{})
	assert.Contains(t, pageTexts(page), "a\u00a0b")
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.html"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func pageTexts(p app.Page) []string {
	var out []string
	for i := range p.Dom.Len() {
		if n := p.Dom.Ptr(dom.NodeId(i)); n.Type == dom.NodeText {
			out = append(out, n.Text)
		}
	}
	return out
}

func TestDetect(t *testing.T) {
	assert.Equal(t, SyntaxXHTML, detect("x.html", "application/xhtml+xml; charset=utf-8"))
	assert.Equal(t, SyntaxHTML, detect("x.xhtml", "text/html"))
	assert.Equal(t, SyntaxXHTML, detect("https://example.com/doc.xhtml?v=1", ""))
	assert.Equal(t, SyntaxHTML, detect("index.htm", ""))
}

func TestBaseOf(t *testing.T) {
	assert.Equal(t, "", baseOf("data:text/html,x"))
	assert.Equal(t, "https://example.com/a/b.html", baseOf("https://example.com/a/b.html"))
	assert.Equal(t, filepath.Join("site", "pages"), baseOf("file://"+filepath.Join("site", "pages", "x.html")))
}

func TestResolveMatches(t *testing.T) {
	doc, err := Parse(context.Background(), "https://example.com/css/test.html", `<link rel="match" href="ref/test-ref.html"><p>x</p>`)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/css/ref/test-ref.html"}, doc.Matches)

	assert.Equal(t, filepath.Join("tests", "ref.html"), resolve(filepath.Join("tests", "a.html"), "ref.html"))
	assert.Equal(t, "data:text/html,x", resolve("a.html", "data:text/html,x"))
}
