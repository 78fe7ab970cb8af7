package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"styledom/pkg/config"
)

const page = `<html><head><style>body { margin: 0 } div { height: 10px; background-color: blue }</style></head>
<body><div id="a"></div></body></html>`

func writePage(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestRender_WritesPNG(t *testing.T) {
	in := writePage(t, "page.html", page)
	out := filepath.Join(t.TempDir(), "page.png")

	stdout, err := run(t, "render", "--width", "40", "--height", "30", "-o", out, in)
	require.NoError(t, err)
	assert.Contains(t, stdout, "40x30")

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 30, img.Bounds().Dy())
	_, _, b, _ := img.At(2, 2).RGBA()
	assert.Equal(t, uint32(0xffff), b)
}

func TestDump_Parts(t *testing.T) {
	in := writePage(t, "page.html", page)
	stdout, err := run(t, "dump", "--show", "dom,display", in)
	require.NoError(t, err)
	assert.Contains(t, stdout, "== dom")
	assert.Contains(t, stdout, "div#a")
	assert.Contains(t, stdout, "== display")
	assert.NotContains(t, stdout, "== boxes")

	_, err = run(t, "dump", "--show", "nope", in)
	assert.ErrorContains(t, err, `unknown part "nope"`)
}

func TestDiff_ReportsMountsAndChanges(t *testing.T) {
	a := writePage(t, "a.html", page)
	b := writePage(t, "b.html", `<html><head><style>body { margin: 0 } div { height: 10px; background-color: blue }</style></head>
<body><div id="a"></div><p>new</p></body></html>`)

	stdout, err := run(t, "diff", a, b)
	require.NoError(t, err)
	assert.Contains(t, stdout, "mounted (")
	assert.Contains(t, stdout, `"new"`)

	stdout, err = run(t, "diff", a, a)
	require.NoError(t, err)
	assert.Contains(t, stdout, "identical")
}

func TestRoot_BadConfig(t *testing.T) {
	cfg := writePage(t, "config.yaml", "text:\n  shaper: nope\n")
	_, err := run(t, "--config", cfg, "dump", writePage(t, "page.html", page))
	assert.ErrorIs(t, err, config.ErrInvalidShaper)

	_, err = run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "dump", "x.html")
	assert.Error(t, err)
}

func TestRender_MissingDocument(t *testing.T) {
	_, err := run(t, "render", filepath.Join(t.TempDir(), "none.html"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReftest(t *testing.T) {
	dir := t.TempDir()
	ref := filepath.Join(dir, "ref.html")
	require.NoError(t, os.WriteFile(ref, []byte(`<body style="margin: 0"><div style="height: 10px; background-color: blue"></div></body>`), 0o644))
	pass := filepath.Join(dir, "pass.html")
	require.NoError(t, os.WriteFile(pass, []byte(`<link rel="match" href="ref.html">`+
		`<style>body { margin: 0 } p { margin: 0; height: 10px; background-color: blue }</style><p></p>`), 0o644))
	fail := filepath.Join(dir, "fail.html")
	require.NoError(t, os.WriteFile(fail, []byte(`<style>body { margin: 0 } p { margin: 0; height: 10px; background-color: red }</style><p></p>`), 0o644))

	stdout, err := run(t, "reftest", "--width", "20", "--height", "20", pass)
	require.NoError(t, err)
	assert.Contains(t, stdout, "PASS")

	diffPNG := filepath.Join(dir, "diff.png")
	stdout, err = run(t, "reftest", "--width", "20", "--height", "20", "--diff-out", diffPNG, fail, ref)
	assert.ErrorIs(t, err, errMismatch)
	assert.Contains(t, stdout, "FAIL")
	assert.FileExists(t, diffPNG)

	_, err = run(t, "reftest", fail)
	assert.ErrorContains(t, err, "names no reference")
}
