package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"styledom/pkg/css"
	"styledom/pkg/displaylist"
	"styledom/pkg/dom"
	"styledom/pkg/geom"
	"styledom/pkg/images"
	"styledom/pkg/layout"
	"styledom/pkg/style"
	"styledom/pkg/text"
)

var (
	red  = css.Color{R: 255, A: 255}
	blue = css.Color{B: 255, A: 255}
)

func item(b geom.Rect, c displaylist.Content) displaylist.Item {
	return displaylist.Item{Node: 1, Bounds: b, Transform: displaylist.Identity, Opacity: 1, Content: c}
}

func rasterize(t *testing.T, r *Renderer, items ...displaylist.Item) *image.RGBA {
	t.Helper()
	img, err := r.Rasterize(&displaylist.List{Viewport: geom.Size{Width: 60, Height: 60}, Items: items})
	require.NoError(t, err)
	return img
}

func rgba(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

var white = color.RGBA{255, 255, 255, 255}

func TestRasterize_Rect(t *testing.T) {
	img := rasterize(t, NewRenderer(text.FixedProvider{}),
		item(geom.Rect{X: 10, Y: 10, Width: 20, Height: 20}, displaylist.Rect{Color: red}))

	assert.Equal(t, color.RGBA{255, 0, 0, 255}, rgba(img, 15, 15))
	assert.Equal(t, white, rgba(img, 5, 5))
	assert.Equal(t, white, rgba(img, 35, 35))
}

func TestRasterize_ClipAndTransform(t *testing.T) {
	clipped := item(geom.Rect{Width: 40, Height: 40}, displaylist.Rect{Color: red})
	clipped.Clip, clipped.Clipped = geom.Rect{Width: 20, Height: 20}, true

	rotated := item(geom.Rect{X: 10, Y: 30, Width: 20, Height: 10}, displaylist.Rect{Color: blue})
	// Quarter turn, then moved right.
	rotated.Transform = displaylist.Translation(60, 0).Mul(displaylist.Matrix{0, 1, -1, 0, 0, 0})

	img := rasterize(t, NewRenderer(text.FixedProvider{}), clipped, rotated)

	assert.Equal(t, color.RGBA{255, 0, 0, 255}, rgba(img, 10, 10))
	assert.Equal(t, white, rgba(img, 30, 5))
	// x' = 60 - y, y' = x: the rect lands on [20,30]x[10,30].
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, rgba(img, 25, 20))
	assert.Equal(t, white, rgba(img, 15, 35))
}

func TestRasterize_Border(t *testing.T) {
	border := displaylist.Border{
		Widths: geom.Edges{Top: 4, Right: 4, Bottom: 4, Left: 4},
		Colors: [4]css.Color{blue, blue, red, red},
		Styles: [4]css.BorderStyle{css.BorderStyleSolid, css.BorderStyleSolid, css.BorderStyleSolid, css.BorderStyleNone},
	}
	img := rasterize(t, NewRenderer(text.FixedProvider{}), item(geom.Rect{X: 10, Y: 10, Width: 40, Height: 40}, border))

	assert.Equal(t, color.RGBA{0, 0, 255, 255}, rgba(img, 30, 11), "top")
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, rgba(img, 48, 30), "right")
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, rgba(img, 30, 48), "bottom")
	assert.Equal(t, white, rgba(img, 11, 30), "left has no style")
	assert.Equal(t, white, rgba(img, 30, 30), "inside")
}

func TestRasterize_Opacity(t *testing.T) {
	it := item(geom.Rect{Width: 60, Height: 60}, displaylist.Rect{Color: red})
	it.Opacity = 0.5
	c := rgba(rasterize(t, NewRenderer(text.FixedProvider{}), it), 30, 30)

	assert.Equal(t, uint8(255), c.R)
	assert.InDelta(t, 128, int(c.G), 2)
}

func TestRasterize_Gradient(t *testing.T) {
	g := css.Gradient{Type: css.GradientLinear, Angle: 180, Stops: []css.ColorStop{{Color: red}, {Color: blue}}}
	img := rasterize(t, NewRenderer(text.FixedProvider{}), item(geom.Rect{Width: 60, Height: 60}, displaylist.Gradient{Gradient: g}))

	top, bottom := rgba(img, 30, 1), rgba(img, 30, 58)
	assert.Greater(t, top.R, top.B)
	assert.Greater(t, bottom.B, bottom.R)
}

func TestRasterize_ImagesFromStore(t *testing.T) {
	store := images.NewStore(nil, nil)
	green := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := range 2 {
		for x := range 2 {
			green.Set(x, y, color.RGBA{0, 255, 0, 255})
		}
	}
	store.Add("green", green)
	r := NewRenderer(text.FixedProvider{}, WithImages(store))

	img := rasterize(t, r,
		item(geom.Rect{X: 20, Y: 20, Width: 20, Height: 20}, displaylist.Image{Name: "green"}),
		item(geom.Rect{X: 0, Y: 0, Width: 10, Height: 10}, displaylist.Image{Name: "missing"}),
	)
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, rgba(img, 30, 30))
	assert.Equal(t, white, rgba(img, 5, 5))
}

func TestRasterize_CustomPainter(t *testing.T) {
	var got geom.Rect
	paint := CustomPainter(func(b geom.Rect, data any) image.Image {
		got = b
		img := image.NewUniform(color.RGBA{0, 0, 255, 255})
		return &sized{img, image.Rect(0, 0, 4, 4)}
	})
	b := geom.Rect{X: 10, Y: 10, Width: 20, Height: 20}
	img := rasterize(t, NewRenderer(text.FixedProvider{}),
		item(b, displaylist.Custom{Type: dom.NodeGL, Content: &dom.CustomContent{Callback: paint}}),
		item(geom.Rect{X: 40, Y: 40, Width: 10, Height: 10}, displaylist.Custom{Type: dom.NodeIFrame}),
	)

	assert.Equal(t, b, got)
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, rgba(img, 20, 20))
	assert.Equal(t, color.RGBA{220, 220, 220, 255}, rgba(img, 45, 45), "placeholder")
}

// sized bounds a uniform image.
type sized struct {
	*image.Uniform
	r image.Rectangle
}

func (s *sized) Bounds() image.Rectangle { return s.r }

func TestRenderer_PaintAndEncode(t *testing.T) {
	r := NewRenderer(text.FixedProvider{}, WithBackground(blue), WithScale(2))
	var buf bytes.Buffer
	assert.Error(t, r.WritePNG(&buf), "nothing painted yet")

	require.NoError(t, r.Paint(&displaylist.List{Viewport: geom.Size{Width: 10, Height: 5}}))
	require.NoError(t, r.WritePNG(&buf))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 20, 10), decoded.Bounds())
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, rgba(decoded, 3, 3))

	path := filepath.Join(t.TempDir(), "out.png")
	require.NoError(t, r.SavePNG(path))
	res, err := CompareFiles(path, path, DefaultCompareOptions())
	require.NoError(t, err)
	assert.True(t, res.Match)

	assert.Error(t, r.Paint(&displaylist.List{}), "empty viewport")
}

func TestRenderer_LaidOutPage(t *testing.T) {
	sheet, errs := css.ParseStylesheet("body { margin: 0 } div { height: 20px; background-color: red; border-bottom: 5px solid blue }")
	require.Empty(t, errs)
	styled := style.NewResolver().Cascade(dom.Flatten(dom.Body().WithChildren(
		dom.Div(),
		dom.P().WithChild(dom.Text("hello")),
	)), sheet, style.UIState{})
	l := text.NewLayouter(text.FixedProvider{}, text.WithShaper(text.FixedShaper{}))
	tree := layout.NewEngine(text.FixedProvider{}, layout.WithTextLayouter(l)).Layout(styled, geom.Size{Width: 60, Height: 60})

	r := NewRenderer(text.FixedProvider{})
	require.NoError(t, r.Paint(displaylist.Build(tree)))
	img := r.Image()
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, rgba(img, 30, 10))
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, rgba(img, 30, 22))
}

func TestCompare(t *testing.T) {
	a := image.NewRGBA(image.Rect(0, 0, 4, 4))
	b := image.NewRGBA(image.Rect(0, 0, 4, 4))
	b.Set(1, 1, color.RGBA{255, 0, 0, 255})

	res, err := Compare(a, a, DefaultCompareOptions())
	require.NoError(t, err)
	assert.True(t, res.Match)

	res, err = Compare(a, b, CompareOptions{WantDiff: true})
	require.NoError(t, err)
	assert.False(t, res.Match)
	assert.Equal(t, 1, res.DifferentPixels)
	assert.Equal(t, 255, res.MaxDifference)
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, rgba(res.Diff, 1, 1))

	res, err = Compare(a, b, CompareOptions{MaxDifferentPercent: 10})
	require.NoError(t, err)
	assert.True(t, res.Match, "one pixel in sixteen")

	_, err = Compare(a, image.NewRGBA(image.Rect(0, 0, 2, 2)), DefaultCompareOptions())
	assert.Error(t, err)
}
