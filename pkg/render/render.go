// Package render rasterizes display lists with gg.
package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"go.uber.org/zap"

	"styledom/pkg/css"
	"styledom/pkg/displaylist"
	"styledom/pkg/geom"
	"styledom/pkg/images"
	"styledom/pkg/text"
)

// CustomPainter draws the content of an iframe or GL node. A node whose
// custom callback has this type is painted by it; other callbacks get a
// placeholder.
type CustomPainter func(bounds geom.Rect, data any) image.Image

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) { r.log = l.Named("render") }
}

// WithImages sets the store images are loaded from.
func WithImages(s *images.Store) Option {
	return func(r *Renderer) { r.images = s }
}

// WithBackground sets the color the canvas is cleared to.
func WithBackground(c css.Color) Option {
	return func(r *Renderer) { r.background = c }
}

// WithScale renders at scale device pixels per logical pixel.
func WithScale(s float64) Option {
	return func(r *Renderer) { r.scale = s }
}

// Renderer is a displaylist.PaintSink drawing into an RGBA image.
type Renderer struct {
	fonts      text.FontProvider
	images     *images.Store
	background css.Color
	scale      float64
	log        *zap.Logger

	mu   sync.Mutex
	last image.Image
}

var _ displaylist.PaintSink = (*Renderer)(nil)

// NewRenderer returns a renderer resolving fonts through fonts.
func NewRenderer(fonts text.FontProvider, opts ...Option) *Renderer {
	r := &Renderer{fonts: fonts, background: css.White, scale: 1, log: zap.NewNop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Paint rasterizes l. The result is available from Image.
func (r *Renderer) Paint(l *displaylist.List) error {
	img, err := r.Rasterize(l)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.last = img
	r.mu.Unlock()
	return nil
}

// Image returns the last painted frame, nil before the first paint.
func (r *Renderer) Image() image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// WritePNG encodes the last frame.
func (r *Renderer) WritePNG(w io.Writer) error {
	img := r.Image()
	if img == nil {
		return fmt.Errorf("render: nothing painted")
	}
	return gg.NewContextForImage(img).EncodePNG(w)
}

// SavePNG writes the last frame to a file.
func (r *Renderer) SavePNG(path string) error {
	img := r.Image()
	if img == nil {
		return fmt.Errorf("render: nothing painted")
	}
	return gg.SavePNG(path, img)
}

// Rasterize draws a display list into a new image the size of its
// viewport.
func (r *Renderer) Rasterize(l *displaylist.List) (*image.RGBA, error) {
	w := int(math.Ceil(l.Viewport.Width * r.scale))
	h := int(math.Ceil(l.Viewport.Height * r.scale))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("render: empty viewport %gx%g", l.Viewport.Width, l.Viewport.Height)
	}
	p := &painter{r: r, dc: gg.NewContext(w, h)}
	p.dc.SetColor(r.background.RGBA())
	p.dc.Clear()
	for i := range l.Items {
		p.item(&l.Items[i])
	}
	r.log.Debug("rasterized", zap.Int("items", len(l.Items)), zap.Int("width", w), zap.Int("height", h))
	return p.dc.Image().(*image.RGBA), nil
}

type painter struct {
	r  *Renderer
	dc *gg.Context
	// alpha is the opacity of the current item.
	alpha float64
}

func (p *painter) item(it *displaylist.Item) {
	dc := p.dc
	dc.Identity()
	dc.ResetClip()
	dc.Scale(p.r.scale, p.r.scale)
	if it.Clipped {
		dc.DrawRectangle(it.Clip.X, it.Clip.Y, it.Clip.Width, it.Clip.Height)
		dc.Clip()
	}
	if !p.transform(it.Transform) {
		return
	}
	p.alpha = it.Opacity
	b := it.Bounds

	switch c := it.Content.(type) {
	case displaylist.Rect:
		p.setColor(c.Color)
		p.shape(b, c.Radii)
		dc.Fill()
	case displaylist.Gradient:
		p.gradient(b, c)
	case displaylist.BoxShadow:
		if c.Shadow.Inset {
			p.insetShadow(b, c)
		} else {
			p.boxShadow(b, c)
		}
	case displaylist.Border:
		p.border(b, c)
	case displaylist.Text:
		p.text(b, c)
	case displaylist.Image:
		p.image(b, c.Name)
	case displaylist.Scroll:
		p.scrollbars(b, c)
	case displaylist.Custom:
		p.custom(b, c)
	}
}

// transform multiplies the item transform into the context. gg has no
// matrix setter, so the matrix is applied as translate, rotate, shear and
// scale. It returns false for a degenerate matrix.
func (p *painter) transform(m displaylist.Matrix) bool {
	if m.IsIdentity() {
		return true
	}
	a, b, c, d, e, f := m[0], m[1], m[2], m[3], m[4], m[5]
	sx := math.Hypot(a, b)
	if sx == 0 {
		return false
	}
	sy := (a*d - b*c) / sx
	if sy == 0 {
		return false
	}
	k := (a*c + b*d) / sx
	p.dc.Translate(e, f)
	p.dc.Rotate(math.Atan2(b, a))
	p.dc.Shear(k/sy, 0)
	p.dc.Scale(sx, sy)
	return true
}

func (p *painter) setColor(c css.Color) {
	p.dc.SetRGBA(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, float64(c.A)/255*p.alpha)
}

func (p *painter) faded(c css.Color) color.NRGBA {
	out := c.RGBA()
	out.A = uint8(math.Round(float64(c.A) * p.alpha))
	return out
}

// shape adds a box outline to the path. gg rounds all corners alike, so
// the largest radius wins.
func (p *painter) shape(b geom.Rect, radii [4]float64) {
	r := max(radii[0], radii[1], radii[2], radii[3])
	if r > 0 {
		r = min(r, b.Width/2, b.Height/2)
		p.dc.DrawRoundedRectangle(b.X, b.Y, b.Width, b.Height, r)
		return
	}
	p.dc.DrawRectangle(b.X, b.Y, b.Width, b.Height)
}

func (p *painter) gradient(b geom.Rect, g displaylist.Gradient) {
	var grad gg.Gradient
	var length float64
	cx, cy := b.X+b.Width/2, b.Y+b.Height/2
	switch g.Gradient.Type {
	case css.GradientRadial:
		length = math.Hypot(b.Width/2, b.Height/2)
		grad = gg.NewRadialGradient(cx, cy, 0, cx, cy, length)
	default:
		// 0deg points up, angles turn clockwise.
		rad := g.Gradient.Angle * math.Pi / 180
		dx, dy := math.Sin(rad), -math.Cos(rad)
		length = math.Abs(b.Width*dx) + math.Abs(b.Height*dy)
		grad = gg.NewLinearGradient(cx-dx*length/2, cy-dy*length/2, cx+dx*length/2, cy+dy*length/2)
	}
	for _, s := range g.Gradient.ResolveStops(length) {
		grad.AddColorStop(s.Offset, p.faded(s.Color))
	}
	p.dc.SetFillStyle(grad)
	p.shape(b, g.Radii)
	p.dc.Fill()
}

// boxShadow approximates the blur with rings of decreasing alpha.
func (p *painter) boxShadow(b geom.Rect, c displaylist.BoxShadow) {
	s := c.Shadow
	r := max(c.Radii[0], c.Radii[1], c.Radii[2], c.Radii[3])
	base := b.Translate(s.OffsetX, s.OffsetY).ExpandedBy(geom.Edges{Top: s.Spread, Right: s.Spread, Bottom: s.Spread, Left: s.Spread})
	if s.Blur <= 0 {
		p.setColor(s.Color)
		p.shape(base, c.Radii)
		p.dc.Fill()
		return
	}
	steps := min(max(int(s.Blur/2), 1), 10)
	alpha := p.alpha
	for i := range steps {
		offset := float64(i) * 2
		p.alpha = alpha / float64(steps) * (1 - float64(i)/float64(steps))
		p.setColor(s.Color)
		ring := base.ExpandedBy(geom.Edges{Top: offset, Right: offset, Bottom: offset, Left: offset})
		if r > 0 {
			p.dc.DrawRoundedRectangle(ring.X, ring.Y, ring.Width, ring.Height, r+offset)
		} else {
			p.dc.DrawRectangle(ring.X, ring.Y, ring.Width, ring.Height)
		}
		p.dc.Fill()
	}
	p.alpha = alpha
}

// insetShadow fills the box outside the offset inner rectangle.
func (p *painter) insetShadow(b geom.Rect, c displaylist.BoxShadow) {
	s := c.Shadow
	p.shape(b, c.Radii)
	p.dc.Clip()
	inner := b.Translate(s.OffsetX, s.OffsetY).ShrunkBy(geom.Edges{Top: s.Spread, Right: s.Spread, Bottom: s.Spread, Left: s.Spread})
	p.setColor(s.Color)
	p.dc.SetFillRuleEvenOdd()
	p.dc.DrawRectangle(b.X-s.Blur, b.Y-s.Blur, b.Width+2*s.Blur, b.Height+2*s.Blur)
	p.dc.DrawRectangle(inner.X, inner.Y, inner.Width, inner.Height)
	p.dc.Fill()
	p.dc.SetFillRuleWinding()
}

// border draws each side as a trapezoid so corners miter. Rounded borders
// are stroked along the middle of the top side.
func (p *painter) border(b geom.Rect, c displaylist.Border) {
	w := c.Widths
	if r := max(c.Radii[0], c.Radii[1], c.Radii[2], c.Radii[3]); r > 0 {
		if w.Top <= 0 || c.Colors[0].A == 0 {
			return
		}
		p.setColor(c.Colors[0])
		p.dc.SetLineWidth(w.Top)
		half := b.ShrunkBy(geom.Edges{Top: w.Top / 2, Right: w.Top / 2, Bottom: w.Top / 2, Left: w.Top / 2})
		p.dc.DrawRoundedRectangle(half.X, half.Y, half.Width, half.Height, max(r-w.Top/2, 0))
		p.dc.Stroke()
		return
	}

	outer := b
	inner := b.ShrunkBy(w)
	o := [4]gg.Point{{X: outer.X, Y: outer.Y}, {X: outer.Right(), Y: outer.Y}, {X: outer.Right(), Y: outer.Bottom()}, {X: outer.X, Y: outer.Bottom()}}
	in := [4]gg.Point{{X: inner.X, Y: inner.Y}, {X: inner.Right(), Y: inner.Y}, {X: inner.Right(), Y: inner.Bottom()}, {X: inner.X, Y: inner.Bottom()}}
	widths := [4]float64{w.Top, w.Right, w.Bottom, w.Left}
	for side := range 4 {
		if widths[side] <= 0 || c.Colors[side].A == 0 || c.Styles[side] == css.BorderStyleNone {
			continue
		}
		p.setColor(c.Colors[side])
		a, z := side, (side+1)%4
		switch c.Styles[side] {
		case css.BorderStyleDashed, css.BorderStyleDotted:
			p.brokenSide(o[a], o[z], in[a], in[z], widths[side], c.Styles[side])
		case css.BorderStyleDouble:
			third := func(u, v gg.Point, t float64) gg.Point {
				return gg.Point{X: u.X + (v.X-u.X)*t, Y: u.Y + (v.Y-u.Y)*t}
			}
			p.trapezoid(o[a], o[z], third(o[z], in[z], 1.0/3), third(o[a], in[a], 1.0/3))
			p.trapezoid(third(o[a], in[a], 2.0/3), third(o[z], in[z], 2.0/3), in[z], in[a])
		default:
			p.trapezoid(o[a], o[z], in[z], in[a])
		}
	}
}

func (p *painter) trapezoid(a, b, c, d gg.Point) {
	p.dc.MoveTo(a.X, a.Y)
	p.dc.LineTo(b.X, b.Y)
	p.dc.LineTo(c.X, c.Y)
	p.dc.LineTo(d.X, d.Y)
	p.dc.ClosePath()
	p.dc.Fill()
}

// brokenSide strokes a dashed or dotted side along its center line.
func (p *painter) brokenSide(oa, oz, ia, iz gg.Point, width float64, style css.BorderStyle) {
	p.dc.SetLineWidth(width)
	if style == css.BorderStyleDotted {
		p.dc.SetDash(width, width)
	} else {
		p.dc.SetDash(3*width, 2*width)
	}
	p.dc.DrawLine((oa.X+ia.X)/2, (oa.Y+ia.Y)/2, (oz.X+iz.X)/2, (oz.Y+iz.Y)/2)
	p.dc.Stroke()
	p.dc.SetDash()
}

func (p *painter) text(b geom.Rect, t displaylist.Text) {
	if f, err := p.r.fonts.Lookup(t.Font); err == nil {
		if ff, ok := f.(text.FaceFont); ok {
			p.dc.SetFontFace(ff.Face(t.Size))
		}
	} else {
		p.r.log.Debug("no font for text run", zap.String("family", t.Font.Family), zap.Error(err))
	}
	width, _ := p.dc.MeasureString(t.Text)
	x := b.X
	if t.AlignRight {
		x = b.Right() - width
	}
	for k := len(t.Shadows) - 1; k >= 0; k-- {
		s := t.Shadows[k]
		p.setColor(s.Color)
		p.dc.DrawString(t.Text, x+s.OffsetX, t.Baseline+s.OffsetY)
	}
	p.setColor(t.Color)
	p.dc.DrawString(t.Text, x, t.Baseline)

	var y float64
	switch t.Decoration {
	case "underline":
		y = t.Baseline + t.Size*0.1
	case "line-through":
		y = t.Baseline - t.Size*0.3
	case "overline":
		y = b.Y
	default:
		return
	}
	p.dc.SetLineWidth(max(1, t.Size/16))
	p.dc.DrawLine(x, y, x+width, y)
	p.dc.Stroke()
}

func (p *painter) image(b geom.Rect, name string) {
	if p.r.images == nil || b.Width <= 0 || b.Height <= 0 {
		return
	}
	img, err := p.r.images.Get(context.Background(), name)
	if err != nil {
		p.r.log.Debug("image unavailable", zap.String("name", name), zap.Error(err))
		return
	}
	p.drawScaled(img, b)
}

func (p *painter) drawScaled(img image.Image, b geom.Rect) {
	size := img.Bounds().Size()
	if size.X == 0 || size.Y == 0 {
		return
	}
	if p.alpha < 1 {
		faded := image.NewNRGBA(img.Bounds())
		mask := image.NewUniform(color.Alpha{A: uint8(math.Round(p.alpha * 255))})
		draw.DrawMask(faded, faded.Bounds(), img, img.Bounds().Min, mask, image.Point{}, draw.Over)
		img = faded
	}
	p.dc.Push()
	p.dc.Translate(b.X, b.Y)
	p.dc.Scale(b.Width/float64(size.X), b.Height/float64(size.Y))
	p.dc.DrawImage(img, -img.Bounds().Min.X, -img.Bounds().Min.Y)
	p.dc.Pop()
}

// scrollbars draws thin indicators along the right and bottom edges of a
// scroll container whose content overflows.
func (p *painter) scrollbars(b geom.Rect, s displaylist.Scroll) {
	const thickness = 4
	p.alpha *= 0.5
	p.setColor(css.Color{R: 128, G: 128, B: 128, A: 255})
	if s.ContentSize.Height > b.Height && s.ContentSize.Height > 0 {
		h := b.Height * b.Height / s.ContentSize.Height
		y := b.Y + (b.Height-h)*clamp01(s.Offset.Y/(s.ContentSize.Height-b.Height))
		p.dc.DrawRectangle(b.Right()-thickness, y, thickness, h)
		p.dc.Fill()
	}
	if s.ContentSize.Width > b.Width && s.ContentSize.Width > 0 {
		w := b.Width * b.Width / s.ContentSize.Width
		x := b.X + (b.Width-w)*clamp01(s.Offset.X/(s.ContentSize.Width-b.Width))
		p.dc.DrawRectangle(x, b.Bottom()-thickness, w, thickness)
		p.dc.Fill()
	}
}

func clamp01(v float64) float64 { return min(max(v, 0), 1) }

func (p *painter) custom(b geom.Rect, c displaylist.Custom) {
	if c.Content != nil {
		if paint, ok := c.Content.Callback.(CustomPainter); ok {
			if img := paint(b, c.Content.Data); img != nil {
				p.drawScaled(img, b)
			}
			return
		}
	}
	p.setColor(css.Color{R: 220, G: 220, B: 220, A: 255})
	p.dc.DrawRectangle(b.X, b.Y, b.Width, b.Height)
	p.dc.Fill()
}
