// Package canvas turns display lists into fyne canvas objects so a page
// can be shown in a native window.
package canvas

import (
	"context"
	"image/color"
	"math"
	"sync"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"go.uber.org/zap"

	"styledom/pkg/css"
	"styledom/pkg/displaylist"
	"styledom/pkg/geom"
	"styledom/pkg/images"
	"styledom/pkg/render"
)

// Option configures a Sink.
type Option func(*Sink)

// WithImages sets the store images are loaded from.
func WithImages(s *images.Store) Option {
	return func(k *Sink) { k.images = s }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(k *Sink) { k.log = l.Named("canvas") }
}

// OnMainThread applies every frame through fyne.DoAndWait. Sinks painted
// from a frame loop goroutine while a fyne app runs need it.
func OnMainThread() Option {
	return func(k *Sink) { k.apply = fyne.DoAndWait }
}

// Sink is a displaylist.PaintSink that keeps a fyne container in step
// with the last painted list. fyne has no transforms or clip paths, so
// transformed items are drawn at their bounding box and clipped items
// are cut to their clip rectangle.
type Sink struct {
	images *images.Store
	log    *zap.Logger
	apply  func(func())

	mu   sync.Mutex
	root *fyne.Container
}

var _ displaylist.PaintSink = (*Sink)(nil)

// NewSink returns a sink with an empty container.
func NewSink(opts ...Option) *Sink {
	k := &Sink{log: zap.NewNop(), apply: func(f func()) { f() }, root: container.NewWithoutLayout()}
	for _, o := range opts {
		o(k)
	}
	return k
}

// Container returns the container the sink paints into.
func (k *Sink) Container() *fyne.Container { return k.root }

// Objects returns the objects of the last frame.
func (k *Sink) Objects() []fyne.CanvasObject {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]fyne.CanvasObject(nil), k.root.Objects...)
}

// Paint replaces the container content with the objects of l.
func (k *Sink) Paint(l *displaylist.List) error {
	objects := make([]fyne.CanvasObject, 0, len(l.Items))
	for i := range l.Items {
		if o := k.object(&l.Items[i]); o != nil {
			objects = append(objects, o)
		}
	}
	k.apply(func() {
		k.mu.Lock()
		defer k.mu.Unlock()
		k.root.Objects = objects
		k.root.Resize(fyne.NewSize(float32(l.Viewport.Width), float32(l.Viewport.Height)))
		k.root.Refresh()
	})
	k.log.Debug("canvas updated", zap.Int("objects", len(objects)))
	return nil
}

func place(o fyne.CanvasObject, r geom.Rect) fyne.CanvasObject {
	o.Move(fyne.NewPos(float32(r.X), float32(r.Y)))
	o.Resize(fyne.NewSize(float32(r.Width), float32(r.Height)))
	return o
}

func fade(c css.Color, opacity float64) color.NRGBA {
	out := c.RGBA()
	out.A = uint8(math.Round(float64(c.A) * opacity))
	return out
}

// object converts one item; nil drops it.
func (k *Sink) object(it *displaylist.Item) fyne.CanvasObject {
	b := it.Transform.ApplyRect(it.Bounds)
	if it.Clipped {
		if _, ok := it.Content.(displaylist.Text); ok {
			if !b.Intersects(it.Clip) {
				return nil
			}
		} else {
			c, ok := b.Intersect(it.Clip)
			if !ok {
				return nil
			}
			b = c
		}
	}

	switch c := it.Content.(type) {
	case displaylist.Rect:
		r := fynecanvas.NewRectangle(fade(c.Color, it.Opacity))
		r.CornerRadius = float32(maxRadius(c.Radii))
		return place(r, b)
	case displaylist.Border:
		r := fynecanvas.NewRectangle(color.Transparent)
		r.StrokeColor = fade(c.Colors[0], it.Opacity)
		r.StrokeWidth = float32(max(c.Widths.Top, c.Widths.Right, c.Widths.Bottom, c.Widths.Left))
		r.CornerRadius = float32(maxRadius(c.Radii))
		return place(r, b)
	case displaylist.BoxShadow:
		s := c.Shadow
		if s.Inset {
			return nil
		}
		r := fynecanvas.NewRectangle(fade(s.Color, it.Opacity*0.6))
		r.CornerRadius = float32(maxRadius(c.Radii) + s.Blur/2)
		grow := s.Spread + s.Blur/2
		return place(r, b.Translate(s.OffsetX, s.OffsetY).ExpandedBy(geom.Edges{Top: grow, Right: grow, Bottom: grow, Left: grow}))
	case displaylist.Gradient:
		return place(gradient(c.Gradient, it.Opacity), b)
	case displaylist.Text:
		t := fynecanvas.NewText(c.Text, fade(c.Color, it.Opacity))
		t.TextSize = float32(c.Size)
		t.TextStyle = fyne.TextStyle{Bold: c.Font.Bold(), Italic: c.Font.Italic}
		if c.AlignRight {
			t.Alignment = fyne.TextAlignTrailing
		}
		return place(t, b)
	case displaylist.Image:
		if k.images == nil {
			return nil
		}
		img, err := k.images.Get(context.Background(), c.Name)
		if err != nil {
			k.log.Debug("image unavailable", zap.String("name", c.Name), zap.Error(err))
			return nil
		}
		ci := fynecanvas.NewImageFromImage(img)
		ci.FillMode = fynecanvas.ImageFillStretch
		ci.Translucency = 1 - it.Opacity
		return place(ci, b)
	case displaylist.Custom:
		if c.Content != nil {
			if paint, ok := c.Content.Callback.(render.CustomPainter); ok {
				if img := paint(it.Bounds, c.Content.Data); img != nil {
					ci := fynecanvas.NewImageFromImage(img)
					ci.FillMode = fynecanvas.ImageFillStretch
					return place(ci, b)
				}
			}
		}
		return place(fynecanvas.NewRectangle(color.NRGBA{R: 220, G: 220, B: 220, A: 255}), b)
	}
	return nil
}

// gradient maps a CSS gradient onto fyne's two color gradients using the
// first and last stops.
func gradient(g css.Gradient, opacity float64) fyne.CanvasObject {
	start, end := color.Color(color.Transparent), color.Color(color.Transparent)
	if n := len(g.Stops); n > 0 {
		start = fade(g.Stops[0].Color, opacity)
		end = fade(g.Stops[n-1].Color, opacity)
	}
	if g.Type == css.GradientRadial {
		return fynecanvas.NewRadialGradient(start, end)
	}
	// fyne's 0 runs top to bottom, which is 180deg in CSS.
	return fynecanvas.NewLinearGradient(start, end, math.Mod(g.Angle+180, 360))
}

func maxRadius(r [4]float64) float64 { return max(r[0], r[1], r[2], r[3]) }
