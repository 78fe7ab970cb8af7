package main

import (
	"context"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"styledom/pkg/app"
	"styledom/pkg/dom"
	"styledom/pkg/geom"
	"styledom/pkg/render/canvas"
)

func newShowCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <uri>",
		Short: "Show a document in a window and run its scripts and timers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := c.load(cmd, args[0])
			if err != nil {
				return err
			}
			sink := canvas.NewSink(canvas.WithImages(doc.Images), canvas.WithLogger(c.log), canvas.OnMainThread())
			a, w, err := c.open(doc, app.WindowOptions{Sink: sink}, nil)
			if err != nil {
				return err
			}

			fa := fyneapp.New()
			fw := fa.NewWindow(w.Title())
			size := w.Size()
			surf := newSurface(sink.Container(), w)
			fw.SetContent(surf)
			fw.Canvas().Focus(surf)
			fw.Resize(fyne.NewSize(float32(size.Width), float32(size.Height)))

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			fw.SetOnClosed(cancel)
			done := make(chan error, 1)
			go func() {
				done <- a.Loop(ctx)
				fyne.Do(fa.Quit)
			}()
			fw.ShowAndRun()
			cancel()
			// A frame blocked on painting into the stopped UI never returns.
			select {
			case err := <-done:
				if err != nil {
					c.log.Warn("frame loop", zap.Error(err))
				}
			case <-time.After(2 * time.Second):
				c.log.Warn("frame loop did not stop")
			}
			return nil
		},
	}
	documentFlags(cmd)
	return cmd
}

// surface shows the painted page and turns fyne input into window
// events.
type surface struct {
	widget.BaseWidget
	content fyne.CanvasObject
	win     *app.Window
}

var (
	_ desktop.Hoverable = (*surface)(nil)
	_ desktop.Mouseable = (*surface)(nil)
	_ fyne.Scrollable   = (*surface)(nil)
	_ fyne.Focusable    = (*surface)(nil)
)

func newSurface(content fyne.CanvasObject, win *app.Window) *surface {
	s := &surface{content: content, win: win}
	s.ExtendBaseWidget(s)
	return s
}

func (s *surface) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(s.content)
}

func (s *surface) Resize(size fyne.Size) {
	s.BaseWidget.Resize(size)
	if size.Width > 0 && size.Height > 0 {
		s.win.Dispatch(dom.Event{
			Type:       dom.EventWindowResized,
			WindowSize: geom.Size{Width: float64(size.Width), Height: float64(size.Height)},
		})
	}
}

func point(p fyne.Position) geom.Point {
	return geom.Point{X: float64(p.X), Y: float64(p.Y)}
}

func (s *surface) MouseIn(e *desktop.MouseEvent) { s.MouseMoved(e) }

func (s *surface) MouseMoved(e *desktop.MouseEvent) {
	s.win.Dispatch(dom.Event{Type: dom.EventMouseOver, Position: point(e.Position)})
}

// MouseOut moves the pointer off the page so hovered nodes are left.
func (s *surface) MouseOut() {
	s.win.Dispatch(dom.Event{Type: dom.EventMouseOver, Position: geom.Point{X: -1, Y: -1}})
}

func (s *surface) MouseDown(e *desktop.MouseEvent) {
	typ := dom.EventMouseDown
	switch e.Button {
	case desktop.MouseButtonPrimary:
		typ = dom.EventLeftMouseDown
	case desktop.MouseButtonSecondary:
		typ = dom.EventRightMouseDown
	}
	s.win.Dispatch(dom.Event{Type: typ, Position: point(e.Position)})
}

func (s *surface) MouseUp(e *desktop.MouseEvent) {
	typ := dom.EventMouseUp
	switch e.Button {
	case desktop.MouseButtonPrimary:
		typ = dom.EventLeftMouseUp
	case desktop.MouseButtonSecondary:
		typ = dom.EventRightMouseUp
	}
	s.win.Dispatch(dom.Event{Type: typ, Position: point(e.Position)})
}

// Scrolled turns wheel motion into scroll deltas; fyne reports content
// motion, so the sign flips.
func (s *surface) Scrolled(e *fyne.ScrollEvent) {
	s.win.Dispatch(dom.Event{
		Type:        dom.EventScroll,
		Position:    point(e.Position),
		ScrollDelta: geom.Point{X: -float64(e.Scrolled.DX), Y: -float64(e.Scrolled.DY)},
	})
}

func (s *surface) FocusGained() {
	s.win.Dispatch(dom.Event{Type: dom.EventWindowFocusReceived})
}

func (s *surface) FocusLost() {
	s.win.Dispatch(dom.Event{Type: dom.EventWindowFocusLost})
}

func (s *surface) TypedRune(r rune) {
	s.win.Dispatch(dom.Event{Type: dom.EventTextInput, Key: r, Text: string(r)})
}

func (s *surface) TypedKey(e *fyne.KeyEvent) {
	if r := []rune(string(e.Name)); len(r) == 1 {
		s.win.Dispatch(dom.Event{Type: dom.EventVirtualKeyDown, Key: r[0]})
	}
}
