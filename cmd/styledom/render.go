package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"styledom/pkg/app"
	"styledom/pkg/geom"
	"styledom/pkg/render"
	"styledom/pkg/text"
)

func newRenderCmd(c *cli) *cobra.Command {
	var (
		out    string
		settle time.Duration
		scale  float64
		full   bool
	)
	cmd := &cobra.Command{
		Use:   "render <uri>",
		Short: "Render a document to a PNG file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := c.load(cmd, args[0])
			if err != nil {
				return err
			}
			fonts := c.fonts()
			r := render.NewRenderer(fonts,
				render.WithImages(doc.Images), render.WithLogger(c.log), render.WithScale(scale))
			a, w, err := c.open(doc, app.WindowOptions{Sink: r}, fonts)
			if err != nil {
				return err
			}
			defer shutdown(c.log, a)

			if err := settleFrames(cmd.Context(), w, settle); err != nil {
				return err
			}
			if full {
				if h := w.Tree().Height(); h > w.Size().Height {
					w.SetSize(geom.Size{Width: w.Size().Width, Height: h})
					if _, err := w.Frame(time.Now()); err != nil {
						return err
					}
				}
			}
			if err := r.SavePNG(out); err != nil {
				return err
			}
			c.log.Info("rendered", zap.String("uri", args[0]), zap.String("out", out),
				zap.Int("items", w.DisplayList().Len()))
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%gx%g, %d items)\n",
				args[0], out, w.Size().Width, w.Size().Height, w.DisplayList().Len())
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "output.png", "PNG file to write")
	cmd.Flags().DurationVar(&settle, "settle", 0, "keep running frames this long so page timers fire")
	cmd.Flags().Float64Var(&scale, "scale", 1, "device pixels per CSS pixel")
	cmd.Flags().BoolVar(&full, "full", false, "grow the viewport to the height of the page")
	documentFlags(cmd)
	return cmd
}

// fonts returns the configured fonts. A broken font directory leaves the
// built in fonts.
func (c *cli) fonts() text.FontProvider {
	fonts, err := app.NewFonts(c.cfg.Text)
	if err != nil {
		c.log.Warn("font setup", zap.Error(err))
	}
	return fonts
}

// settleFrames runs a first frame, then keeps running frames at 60Hz for
// d.
func settleFrames(ctx context.Context, w *app.Window, d time.Duration) error {
	if _, err := w.Frame(time.Now()); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	deadline := time.NewTimer(d)
	defer deadline.Stop()
	tick := time.NewTicker(time.Second / 60)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return nil
		case now := <-tick.C:
			if _, err := w.Frame(now); err != nil {
				return err
			}
		}
	}
}

func shutdown(log *zap.Logger, a *app.App) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := a.Shutdown(ctx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
}
