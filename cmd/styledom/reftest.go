package main

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"styledom/pkg/app"
	"styledom/pkg/loader"
	"styledom/pkg/render"
)

var errMismatch = errors.New("rendering differs from reference")

func newReftestCmd(c *cli) *cobra.Command {
	var (
		opts    render.CompareOptions
		diffOut string
	)
	cmd := &cobra.Command{
		Use:   "reftest <test-uri> [reference]",
		Short: "Check that a document renders like its reference",
		Long: `reftest renders a test document and compares it with a reference. The
reference is a document, a PNG file, or, when omitted, the document named by
the test's <link rel="match"> element.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actual, doc, err := c.renderImage(cmd, args[0])
			if err != nil {
				return err
			}
			ref := ""
			switch {
			case len(args) == 2:
				ref = args[1]
			case len(doc.Matches) > 0:
				ref = doc.Matches[0]
			default:
				return fmt.Errorf("%s names no reference", args[0])
			}

			var res *render.CompareResult
			if strings.EqualFold(filepath.Ext(ref), ".png") {
				expected, err := gg.LoadPNG(ref)
				if err != nil {
					return fmt.Errorf("reference %s: %w", ref, err)
				}
				res, err = render.Compare(actual, expected, opts)
				if err != nil {
					return err
				}
			} else {
				expected, _, err := c.renderImage(cmd, ref)
				if err != nil {
					return fmt.Errorf("reference %s: %w", ref, err)
				}
				if res, err = render.Compare(actual, expected, opts); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if res.Match {
				fmt.Fprintf(out, "PASS %s == %s\n", args[0], ref)
				return nil
			}
			fmt.Fprintf(out, "FAIL %s != %s: %d of %d pixels differ (max %d)\n",
				args[0], ref, res.DifferentPixels, res.TotalPixels, res.MaxDifference)
			if diffOut != "" && res.Diff != nil {
				if err := gg.SavePNG(diffOut, res.Diff); err != nil {
					c.log.Warn("diff image not saved", zap.Error(err))
				}
			}
			return errMismatch
		},
	}
	cmd.Flags().IntVar(&opts.Tolerance, "tolerance", 2, "largest per channel difference that still matches")
	cmd.Flags().IntVar(&opts.FuzzyRadius, "fuzzy", 0, "let pixels match a reference pixel this far away")
	cmd.Flags().Float64Var(&opts.MaxDifferentPercent, "max-diff", 0, "percent of differing pixels that still passes")
	cmd.Flags().StringVar(&diffOut, "diff-out", "", "write a PNG marking the differing pixels")
	cmd.PreRun = func(*cobra.Command, []string) { opts.WantDiff = diffOut != "" }
	documentFlags(cmd)
	return cmd
}

// renderImage renders the first frame of the document at uri.
func (c *cli) renderImage(cmd *cobra.Command, uri string) (image.Image, *loader.Document, error) {
	doc, err := c.load(cmd, uri)
	if err != nil {
		return nil, nil, err
	}
	fonts := c.fonts()
	r := render.NewRenderer(fonts, render.WithImages(doc.Images), render.WithLogger(c.log))
	a, w, err := c.open(doc, app.WindowOptions{Sink: r}, fonts)
	if err != nil {
		return nil, nil, err
	}
	defer shutdown(c.log, a)
	if err := settleFrames(cmd.Context(), w, 0); err != nil {
		return nil, nil, err
	}
	return r.Image(), doc, nil
}
