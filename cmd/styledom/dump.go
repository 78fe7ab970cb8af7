package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"styledom/pkg/app"
	"styledom/pkg/displaylist"
)

var dumpParts = []string{"dom", "boxes", "display", "ledger"}

func newDumpCmd(c *cli) *cobra.Command {
	var parts []string
	cmd := &cobra.Command{
		Use:   "dump <uri>",
		Short: "Print the DOM, box tree, display list or debug ledger of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range parts {
				if !slices.Contains(dumpParts, p) {
					return fmt.Errorf("unknown part %q, want one of %s", p, strings.Join(dumpParts, ", "))
				}
			}
			doc, err := c.load(cmd, args[0])
			if err != nil {
				return err
			}
			a, w, err := c.open(doc, app.WindowOptions{}, nil)
			if err != nil {
				return err
			}
			defer shutdown(c.log, a)
			if err := settleFrames(cmd.Context(), w, 0); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range parts {
				fmt.Fprintf(out, "== %s\n", p)
				dumpPart(out, w, p)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&parts, "show", []string{"dom", "boxes"}, "parts to print: "+strings.Join(dumpParts, ", "))
	documentFlags(cmd)
	return cmd
}

func dumpPart(out io.Writer, w *app.Window, part string) {
	switch part {
	case "dom":
		fmt.Fprint(out, w.Page().Dom.DebugString())
	case "boxes":
		fmt.Fprint(out, w.Tree().DebugString())
	case "display":
		dumpList(out, w.DisplayList())
	case "ledger":
		for _, m := range w.Ledger().Messages() {
			fmt.Fprintln(out, m)
		}
	}
}

func dumpList(out io.Writer, l *displaylist.List) {
	if l == nil {
		return
	}
	fmt.Fprintf(out, "viewport %gx%g, %d items\n", l.Viewport.Width, l.Viewport.Height, l.Len())
	for i, it := range l.Items {
		b := it.Bounds
		fmt.Fprintf(out, "%4d %-10s node=%-4d (%g,%g %gx%g)", i, it.Content.Kind(), it.Node, b.X, b.Y, b.Width, b.Height)
		if it.Clipped {
			fmt.Fprintf(out, " clip=(%g,%g %gx%g)", it.Clip.X, it.Clip.Y, it.Clip.Width, it.Clip.Height)
		}
		if !it.Transform.IsIdentity() {
			fmt.Fprintf(out, " transform=%v", [6]float64(it.Transform))
		}
		if it.Opacity < 1 {
			fmt.Fprintf(out, " opacity=%g", it.Opacity)
		}
		if t, ok := it.Content.(displaylist.Text); ok {
			fmt.Fprintf(out, " %q", t.Text)
		}
		fmt.Fprintln(out)
	}
}
