package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"

	"styledom/pkg/app"
	"styledom/pkg/diff"
	"styledom/pkg/dom"
)

func newDiffCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <old-uri> <new-uri>",
		Short: "Reconcile two documents and print node moves, changes and lifecycle events",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				doms   [2]*dom.FlatDom
				layout diff.Layouts
			)
			for i, uri := range args {
				doc, err := c.load(cmd, uri)
				if err != nil {
					return err
				}
				a, w, err := c.open(doc, app.WindowOptions{}, nil)
				if err != nil {
					return err
				}
				err = settleFrames(cmd.Context(), w, 0)
				shutdown(c.log, a)
				if err != nil {
					return err
				}
				doms[i] = w.Page().Dom
				if i == 0 {
					layout.Old = w.Tree().BoundsMap()
				} else {
					layout.New = w.Tree().BoundsMap()
				}
			}
			res := diff.NewReconciler(c.log).Diff(1, doms[0], doms[1], layout, time.Now())
			fmt.Fprint(cmd.OutOrStdout(), describe(args[0], args[1], doms[0], doms[1], res))
			return nil
		},
	}
	cmd.Flags().Bool("xhtml", false, "parse as XHTML regardless of the content type")
	return cmd
}

// describe prints a reconciliation as a tree.
func describe(oldURI, newURI string, old, cur *dom.FlatDom, res *diff.Result) string {
	tree := treeprint.NewWithRoot(fmt.Sprintf("%s -> %s", oldURI, newURI))
	if res.IsIdentity() {
		tree.AddNode("identical")
		return tree.String()
	}

	moves := tree.AddBranch(fmt.Sprintf("moves (%d)", len(res.Moves)))
	for _, mv := range res.Moves {
		if mv.Old != mv.New {
			moves.AddNode(fmt.Sprintf("[%d] -> [%d] %s", mv.Old, mv.New, cur.Ptr(mv.New).Label()))
		}
	}
	changes := tree.AddBranch(fmt.Sprintf("changes (%d)", len(res.Changes)))
	for _, ch := range res.Changes {
		changes.AddNode(fmt.Sprintf("[%d] %s: %s", ch.New, cur.Ptr(ch.New).Label(), ch.Changes))
	}
	mounted := tree.AddBranch(fmt.Sprintf("mounted (%d)", len(res.Mounted)))
	for _, id := range res.Mounted {
		mounted.AddNode(fmt.Sprintf("[%d] %s", id, cur.Ptr(id).Label()))
	}
	unmounted := tree.AddBranch(fmt.Sprintf("unmounted (%d)", len(res.Unmounted)))
	for _, id := range res.Unmounted {
		unmounted.AddNode(fmt.Sprintf("[%d] %s", id, old.Ptr(id).Label()))
	}
	events := tree.AddBranch(fmt.Sprintf("lifecycle events (%d)", len(res.Events)))
	for _, ev := range res.Events {
		b := ev.CurrentBounds
		events.AddNode(fmt.Sprintf("%s [%d] (%g,%g %gx%g)", ev.Type, ev.Target.Node, b.X, b.Y, b.Width, b.Height))
	}
	if len(res.Ambiguities) > 0 {
		amb := tree.AddBranch(fmt.Sprintf("ambiguous keys (%d)", len(res.Ambiguities)))
		for _, a := range res.Ambiguities {
			amb.AddNode(fmt.Sprintf("key %q on %v", a.Key, a.Nodes))
		}
	}
	return tree.String()
}
