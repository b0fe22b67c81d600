package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/outlinesync/internal/outline"
	"github.com/dgallion1/outlinesync/internal/pages"
	"github.com/dgallion1/outlinesync/internal/reconcile"
	"github.com/dgallion1/outlinesync/internal/session"
	"github.com/dgallion1/outlinesync/internal/target"
	"github.com/dgallion1/outlinesync/internal/tree"
)

var attachAfter bool

var diffCmd = &cobra.Command{
	Use:   "diff OLD NEW",
	Short: "Show how a live tree changes from one document to the next",
	Long: `Render OLD as the first generation, attach its pages, then
reconcile NEW against it and print every applied edit and what each page
record needs next.

Example:
  outlinectl diff draft-1.md draft-2.md`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		prev, err := parseFile(args[0])
		if err != nil {
			return err
		}
		next, err := parseFile(args[1])
		if err != nil {
			return err
		}

		reg := pages.NewRegistry()
		root := tree.NewElement(target.TagRoot, "")
		rec := reconcile.New(reconcile.WithLogger(log))

		if _, err := generation(rec, root, reg, prev, 1); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		if _, err := reg.AttachPending(); err != nil {
			return err
		}
		res, err := generation(rec, root, reg, next, 2)
		if err != nil {
			return fmt.Errorf("%s: %w", args[1], err)
		}

		records := make(map[int]pages.Action, reg.Len())
		for _, r := range reg.Records() {
			records[r.Index] = r.Action()
		}
		if attachAfter {
			if _, err := reg.AttachPending(); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if jsonOut {
			return printJSON(out, map[string]any{
				"result":  res,
				"records": records,
				"tree":    tree.View(root),
			})
		}
		fmt.Fprintf(out, "%s -> %s\n", args[0], args[1])
		printEdits(out, res)
		for _, r := range reg.Records() {
			fmt.Fprintf(out, "  page %-4d %s\n", r.Index, records[r.Index])
		}
		return tree.Dump(out, root)
	},
}

// generation resizes reg to doc's page count and runs one pass.
func generation(rec *reconcile.Reconciler, root *tree.Element, reg *pages.Registry, doc *outline.Document, gen int) (*reconcile.Result, error) {
	reg.Resize(doc.PageCount, func(page int) any {
		return session.Surface{Page: page, Generation: gen}
	})
	return rec.Reconcile(root, reg, doc.Items)
}

func init() {
	diffCmd.Flags().BoolVar(&attachAfter, "attach", true, "attach pending pages before printing the tree")
	rootCmd.AddCommand(diffCmd)
}
