package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/outlinesync/internal/pages"
	"github.com/dgallion1/outlinesync/internal/target"
	"github.com/dgallion1/outlinesync/internal/tree"
)

var treeCmd = &cobra.Command{
	Use:   "tree FILE",
	Short: "Print the outline tree built for a document",
	Long: `Parse FILE and print the tree its outline produces, with every page
placeholder in place.

Example:
  outlinectl tree report.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := parseFile(args[0])
		if err != nil {
			return err
		}
		reg := pages.NewRegistry()
		reg.Resize(doc.PageCount, nil)
		root := target.Build(doc.Items, reg)

		out := cmd.OutOrStdout()
		if jsonOut {
			return printJSON(out, tree.View(root))
		}
		fmt.Fprintf(out, "%s (%d pages)\n", doc.Title, doc.PageCount)
		return tree.Dump(out, root)
	},
}

func init() {
	rootCmd.AddCommand(treeCmd)
}
