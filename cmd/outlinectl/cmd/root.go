package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/outlinesync/internal/editscript"
	"github.com/dgallion1/outlinesync/internal/outline"
	"github.com/dgallion1/outlinesync/internal/parser"
	"github.com/dgallion1/outlinesync/internal/reconcile"
)

var (
	pdftotext bool
	logLevel  string
	jsonOut   bool

	log *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "outlinectl",
	Short: "Inspect and reconcile document outlines",
	Long: `outlinectl parses documents into outlines interleaved with page
placeholders and reconciles successive generations the way the
outlinesync service does.

Supported inputs: .md, .markdown, .html, .htm, .txt, .csv, .pdf, .docx
and outline .json.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(logLevel)); err != nil {
			return fmt.Errorf("invalid --log-level %q", logLevel)
		}
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&pdftotext, "pdftotext", true, "fall back to pdftotext when a PDF cannot be read")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print JSON instead of text")
}

// parseFile reads and parses a document by extension.
func parseFile(path string) (*outline.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseBytes(path, data)
}

func parseBytes(path string, data []byte) (*outline.Document, error) {
	p, err := parser.ForFile(path, parser.Options{PDFFallbackPdftotext: pdftotext})
	if err != nil {
		return nil, err
	}
	doc, err := p.Parse(bytes.NewReader(data), path)
	if err != nil {
		return nil, err
	}
	for _, r := range outline.Regressions(doc.Items) {
		log.Warn("outline page regresses", "title", r.Title, "page", r.Page, "previous", r.Previous)
	}
	return doc, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printEdits(w io.Writer, res *reconcile.Result) {
	for _, e := range res.Edits {
		switch e.Op {
		case editscript.OpSwapIn:
			fmt.Fprintf(w, "  %-8s %-24s %d -> %d  (in %s)\n", e.Op, e.Node, e.From, e.At, parentName(e.Parent))
		default:
			fmt.Fprintf(w, "  %-8s %-24s at %d  (in %s)\n", e.Op, e.Node, e.At, parentName(e.Parent))
		}
	}
	fmt.Fprintf(w, "inserted=%d moved=%d removed=%d reused=%d recovered=%d pending=%d discarded=%d\n",
		res.Inserted, res.Moved, res.Removed, res.Reused, res.Recovered, res.Pending, res.Discarded)
}

func parentName(id string) string {
	if id == "" {
		return "root"
	}
	return id
}
