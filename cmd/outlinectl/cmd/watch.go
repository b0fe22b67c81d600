package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/outlinesync/internal/config"
	"github.com/dgallion1/outlinesync/internal/session"
	"github.com/dgallion1/outlinesync/internal/watch"
)

var debounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch FILE",
	Short: "Reconcile a document every time it is saved",
	Long: `Watch FILE and run one reconcile pass per save, printing the edits
each new generation applies to the live tree. Stop with Ctrl-C.

Example:
  outlinectl watch notes.md --debounce 500ms`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg := config.Default()
		cfg.WorkerCount = 1
		sessions := session.NewManager(cfg, log)
		sessions.Start(ctx)
		defer sessions.Stop()
		sess := sessions.Create()

		out := cmd.OutOrStdout()
		handler := func(ctx context.Context, path string) error {
			data, err := watch.ReadStable(path)
			if err != nil {
				return err
			}
			doc, err := parseBytes(path, data)
			if err != nil {
				return err
			}
			u, err := sessions.Apply(ctx, sess.ID, doc)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(out, u)
			}
			fmt.Fprintf(out, "generation %d: %s (%d pages)\n", u.Generation, u.Status, u.PageCount)
			if u.Error != "" {
				fmt.Fprintf(out, "  error: %s\n", u.Error)
			}
			if u.Result != nil && u.Status == session.StatusCompleted {
				printEdits(out, u.Result)
			}
			return nil
		}

		w, err := watch.New(args[0], debounce, handler, log)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()

		select {
		case <-ctx.Done():
		case <-w.Done():
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().DurationVar(&debounce, "debounce", config.Default().WatchDebounce, "quiet period before a change is processed")
	rootCmd.AddCommand(watchCmd)
}
