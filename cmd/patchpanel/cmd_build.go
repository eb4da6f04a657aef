package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"patchpanel/internal/catalog"
	"patchpanel/internal/session"
)

var verifyApp string

// syncCmd fetches remote catalog data once
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch apps, patches and repositories from the grounded model",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()
		sess, err := prepareSession(ctx, true, nil)
		if err != nil {
			return err
		}
		st := sess.Snapshot()
		out := cmd.OutOrStdout()
		printLogs(out, st.Logs)
		fmt.Fprintf(out, "%d apps, %d patches, %d repositories\n", len(st.Apps), len(st.Patches), len(st.Repos))
		printSources(out, st.Sources)
		return nil
	},
}

// verifyCmd asks the model to verify compatible patches for one app
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify patch compatibility against the recommended app version",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()
		sess, err := prepareSession(ctx, false, nil)
		if err != nil {
			return err
		}
		if verifyApp != "" {
			if err := sess.SelectApp(verifyApp); err != nil {
				return err
			}
		}
		if err := sess.Verify(ctx); err != nil {
			return err
		}
		st := sess.Snapshot()
		out := cmd.OutOrStdout()
		printPatches(out, st.CompatiblePatches())
		printSources(out, st.Sources)
		return nil
	},
}

// buildCmd runs the simulated build for a selection
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run the simulated patch build for the current selection",
	Long: `Syncs the catalog, applies the selection and runs the simulated build,
printing the terminal log as it goes.

Example:
  patchpanel build --app youtube --enable hide-ads`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()
		stream := &logStream{out: cmd.OutOrStdout()}
		sess, err := prepareSession(ctx, true, stream.onChange)
		if err != nil {
			return err
		}
		if err := applySelection(sess, selApp, selFile, selEnable, selDisable); err != nil {
			return err
		}

		if err := sess.Build(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), sess.LaunchCommand())
		return nil
	},
}

// logStream prints log entries as session events arrive. Events may be
// delivered out of order; a snapshot with no new entries is ignored.
type logStream struct {
	mu      sync.Mutex
	out     io.Writer
	printed int
}

func (l *logStream) onChange(e session.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n := len(e.State.Logs); n > l.printed {
		printLogs(l.out, e.State.Logs[l.printed:])
		l.printed = n
	}
}

func printLogs(out io.Writer, entries []catalog.LogEntry) {
	for _, e := range entries {
		fmt.Fprintf(out, "[%s] %-7s %s\n", e.Timestamp, strings.ToUpper(string(e.Level)), e.Message)
	}
}

func printSources(out io.Writer, sources []catalog.GroundingLink) {
	if len(sources) == 0 {
		return
	}
	fmt.Fprintln(out, "Sources:")
	for _, s := range sources {
		fmt.Fprintf(out, "  - %s <%s>\n", s.Title, s.URI)
	}
}

func init() {
	verifyCmd.Flags().StringVar(&verifyApp, "app", "", "Application id (default: first app)")
	addSelectionFlags(buildCmd)
}
