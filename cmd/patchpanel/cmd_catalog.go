package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"patchpanel/internal/catalog"
	"patchpanel/internal/session"
)

var (
	catalogSync bool
	catalogApp  string
	catalogQ    string
)

// appsCmd lists target applications
var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "List target applications",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()
		sess, err := prepareSession(ctx, catalogSync, nil)
		if err != nil {
			return err
		}
		st := sess.Snapshot()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPACKAGE\tRECOMMENDED")
		for _, a := range st.Apps {
			fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\n", a.ID, a.Icon, a.Name, a.PackageName, a.RecommendedVersion)
		}
		return w.Flush()
	},
}

// patchesCmd lists patches compatible with an application
var patchesCmd = &cobra.Command{
	Use:   "patches",
	Short: "List patches compatible with the selected application",
	Long: `Lists the patches that apply to an application. Incompatible patches are
never shown; patches without a compatibility list apply to every app.

Example:
  patchpanel patches --app youtube --query ads`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()
		sess, err := prepareSession(ctx, catalogSync, nil)
		if err != nil {
			return err
		}
		if catalogApp != "" {
			if err := sess.SelectApp(catalogApp); err != nil {
				return err
			}
		}
		sess.SetQuery(catalogQ)

		st := sess.Snapshot()
		app := st.SelectedApp()
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", app.Name, app.PackageName)
		printPatches(cmd.OutOrStdout(), st.VisiblePatches())
		return nil
	},
}

// reposCmd lists community patch repositories
var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "List official and community patch repositories (requires an API key)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()
		sess, err := prepareSession(ctx, true, nil)
		if err != nil {
			return err
		}
		st := sess.Snapshot()
		if len(st.Repos) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No repositories found.")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "REPOSITORY\tBRANCH\tSTARS\tUPDATED\tURL")
		for _, r := range st.Repos {
			name := r.Owner + "/" + r.Name
			if r.Official {
				name += " (official)"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", name, r.Branch, r.Stars, r.LastUpdated, r.URL)
		}
		return w.Flush()
	},
}

// prepareSession builds a session and optionally syncs it.
func prepareSession(ctx context.Context, sync bool, onChange func(session.Event)) (*session.Session, error) {
	sess, err := newSession(ctx, onChange)
	if err != nil {
		return nil, err
	}
	if sync {
		if err := sess.Sync(ctx); err != nil && !errors.Is(err, session.ErrSyncInProgress) {
			return nil, err
		}
	}
	return sess, nil
}

func printPatches(out io.Writer, patches []catalog.Patch) {
	if len(patches) == 0 {
		fmt.Fprintln(out, "No compatible patches.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\tID\tNAME\tSTATUS\tDESCRIPTION")
	for _, p := range patches {
		mark := "[ ]"
		if p.Enabled {
			mark = "[x]"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", mark, p.ID, p.Name, p.EffectiveStatus(), p.Description)
	}
	_ = w.Flush()
}

// applySelection applies --app, --file, --enable and --disable to sess.
func applySelection(sess *session.Session, appID, file string, enable, disable []string) error {
	if appID != "" {
		if err := sess.SelectApp(appID); err != nil {
			return err
		}
	}
	if file != "" {
		sess.SetFilename(file)
	}
	for _, id := range enable {
		if err := sess.SetPatchEnabled(strings.TrimSpace(id), true); err != nil {
			return err
		}
	}
	for _, id := range disable {
		if err := sess.SetPatchEnabled(strings.TrimSpace(id), false); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	appsCmd.Flags().BoolVar(&catalogSync, "sync", false, "Fetch remote catalog data first")
	patchesCmd.Flags().BoolVar(&catalogSync, "sync", false, "Fetch remote catalog data first")
	patchesCmd.Flags().StringVar(&catalogApp, "app", "", "Application id (default: first app)")
	patchesCmd.Flags().StringVarP(&catalogQ, "query", "q", "", "Filter by name or description")
}
