package main

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

// clipboardWriteAll is a package-level variable to allow mocking in tests.
var clipboardWriteAll = clipboard.WriteAll

var (
	selApp     string
	selFile    string
	selEnable  []string
	selDisable []string
	copyOut    bool
)

// commandCmd prints the revanced-cli invocation
var commandCmd = &cobra.Command{
	Use:   "command",
	Short: "Print the patch-build command for a selection",
	Long: `Prints the revanced-cli command for the selected application and patches.
Only enabled patches that are compatible with the application are included.

Example:
  patchpanel command --app youtube --file YouTube.apk --enable hide-ads,sponsorblock --copy`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()
		sess, err := newSession(ctx, nil)
		if err != nil {
			return err
		}
		if err := applySelection(sess, selApp, selFile, selEnable, selDisable); err != nil {
			return err
		}
		return emit(cmd, sess.Command())
	},
}

// launchCmd prints the install helper
var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Print the adb install command for the patched APK",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()
		sess, err := newSession(ctx, nil)
		if err != nil {
			return err
		}
		if selFile != "" {
			sess.SetFilename(selFile)
		}
		return emit(cmd, sess.LaunchCommand())
	},
}

// emit prints text and copies it when --copy is set.
func emit(cmd *cobra.Command, text string) error {
	fmt.Fprintln(cmd.OutOrStdout(), text)
	if !copyOut {
		return nil
	}
	if err := clipboardWriteAll(text); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Copied to clipboard.")
	return nil
}

func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&selApp, "app", "", "Application id (default: first app)")
	cmd.Flags().StringVar(&selFile, "file", "", `Input APK file name (default "none": input.apk -> Output.apk)`)
	cmd.Flags().StringSliceVar(&selEnable, "enable", nil, "Patch ids to enable")
	cmd.Flags().StringSliceVar(&selDisable, "disable", nil, "Patch ids to disable")
}

func init() {
	addSelectionFlags(commandCmd)
	commandCmd.Flags().BoolVar(&copyOut, "copy", false, "Copy the command to the clipboard")

	launchCmd.Flags().StringVar(&selFile, "file", "", "Input APK file name")
	launchCmd.Flags().BoolVar(&copyOut, "copy", false, "Copy the command to the clipboard")
}
