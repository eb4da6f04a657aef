package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"patchpanel/internal/command"
)

var guideFile string

// guideCmd renders setup and install instructions
var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Show setup and install instructions",
	RunE: func(cmd *cobra.Command, args []string) error {
		md := guideMarkdown(command.SetupCommand(cfg.Commands.Setup), command.LaunchCommand(guideFile))

		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
		if err != nil {
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		}
		rendered, err := renderer.Render(md)
		if err != nil {
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), rendered)
		return nil
	},
}

func guideMarkdown(setup, launch string) string {
	var sb strings.Builder
	sb.WriteString("# patchpanel guide\n\n")
	sb.WriteString("## 1. Prepare the workspace\n\n")
	sb.WriteString("Download the patch CLI, the patch bundle and the integrations into one folder:\n\n")
	sb.WriteString("```powershell\n" + setup + "\n```\n\n")
	sb.WriteString("## 2. Build\n\n")
	sb.WriteString("Pick an app and patches, then run the command from `patchpanel command` in that folder.\n\n")
	sb.WriteString("## 3. Install\n\n")
	sb.WriteString("With a device connected over adb:\n\n")
	sb.WriteString("```powershell\n" + launch + "\n```\n")
	return sb.String()
}

func init() {
	guideCmd.Flags().StringVar(&guideFile, "file", "", "Input APK file name")
}
