// Package command renders the shell strings the panel hands to the user:
// the patch-build invocation, the install helper and the setup one-liner.
package command

import (
	"fmt"
	"strings"

	"patchpanel/internal/catalog"
)

const (
	// NoFile is the sentinel filename meaning "no APK chosen yet".
	NoFile = "none"

	DefaultInput  = "input.apk"
	DefaultOutput = "Output.apk"

	program      = "java -jar revanced-cli.jar"
	patchBundle  = "patches.rvp"
	outputPrefix = "patched_"

	// DefaultSetup is the installer one-liner shown before the first build.
	DefaultSetup = "iwr -useb https://raw.githubusercontent.com/YOUR_USER/revanced-win-utility/main/setup.ps1 | iex"
)

// ResolveNames returns the input and output artifact names for filename.
func ResolveNames(filename string) (input, output string) {
	if filename == NoFile || filename == "" {
		return DefaultInput, DefaultOutput
	}
	return filename, outputPrefix + filename
}

// IncludeFlags renders the enabled and compatible patches as --include tokens.
func IncludeFlags(app catalog.Application, patches []catalog.Patch) string {
	selected := catalog.SelectedFor(patches, app)
	tokens := make([]string, 0, len(selected))
	for _, p := range selected {
		tokens = append(tokens, fmt.Sprintf(`--include "%s"`, p.ID))
	}
	return strings.Join(tokens, " ")
}

// Synthesize renders the patch-build command for app.
//
//	java -jar revanced-cli.jar patch -p patches.rvp -o <output> <input> <flags>
//
// With nothing selected the flag segment is empty and the string ends with
// the separator after the input name.
func Synthesize(app catalog.Application, patches []catalog.Patch, filename string) string {
	input, output := ResolveNames(filename)
	return fmt.Sprintf("%s patch -p %s -o %s %s %s", program, patchBundle, output, input, IncludeFlags(app, patches))
}

// LaunchCommand renders the install helper for the artifact produced from filename.
func LaunchCommand(filename string) string {
	_, output := ResolveNames(filename)
	return fmt.Sprintf(`adb install -r .\%s; Write-Host "Build Succeeded" -ForegroundColor Cyan`, output)
}

// SetupCommand returns the configured installer one-liner, or DefaultSetup.
func SetupCommand(configured string) string {
	if s := strings.TrimSpace(configured); s != "" {
		return s
	}
	return DefaultSetup
}
