package registry

import (
	"fmt"
	"strings"

	"patchpanel/internal/catalog"
)

const (
	appsPrompt = "List applications supported by ReVanced. For each, find the recommended APK version " +
		"(the most stable version for patching) and official Google Play icon. " +
		"Return JSON: [{id, name, icon, iconUrl, packageName, recommendedVersion}]."

	patchesPrompt = "Scrape the official ReVanced patches registry (https://revanced.app/patches). " +
		"Return a comprehensive JSON array of all available patches: [{id, name, description, compatibleApps: []}]."

	reposPrompt = "Find official and high-quality community ReVanced patch repositories on GitHub. " +
		"Include revanced/revanced-patches, inotia00/revanced-patches, and anddea/revanced-patches. " +
		"Return JSON: [{id, owner, name, description, url, stars, lastUpdated, branch, isOfficial}]."
)

func verifyPrompt(app catalog.Application, patches []catalog.Patch) string {
	ids := make([]string, 0, len(patches))
	for _, p := range patches {
		ids = append(ids, p.ID)
	}
	return fmt.Sprintf("STRICT COMPATIBILITY CHECK for %s (%s), version %s. Patches: %s. "+
		"Return JSON status mapping: [{id, status: verified|warning|incompatible|unknown, note}].",
		app.Name, app.PackageName, orDefault(app.RecommendedVersion, "Any"), strings.Join(ids, ", "))
}
