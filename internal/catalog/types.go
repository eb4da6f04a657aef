// Package catalog holds the patch catalog domain: target applications,
// patches, source repositories, the compatibility resolver and the
// owner-side merge policy applied after a remote fetch.
package catalog

import "strings"

// CompatibilityStatus is the verification outcome of a patch against an application.
type CompatibilityStatus string

const (
	StatusVerified     CompatibilityStatus = "verified"
	StatusWarning      CompatibilityStatus = "warning"
	StatusIncompatible CompatibilityStatus = "incompatible"
	StatusUnknown      CompatibilityStatus = "unknown"
)

// ParseStatus maps free text onto a known status. Anything unrecognised is unknown.
func ParseStatus(s string) CompatibilityStatus {
	switch CompatibilityStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusVerified:
		return StatusVerified
	case StatusWarning:
		return StatusWarning
	case StatusIncompatible:
		return StatusIncompatible
	default:
		return StatusUnknown
	}
}

// Application is an installable target program a patch build is produced for.
type Application struct {
	ID                 string `json:"id" yaml:"id"`
	Name               string `json:"name" yaml:"name"`
	Icon               string `json:"icon" yaml:"icon"`
	IconURL            string `json:"iconUrl,omitempty" yaml:"icon_url,omitempty"`
	PackageName        string `json:"packageName" yaml:"package_name"`
	RecommendedVersion string `json:"recommendedVersion,omitempty" yaml:"recommended_version,omitempty"`
}

// Patch is one optional modification unit.
type Patch struct {
	ID             string              `json:"id" yaml:"id"`
	Name           string              `json:"name" yaml:"name"`
	Description    string              `json:"description" yaml:"description"`
	Enabled        bool                `json:"enabled" yaml:"enabled"`
	Version        string              `json:"version,omitempty" yaml:"version,omitempty"`
	CompatibleApps []string            `json:"compatibleApps,omitempty" yaml:"compatible_apps,omitempty"`
	Status         CompatibilityStatus `json:"compatibilityStatus" yaml:"status,omitempty"`
	Note           string              `json:"compatibilityNote,omitempty" yaml:"note,omitempty"`
}

// EffectiveStatus returns the status, defaulting an empty value to unknown.
func (p Patch) EffectiveStatus() CompatibilityStatus {
	if p.Status == "" {
		return StatusUnknown
	}
	return p.Status
}

// SourceRepository is a community or official repository of the patch ecosystem.
type SourceRepository struct {
	ID          string `json:"id"`
	Owner       string `json:"owner"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Stars       int    `json:"stars"`
	LastUpdated string `json:"lastUpdated"`
	Branch      string `json:"branch"`
	Official    bool   `json:"isOfficial"`
}

// GroundingLink is a web source cited by a grounded model response.
type GroundingLink struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// clonePatch deep-copies the slice field so callers cannot alias catalog state.
func clonePatch(p Patch) Patch {
	if p.CompatibleApps != nil {
		apps := make([]string, len(p.CompatibleApps))
		copy(apps, p.CompatibleApps)
		p.CompatibleApps = apps
	}
	return p
}

// ClonePatches returns a deep copy of patches.
func ClonePatches(patches []Patch) []Patch {
	if patches == nil {
		return nil
	}
	out := make([]Patch, len(patches))
	for i, p := range patches {
		out[i] = clonePatch(p)
	}
	return out
}

// FindApp returns the application with the given id.
func FindApp(apps []Application, id string) (Application, bool) {
	for _, a := range apps {
		if a.ID == id {
			return a, true
		}
	}
	return Application{}, false
}
