package catalog

import "strings"

// IsCompatible reports whether p may be offered for app.
//
// Incompatible patches are never offered. A patch without a compatible
// package list applies to every application; otherwise at least one declared
// package identifier must be a case-insensitive substring of the
// application's package identifier (com.example.app matches
// com.example.app.beta).
func IsCompatible(p Patch, app Application) bool {
	if p.EffectiveStatus() == StatusIncompatible {
		return false
	}
	if len(p.CompatibleApps) == 0 {
		return true
	}
	target := strings.ToLower(app.PackageName)
	for _, pkg := range p.CompatibleApps {
		if strings.Contains(target, strings.ToLower(pkg)) {
			return true
		}
	}
	return false
}

// ResolveCompatible returns the patches applicable to app, preserving input order.
func ResolveCompatible(patches []Patch, app Application) []Patch {
	out := make([]Patch, 0, len(patches))
	for _, p := range patches {
		if IsCompatible(p, app) {
			out = append(out, clonePatch(p))
		}
	}
	return out
}

// FilterByQuery narrows an already resolved set by a free-text query matched
// against name and description. An empty query returns the input unchanged.
func FilterByQuery(resolved []Patch, query string) []Patch {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return resolved
	}
	out := make([]Patch, 0, len(resolved))
	for _, p := range resolved {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Description), q) {
			out = append(out, p)
		}
	}
	return out
}

// SelectedFor returns the enabled patches that are compatible with app.
// Enablement is applied first, then the compatibility predicate.
func SelectedFor(patches []Patch, app Application) []Patch {
	out := make([]Patch, 0, len(patches))
	for _, p := range patches {
		if p.Enabled && IsCompatible(p, app) {
			out = append(out, clonePatch(p))
		}
	}
	return out
}
