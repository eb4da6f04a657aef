package catalog

// MergeApps appends fetched applications whose package identifier is not
// already present. Existing entries are never replaced. Duplicates within
// fetched collapse onto their first occurrence.
func MergeApps(existing, fetched []Application) []Application {
	out := make([]Application, 0, len(existing)+len(fetched))
	out = append(out, existing...)
	seen := make(map[string]struct{}, len(out))
	for _, a := range existing {
		seen[a.PackageName] = struct{}{}
	}
	for _, a := range fetched {
		if _, ok := seen[a.PackageName]; ok {
			continue
		}
		seen[a.PackageName] = struct{}{}
		out = append(out, a)
	}
	return out
}

// MergePatches appends fetched patches whose identifier is not already
// present. Existing entries keep their enabled flag and status.
func MergePatches(existing, fetched []Patch) []Patch {
	out := ClonePatches(existing)
	if out == nil {
		out = make([]Patch, 0, len(fetched))
	}
	seen := make(map[string]struct{}, len(out))
	for _, p := range existing {
		seen[p.ID] = struct{}{}
	}
	for _, p := range fetched {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, clonePatch(p))
	}
	return out
}

// ReplaceRepos returns fetched when it carries data and keeps current otherwise.
// Repository data is display-only, so there is nothing to merge.
func ReplaceRepos(current, fetched []SourceRepository) []SourceRepository {
	if len(fetched) == 0 {
		return current
	}
	out := make([]SourceRepository, len(fetched))
	copy(out, fetched)
	return out
}

// ApplyVerification overwrites status and note on the patches named in results.
// Patches absent from results are returned unchanged.
func ApplyVerification(patches []Patch, results map[string]Verdict) []Patch {
	out := ClonePatches(patches)
	for i, p := range out {
		v, ok := results[p.ID]
		if !ok {
			continue
		}
		out[i].Status = v.Status
		out[i].Note = v.Note
	}
	return out
}

// Verdict is one verification result for a patch.
type Verdict struct {
	Status CompatibilityStatus `json:"status"`
	Note   string              `json:"note,omitempty"`
}
