package session

import (
	"patchpanel/internal/build"
	"patchpanel/internal/catalog"
)

// State is the whole panel state. Session hands out copies; a State value
// never changes underneath its holder.
type State struct {
	Apps    []catalog.Application
	Patches []catalog.Patch
	Repos   []catalog.SourceRepository
	Sources []catalog.GroundingLink

	SelectedAppID string
	Filename      string
	Query         string

	Logs  []catalog.LogEntry
	Build build.Machine

	Ready     bool
	Syncing   bool
	Verifying bool
}

// SelectedApp returns the selected application, falling back to the first
// one when the id is stale.
func (s State) SelectedApp() catalog.Application {
	if app, ok := catalog.FindApp(s.Apps, s.SelectedAppID); ok {
		return app
	}
	if len(s.Apps) > 0 {
		return s.Apps[0]
	}
	return catalog.Application{}
}

// CompatiblePatches is the resolver output for the selected application.
func (s State) CompatiblePatches() []catalog.Patch {
	return catalog.ResolveCompatible(s.Patches, s.SelectedApp())
}

// VisiblePatches applies the search query on top of CompatiblePatches.
func (s State) VisiblePatches() []catalog.Patch {
	return catalog.FilterByQuery(s.CompatiblePatches(), s.Query)
}

// SelectedPatches are the enabled patches that apply to the selected application.
func (s State) SelectedPatches() []catalog.Patch {
	return catalog.SelectedFor(s.Patches, s.SelectedApp())
}

func (s State) clone() State {
	out := s
	out.Apps = append([]catalog.Application(nil), s.Apps...)
	out.Patches = catalog.ClonePatches(s.Patches)
	out.Repos = append([]catalog.SourceRepository(nil), s.Repos...)
	out.Sources = append([]catalog.GroundingLink(nil), s.Sources...)
	out.Logs = append([]catalog.LogEntry(nil), s.Logs...)
	return out
}
