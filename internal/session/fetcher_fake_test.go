package session

import (
	"context"
	"sync/atomic"

	"patchpanel/internal/catalog"
)

// fakeFetcher returns canned results. When gate is set every fetch waits
// for it (or for ctx) before answering.
type fakeFetcher struct {
	apps     []catalog.Application
	patches  []catalog.Patch
	repos    []catalog.SourceRepository
	sources  []catalog.GroundingLink
	verdicts map[string]catalog.Verdict

	gate    chan struct{}
	calls   atomic.Int32
	entered chan struct{}

	verifiedApp     catalog.Application
	verifiedPatches []catalog.Patch
}

func (f *fakeFetcher) wait(ctx context.Context) bool {
	f.calls.Add(1)
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate == nil {
		return ctx.Err() == nil
	}
	select {
	case <-f.gate:
		return true
	case <-ctx.Done():
		return false
	}
}

func (f *fakeFetcher) FetchApps(ctx context.Context) ([]catalog.Application, []catalog.GroundingLink) {
	if !f.wait(ctx) {
		return nil, nil
	}
	return f.apps, f.sources
}

func (f *fakeFetcher) FetchPatches(ctx context.Context) ([]catalog.Patch, []catalog.GroundingLink) {
	if !f.wait(ctx) {
		return nil, nil
	}
	return catalog.ClonePatches(f.patches), f.sources
}

func (f *fakeFetcher) FetchRepos(ctx context.Context) ([]catalog.SourceRepository, []catalog.GroundingLink) {
	if !f.wait(ctx) {
		return nil, nil
	}
	return f.repos, nil
}

func (f *fakeFetcher) VerifyCompatibility(ctx context.Context, app catalog.Application, patches []catalog.Patch) (map[string]catalog.Verdict, []catalog.GroundingLink) {
	f.verifiedApp = app
	f.verifiedPatches = patches
	if !f.wait(ctx) {
		return map[string]catalog.Verdict{}, nil
	}
	return f.verdicts, f.sources
}
