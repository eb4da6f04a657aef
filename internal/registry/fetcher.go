// Package registry fetches supplementary catalog data (applications, patches,
// source repositories) from the grounded generative backend and normalizes the
// untrusted JSON it embeds into catalog records. Fetch operations never fail:
// any error degrades to an empty result which the caller merges as a no-op.
package registry

import (
	"context"

	"go.uber.org/zap"

	"patchpanel/internal/catalog"
	"patchpanel/internal/logging"
	"patchpanel/internal/perception"
)

// Fetcher performs the remote catalog queries over a Generator. Wrap the
// generator with perception.WithRetry to get rate-limit backoff.
type Fetcher struct {
	gen perception.Generator
}

// NewFetcher creates a Fetcher.
func NewFetcher(gen perception.Generator) *Fetcher {
	return &Fetcher{gen: gen}
}

// FetchApps asks for the supported applications. Records without a package
// identifier are dropped.
func (f *Fetcher) FetchApps(ctx context.Context) ([]catalog.Application, []catalog.GroundingLink) {
	data, sources, ok := f.query(ctx, "apps", appsPrompt)
	if !ok {
		return nil, nil
	}
	var apps []catalog.Application
	dropped := 0
	for _, obj := range records(data, "apps", "applications") {
		app, ok := normalizeApp(obj)
		if !ok {
			dropped++
			continue
		}
		apps = append(apps, app)
	}
	if dropped > 0 {
		logging.Get(logging.CategorySync).Debug("dropped applications without package name",
			zap.Int("count", dropped))
	}
	return apps, sources
}

// FetchPatches asks for the patch registry. Every patch arrives disabled with
// unknown status.
func (f *Fetcher) FetchPatches(ctx context.Context) ([]catalog.Patch, []catalog.GroundingLink) {
	data, sources, ok := f.query(ctx, "patches", patchesPrompt)
	if !ok {
		return nil, nil
	}
	var patches []catalog.Patch
	for _, obj := range records(data, "patches") {
		patches = append(patches, normalizePatch(obj))
	}
	return patches, sources
}

// FetchRepos asks for official and community patch repositories.
func (f *Fetcher) FetchRepos(ctx context.Context) ([]catalog.SourceRepository, []catalog.GroundingLink) {
	data, sources, ok := f.query(ctx, "repos", reposPrompt)
	if !ok {
		return nil, nil
	}
	var repos []catalog.SourceRepository
	for _, obj := range records(data, "repos", "repositories") {
		repos = append(repos, normalizeRepo(obj))
	}
	return repos, sources
}

// VerifyCompatibility asks for a strict compatibility verdict of patches
// against app. Only ids present in patches are returned; unrecognised status
// strings map to unknown. On failure the map is empty.
func (f *Fetcher) VerifyCompatibility(ctx context.Context, app catalog.Application, patches []catalog.Patch) (map[string]catalog.Verdict, []catalog.GroundingLink) {
	verdicts := make(map[string]catalog.Verdict)
	if len(patches) == 0 {
		return verdicts, nil
	}
	data, sources, ok := f.query(ctx, "verify", verifyPrompt(app, patches))
	if !ok {
		return verdicts, nil
	}

	wanted := make(map[string]struct{}, len(patches))
	for _, p := range patches {
		wanted[p.ID] = struct{}{}
	}
	for id, v := range parseVerdicts(data) {
		if _, ok := wanted[id]; ok {
			verdicts[id] = v
		}
	}
	return verdicts, sources
}

// parseVerdicts accepts either [{id, status, note}] or an object keyed by
// patch id whose values are a status string or {status, note}.
func parseVerdicts(data any) map[string]catalog.Verdict {
	out := make(map[string]catalog.Verdict)
	switch v := data.(type) {
	case []any:
		for _, obj := range records(v) {
			id := str(obj["id"])
			if id == "" {
				continue
			}
			out[id] = catalog.Verdict{Status: catalog.ParseStatus(str(obj["status"])), Note: str(obj["note"])}
		}
	case map[string]any:
		for id, val := range v {
			switch entry := val.(type) {
			case string:
				out[id] = catalog.Verdict{Status: catalog.ParseStatus(entry)}
			case map[string]any:
				out[id] = catalog.Verdict{Status: catalog.ParseStatus(str(entry["status"])), Note: str(entry["note"])}
			}
		}
	}
	return out
}

// query issues one grounded request and decodes its embedded JSON. ok is
// false when the call failed or the text carried no JSON.
func (f *Fetcher) query(ctx context.Context, op, prompt string) (any, []catalog.GroundingLink, bool) {
	log := logging.Get(logging.CategorySync)
	if f == nil || f.gen == nil {
		return nil, nil, false
	}

	resp, err := f.gen.Generate(ctx, prompt)
	if err != nil {
		log.Warn("remote fetch failed", zap.String("op", op), zap.Error(err))
		return nil, nil, false
	}
	sources := perception.ExtractSources(resp)

	data, err := perception.ParseEmbeddedJSON(perception.ResponseText(resp))
	if err != nil {
		log.Warn("remote response carried no usable JSON", zap.String("op", op), zap.Error(err))
		return nil, nil, false
	}
	log.Debug("remote fetch completed", zap.String("op", op), zap.Int("sources", len(sources)))
	return data, sources, true
}
