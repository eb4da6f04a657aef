package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"patchpanel/internal/catalog"
	"patchpanel/internal/logging"
)

// Log lines emitted by Sync and Verify.
const (
	MsgSyncStart      = "POWER SHELL: Fetching remote sources..."
	MsgSyncDone       = "SUCCESS: Open-source registry synchronized."
	MsgSyncFailed     = "ERROR: Remote registry connection failed."
	MsgRemoteDisabled = "REMOTE: No API key configured. Using the built-in catalog."
)

// Sync fetches applications, patches and repositories concurrently and
// merges them into the catalog. A sync already in flight makes this call a
// no-op returning ErrSyncInProgress. Readiness is false while fetching; if
// ctx ends first, one error entry is logged, the catalog is left untouched
// and readiness stays false.
func (s *Session) Sync(ctx context.Context) error {
	log := logging.Get(logging.CategorySync)

	err := s.update(EventCatalog, func(st *State) error {
		if st.Syncing {
			return ErrSyncInProgress
		}
		st.Syncing = true
		st.Ready = false
		s.appendLog(st, catalog.LevelInfo, MsgSyncStart)
		return nil
	})
	if err != nil {
		return err
	}

	if s.fetcher == nil {
		log.Warn("remote sync skipped: no API key")
		return s.update(EventCatalog, func(st *State) error {
			st.Syncing = false
			st.Ready = true
			s.appendLog(st, catalog.LevelWarn, MsgRemoteDisabled)
			return nil
		})
	}

	var (
		apps     []catalog.Application
		patches  []catalog.Patch
		repos    []catalog.SourceRepository
		appSrc   []catalog.GroundingLink
		patchSrc []catalog.GroundingLink
		repoSrc  []catalog.GroundingLink
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		apps, appSrc = s.fetcher.FetchApps(gctx)
		return nil
	})
	g.Go(func() error {
		patches, patchSrc = s.fetcher.FetchPatches(gctx)
		return nil
	})
	g.Go(func() error {
		repos, repoSrc = s.fetcher.FetchRepos(gctx)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		log.Error("remote sync failed", zap.Error(err))
		_ = s.update(EventCatalog, func(st *State) error {
			st.Syncing = false
			s.appendLog(st, catalog.LevelError, MsgSyncFailed)
			return nil
		})
		return fmt.Errorf("sync: %w", err)
	}

	sources := mergeSources(appSrc, patchSrc, repoSrc)
	log.Info("remote sync completed",
		zap.Int("apps", len(apps)),
		zap.Int("patches", len(patches)),
		zap.Int("repos", len(repos)),
		zap.Int("sources", len(sources)))

	return s.update(EventCatalog, func(st *State) error {
		st.Apps = catalog.MergeApps(st.Apps, apps)
		st.Patches = catalog.MergePatches(st.Patches, patches)
		st.Repos = catalog.ReplaceRepos(st.Repos, repos)
		if len(sources) > 0 {
			st.Sources = sources
		}
		st.Syncing = false
		st.Ready = true
		s.appendLog(st, catalog.LevelSuccess, MsgSyncDone)
		return nil
	})
}

// Verify asks the remote backend to confirm the compatibility of every
// patch applicable to the selected application and records the verdicts.
func (s *Session) Verify(ctx context.Context) error {
	if s.fetcher == nil {
		s.Log(catalog.LevelWarn, MsgRemoteDisabled)
		return ErrRemoteDisabled
	}

	var (
		app     catalog.Application
		targets []catalog.Patch
	)
	err := s.update(EventCatalog, func(st *State) error {
		if st.Verifying {
			return ErrVerifyInProgress
		}
		st.Verifying = true
		app = st.SelectedApp()
		targets = st.CompatiblePatches()
		s.appendLog(st, catalog.LevelInfo,
			fmt.Sprintf("VERIFY: Checking %d patches against %s...", len(targets), app.Name))
		return nil
	})
	if err != nil {
		return err
	}

	verdicts, sources := s.fetcher.VerifyCompatibility(ctx, app, targets)
	logger().Info("verification completed",
		zap.String("app", app.PackageName),
		zap.Int("requested", len(targets)),
		zap.Int("verdicts", len(verdicts)))

	return s.update(EventCatalog, func(st *State) error {
		st.Verifying = false
		if len(verdicts) == 0 {
			s.appendLog(st, catalog.LevelWarn, fmt.Sprintf("VERIFY: No verdicts returned for %s.", app.Name))
			return nil
		}
		st.Patches = catalog.ApplyVerification(st.Patches, verdicts)
		if len(sources) > 0 {
			st.Sources = mergeSources(st.Sources, sources)
		}
		s.appendLog(st, catalog.LevelSuccess,
			fmt.Sprintf("VERIFY: Updated %d of %d patches for %s.", len(verdicts), len(targets), app.Name))
		return nil
	})
}

// mergeSources concatenates citation lists, dropping repeated URIs.
func mergeSources(lists ...[]catalog.GroundingLink) []catalog.GroundingLink {
	var out []catalog.GroundingLink
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, l := range list {
			if _, ok := seen[l.URI]; ok {
				continue
			}
			seen[l.URI] = struct{}{}
			out = append(out, l)
		}
	}
	return out
}
