package session

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"patchpanel/internal/build"
	"patchpanel/internal/catalog"
	"patchpanel/internal/logging"
)

// StartBuild checks the guards and, if they pass, starts a simulated run in
// the background. The returned channel yields the run's result once and is
// then closed. Guard failures change no state; only ErrNoPatches is logged.
//
// ctx bounds the whole run, so it must outlive the caller's request.
func (s *Session) StartBuild(ctx context.Context) (<-chan error, error) {
	log := logging.Get(logging.CategoryBuild)

	var started build.Machine
	err := s.update(EventBuild, func(st *State) error {
		if err := st.Build.Check(st.Ready, len(st.SelectedPatches())); err != nil {
			return err
		}
		next, err := st.Build.Start()
		if err != nil {
			return err
		}
		st.Build = next
		started = next
		s.appendLog(st, catalog.LevelInfo, build.StartMessage(st.SelectedApp().Name))
		return nil
	})
	if err != nil {
		if errors.Is(err, build.ErrNoPatches) {
			s.Log(catalog.LevelError, build.MsgNoPatches)
		}
		log.Debug("build rejected", zap.Error(err))
		return nil, err
	}

	done := make(chan error, 1)
	go func() {
		defer close(done)
		final, err := s.runner.Run(ctx, started, buildSink{s})
		log.Info("build finished", zap.Stringer("state", final), zap.Error(err))
		done <- err
	}()
	return done, nil
}

// Build runs StartBuild and waits for the run to finish.
func (s *Session) Build(ctx context.Context) error {
	done, err := s.StartBuild(ctx)
	if err != nil {
		return err
	}
	return <-done
}

// buildSink applies runner output to the session.
type buildSink struct {
	s *Session
}

func (b buildSink) Progress(m build.Machine) {
	_ = b.s.update(EventProgress, func(st *State) error {
		st.Build = m
		return nil
	})
}

func (b buildSink) Log(level catalog.LogLevel, msg string) {
	b.s.Log(level, msg)
}
