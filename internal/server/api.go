package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"patchpanel/internal/build"
	"patchpanel/internal/catalog"
	"patchpanel/internal/command"
	"patchpanel/internal/logging"
	"patchpanel/internal/session"
)

func (s *Server) routes() {
	r := s.router

	r.HandleFunc("/api/status", s.status()).Methods(http.MethodGet)
	r.HandleFunc("/api/apps", s.apps()).Methods(http.MethodGet)
	r.HandleFunc("/api/apps/{id}/select", s.selectApp()).Methods(http.MethodPost)
	r.HandleFunc("/api/patches", s.patches()).Methods(http.MethodGet)
	r.HandleFunc("/api/patches/{id}/toggle", s.togglePatch()).Methods(http.MethodPost)
	r.HandleFunc("/api/repos", s.repos()).Methods(http.MethodGet)
	r.HandleFunc("/api/sources", s.sources()).Methods(http.MethodGet)
	r.HandleFunc("/api/command", s.command()).Methods(http.MethodGet)
	r.HandleFunc("/api/filename", s.filename()).Methods(http.MethodPut)
	r.HandleFunc("/api/sync", s.sync()).Methods(http.MethodPost)
	r.HandleFunc("/api/verify", s.verify()).Methods(http.MethodPost)
	r.HandleFunc("/api/build", s.build()).Methods(http.MethodPost)
	r.HandleFunc("/api/logs", s.logs()).Methods(http.MethodGet)
	r.HandleFunc("/api/logs", s.clearLogs()).Methods(http.MethodDelete)

	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
	})
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, errNotFound)
	})
}

// Status is the panel summary returned by several endpoints.
type Status struct {
	Ready         bool                `json:"ready"`
	Syncing       bool                `json:"syncing"`
	Verifying     bool                `json:"verifying"`
	RemoteEnabled bool                `json:"remoteEnabled"`
	SelectedApp   catalog.Application `json:"selectedApp"`
	Filename      string              `json:"filename"`
	Query         string              `json:"query"`
	Build         BuildStatus         `json:"build"`
	Selected      int                 `json:"selectedPatches"`
	Commands      Commands            `json:"commands"`
}

// BuildStatus is the build machine as JSON.
type BuildStatus struct {
	Phase    build.Phase `json:"phase"`
	Progress int         `json:"progress"`
}

// Commands holds the copyable shell strings.
type Commands struct {
	Build  string `json:"build"`
	Launch string `json:"launch"`
	Setup  string `json:"setup"`
	Input  string `json:"input"`
	Output string `json:"output"`
}

func (s *Server) statusOf(st session.State) Status {
	app := st.SelectedApp()
	input, output := command.ResolveNames(st.Filename)
	return Status{
		Ready:         st.Ready,
		Syncing:       st.Syncing,
		Verifying:     st.Verifying,
		RemoteEnabled: s.sess.RemoteEnabled(),
		SelectedApp:   app,
		Filename:      st.Filename,
		Query:         st.Query,
		Build:         BuildStatus{Phase: st.Build.Phase(), Progress: st.Build.Progress()},
		Selected:      len(st.SelectedPatches()),
		Commands: Commands{
			Build:  command.Synthesize(app, st.Patches, st.Filename),
			Launch: command.LaunchCommand(st.Filename),
			Setup:  s.sess.SetupCommand(),
			Input:  input,
			Output: output,
		},
	}
}

func (s *Server) status() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, s.statusOf(s.sess.Snapshot()))
	}
}

func (s *Server) apps() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := s.sess.Snapshot()
		respondJSON(w, http.StatusOK, map[string]any{
			"apps":          nonNil(st.Apps),
			"selectedAppId": st.SelectedApp().ID,
		})
	}
}

func (s *Server) selectApp() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.sess.SelectApp(mux.Vars(r)["id"]); err != nil {
			respondError(w, statusFor(err), err)
			return
		}
		respondJSON(w, http.StatusOK, s.statusOf(s.sess.Snapshot()))
	}
}

// patches lists the compatible patches of the selected application. The q
// parameter filters without changing the session query.
func (s *Server) patches() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := s.sess.Snapshot()
		visible := st.VisiblePatches()
		if q, ok := r.URL.Query()["q"]; ok && len(q) > 0 {
			visible = catalog.FilterByQuery(st.CompatiblePatches(), q[0])
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"app":     st.SelectedApp(),
			"patches": nonNil(visible),
		})
	}
}

func (s *Server) togglePatch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		enabled, err := s.sess.TogglePatch(id)
		if err != nil {
			respondError(w, statusFor(err), err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"id":      id,
			"enabled": enabled,
			"command": s.sess.Command(),
		})
	}
}

func (s *Server) repos() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, nonNil(s.sess.Snapshot().Repos))
	}
}

func (s *Server) sources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, nonNil(s.sess.Snapshot().Sources))
	}
}

func (s *Server) command() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, s.statusOf(s.sess.Snapshot()).Commands)
	}
}

type filenameRequest struct {
	Filename string `json:"filename"`
}

func (s *Server) filename() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req filenameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err)
			return
		}
		s.sess.SetFilename(req.Filename)
		respondJSON(w, http.StatusOK, s.statusOf(s.sess.Snapshot()).Commands)
	}
}

func (s *Server) sync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.sess.Snapshot().Syncing {
			respondError(w, http.StatusConflict, session.ErrSyncInProgress)
			return
		}
		s.background(func(ctx context.Context) {
			if err := s.sess.Sync(ctx); err != nil && !errors.Is(err, session.ErrSyncInProgress) {
				logging.Get(logging.CategoryServer).Warn("background sync failed", zap.Error(err))
			}
		})
		respondJSON(w, http.StatusAccepted, s.statusOf(s.sess.Snapshot()))
	}
}

func (s *Server) verify() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.sess.Verify(r.Context()); err != nil {
			respondError(w, statusFor(err), err)
			return
		}
		st := s.sess.Snapshot()
		respondJSON(w, http.StatusOK, map[string]any{
			"app":     st.SelectedApp(),
			"patches": nonNil(st.CompatiblePatches()),
		})
	}
}

func (s *Server) build() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		done, err := s.sess.StartBuild(s.bg)
		if err != nil {
			respondError(w, statusFor(err), err)
			return
		}
		s.background(func(context.Context) { <-done })
		respondJSON(w, http.StatusAccepted, s.statusOf(s.sess.Snapshot()))
	}
}

func (s *Server) logs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, nonNil(s.sess.Logs()))
	}
}

func (s *Server) clearLogs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.sess.ClearLogs()
		w.WriteHeader(http.StatusNoContent)
	}
}

// statusFor maps session and build errors onto HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrUnknownApp), errors.Is(err, session.ErrUnknownPatch):
		return http.StatusNotFound
	case errors.Is(err, build.ErrRunning),
		errors.Is(err, session.ErrSyncInProgress),
		errors.Is(err, session.ErrVerifyInProgress):
		return http.StatusConflict
	case errors.Is(err, build.ErrNotReady):
		return http.StatusPreconditionFailed
	case errors.Is(err, build.ErrNoPatches):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrRemoteDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
