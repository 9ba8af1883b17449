package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/leeforge/essentials/http/binding"
	"github.com/leeforge/essentials/http/middleware"
	"github.com/leeforge/essentials/http/responder"
	"github.com/leeforge/essentials/logging"
	"github.com/leeforge/essentials/plugin"
	"go.uber.org/zap"
)

type installRequest struct {
	Parameters plugin.Parameters `json:"parameters"`
}

type parametersRequest struct {
	Parameters plugin.Parameters `json:"parameters" validate:"required"`
}

type restartRequest struct {
	Parameters plugin.Parameters `json:"parameters"`
	// Rebuild publishes persisted states before resuming, standing in for
	// an external rebuild of the application.
	Rebuild bool `json:"rebuild"`
}

// Result is the payload of every installer operation.
type Result struct {
	Success  bool             `json:"success"`
	Feedback []plugin.Message `json:"feedback"`
}

type dependencyView struct {
	PluginID string `json:"pluginId"`
	MinState string `json:"minInstallStateForInstalling,omitempty"`
}

type pluginView struct {
	ID                       string                 `json:"id"`
	Name                     string                 `json:"name"`
	State                    string                 `json:"state"`
	RebuildAfterInstallation bool                   `json:"rebuildAfterInstallation"`
	Dependencies             []dependencyView       `json:"dependencies,omitempty"`
	Parameters               []plugin.ParameterSpec `json:"parameters,omitempty"`
}

func viewOf(d *plugin.Descriptor) pluginView {
	v := pluginView{
		ID:                       d.ID,
		Name:                     d.DisplayName(),
		State:                    d.State.String(),
		RebuildAfterInstallation: d.RebuildAfterInstallation,
		Parameters:               d.Parameters,
	}
	for _, dep := range d.Dependencies {
		dv := dependencyView{PluginID: dep.PluginID}
		if dep.MinInstallStateForInstalling != nil {
			dv.MinState = dep.MinInstallStateForInstalling.String()
		}
		v.Dependencies = append(v.Dependencies, dv)
	}
	return v
}

func (s *Server) listPlugins(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	views := make([]pluginView, 0, s.plugins.Len())
	for _, d := range s.plugins.All() {
		views = append(views, viewOf(d))
	}
	s.mu.Unlock()

	responder.OK(w, r, views, took(r))
}

func (s *Server) getPlugin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	d, ok := s.plugins.Get(id)
	var view pluginView
	if ok {
		view = viewOf(d)
	}
	s.mu.Unlock()

	if !ok {
		responder.NotFound(w, r, "plugin "+id+" not found")
		return
	}
	responder.OK(w, r, view, took(r))
}

func (s *Server) install(w http.ResponseWriter, r *http.Request) {
	var req installRequest
	if !bind(w, r, &req, binding.OptionalJSON) {
		return
	}
	id := chi.URLParam(r, "id")

	fb := plugin.NewFeedback()
	s.mu.Lock()
	ok := s.machine.InstallWithDependencies(r.Context(), id, s.plugins, req.Parameters, fb)
	s.mu.Unlock()

	writeResult(w, r, ok, fb)
}

func (s *Server) installWithParameters(w http.ResponseWriter, r *http.Request) {
	var req parametersRequest
	if !bind(w, r, &req, binding.JSON) {
		return
	}
	id := chi.URLParam(r, "id")

	fb := plugin.NewFeedback()
	s.mu.Lock()
	ok := s.machine.InstallWithParameters(r.Context(), id, s.plugins, req.Parameters, fb)
	s.mu.Unlock()

	writeResult(w, r, ok, fb)
}

func (s *Server) restart(w http.ResponseWriter, r *http.Request) {
	var req restartRequest
	if !bind(w, r, &req, binding.OptionalJSON) {
		return
	}
	if req.Rebuild && s.rebuilder == nil {
		responder.BadRequest(w, r, "rebuild is not available")
		return
	}

	fb := plugin.NewFeedback()
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Rebuild {
		if _, err := s.rebuilder.Rebuild(r.Context()); err != nil {
			logging.FromContext(r.Context()).Error("rebuild failed", zap.Error(err))
			responder.FromError(w, r, err)
			return
		}
	}
	s.machine.SignalRestart(r.Context(), s.plugins, req.Parameters, fb)
	writeResult(w, r, true, fb)
}

// writeResult answers 200 on success and 422 otherwise; the feedback is in
// the body either way.
func writeResult(w http.ResponseWriter, r *http.Request, ok bool, fb *plugin.Feedback) {
	status := http.StatusOK
	if !ok {
		status = http.StatusUnprocessableEntity
	}
	responder.Write(w, r, status, Result{Success: ok, Feedback: fb.Messages()}, took(r))
}

func bind(w http.ResponseWriter, r *http.Request, v any, fn func(*http.Request, any) error) bool {
	err := fn(r, v)
	if err == nil {
		return true
	}
	if ve, ok := err.(binding.ValidationErrors); ok {
		details := make([]responder.FieldError, len(ve))
		for i, e := range ve {
			details[i] = responder.FieldError{Field: e.Field, Message: e.Message}
		}
		responder.ValidationError(w, r, details)
		return false
	}
	responder.BindError(w, r, err.Error())
	return false
}

func took(r *http.Request) responder.Option {
	return responder.WithTook(middleware.GetRequestDuration(r.Context()))
}
