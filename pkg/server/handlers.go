package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"mercator-hq/conduit/pkg/providers"
	"mercator-hq/conduit/pkg/routing"
	"mercator-hq/conduit/pkg/telemetry/logging"
)

// PreferredProvidersHeader lists provider names, comma separated, to try
// before the rest of the candidates.
const PreferredProvidersHeader = "X-Preferred-Providers"

// ProvidersResponse is the body of GET /v1/providers.
type ProvidersResponse struct {
	Strategy  string                     `json:"strategy"`
	Providers []routing.ProviderSnapshot `json:"providers"`
}

// ModelsResponse is the body of GET /v1/models.
type ModelsResponse struct {
	Models []string `json:"models"`
}

// activeRouter returns the installed router or answers 503.
func (s *Server) activeRouter(w http.ResponseWriter) *routing.Router {
	r := s.Router()
	if r == nil {
		writeError(w, http.StatusServiceUnavailable, ErrorTypeServiceUnavailable, CodeRouterUnavailable,
			"no router is installed")
	}
	return r
}

func (s *Server) handleCompletion(w http.ResponseWriter, r *http.Request) {
	router := s.activeRouter(w)
	if router == nil {
		return
	}

	var req providers.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorTypeInvalidRequest, CodeRequestTooLarge,
				"request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, CodeInvalidJSON,
			"invalid JSON: "+err.Error())
		return
	}

	var opts []routing.ExecuteOption
	if preferred := parseList(r.Header.Get(PreferredProvidersHeader)); len(preferred) > 0 {
		opts = append(opts, routing.WithPreferredProviders(preferred...))
	}

	ctx := r.Context()
	if req.Model != "" {
		ctx = logging.WithModel(ctx, req.Model)
	}

	resp, err := router.Execute(ctx, &req, opts...)
	if err != nil {
		status, typ, code := classify(err)
		logging.FromContext(ctx, s.logger).Warn("completion failed",
			"status", status,
			"code", code,
			"error", err,
		)
		writeError(w, status, typ, code, err.Error())
		return
	}

	if s.collector != nil {
		s.collector.RecordUsage(resp.Provider, resp.Model, resp.Usage)
		if cost, ok := resp.Metadata[routing.MetaCostUSD].(float64); ok {
			s.collector.RecordCost(resp.Provider, resp.Model, cost)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	router := s.activeRouter(w)
	if router == nil {
		return
	}
	writeJSON(w, http.StatusOK, ModelsResponse{Models: router.Models()})
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	router := s.activeRouter(w)
	if router == nil {
		return
	}
	writeJSON(w, http.StatusOK, ProvidersResponse{
		Strategy:  router.Strategy(),
		Providers: router.Snapshots(),
	})
}

func (s *Server) handleProvider(w http.ResponseWriter, r *http.Request) {
	router := s.activeRouter(w)
	if router == nil {
		return
	}

	snap, err := router.Snapshot(r.PathValue("name"))
	if err != nil {
		status, typ, code := classify(err)
		writeError(w, status, typ, code, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSetEnabled(enabled bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		router := s.activeRouter(w)
		if router == nil {
			return
		}

		name := r.PathValue("name")
		set := router.Disable
		if enabled {
			set = router.Enable
		}
		if err := set(name); err != nil {
			status, typ, code := classify(err)
			writeError(w, status, typ, code, err.Error())
			return
		}

		snap, _ := router.Snapshot(name)
		writeJSON(w, http.StatusOK, snap)
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	router := s.activeRouter(w)
	if router == nil {
		return
	}
	writeJSON(w, http.StatusOK, router.Stats())
}

func (s *Server) handleResetStats(w http.ResponseWriter, r *http.Request) {
	router := s.activeRouter(w)
	if router == nil {
		return
	}
	router.ResetStats()
	w.WriteHeader(http.StatusNoContent)
}

// parseList splits a comma separated header value, dropping blanks.
func parseList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
