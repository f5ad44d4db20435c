package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/pipeview/pkg/buildinfo"
	"github.com/matzehuels/pipeview/pkg/config"
	"github.com/matzehuels/pipeview/pkg/errors"
	"github.com/matzehuels/pipeview/pkg/graph"
	"github.com/matzehuels/pipeview/pkg/pipeline"
	"github.com/matzehuels/pipeview/pkg/position"
)

// RunIDHeader carries the ID of a layout run.
const RunIDHeader = "X-Run-ID"

// LayoutRequest is the body of POST /v1/layouts. Config fields override the
// server defaults one by one.
type LayoutRequest struct {
	Graph   graph.Graph     `json:"graph"`
	Config  json.RawMessage `json:"config,omitempty"`
	Name    string          `json:"name,omitempty"`
	Fresh   bool            `json:"fresh,omitempty"`
	NoSave  bool            `json:"no_save,omitempty"`
	Refresh bool            `json:"refresh,omitempty"`
}

// LayoutResponse is the result of a layout run.
type LayoutResponse struct {
	RunID      string            `json:"run_id"`
	GraphHash  string            `json:"graph_hash"`
	Layout     graph.Layout      `json:"layout"`
	Restored   int               `json:"restored"`
	Rejected   map[string]string `json:"rejected,omitempty"`
	CacheHit   bool              `json:"cache_hit"`
	DurationMS int64             `json:"duration_ms"`
}

// PositionsResponse is a stored position map.
type PositionsResponse struct {
	Name      string       `json:"name"`
	Positions position.Map `json:"positions"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

func (s *Server) handleCreateLayout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if err := s.decode(w, r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	cfg, err := s.mergeConfig(req.Config)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if len(req.Graph.Nodes) == 0 {
		s.respondErr(w, errors.New(errors.ErrCodeInvalidInput, "graph has no nodes"))
		return
	}
	g, err := graph.ToDAG(req.Graph)
	if err != nil {
		s.respondErr(w, errors.Wrap(errors.ErrCodeInvalidGraph, err, "invalid graph"))
		return
	}

	runID := uuid.New().String()
	w.Header().Set(RunIDHeader, runID)
	logger := s.logger.With("run", runID)

	ctx, cancel := context.WithTimeout(r.Context(), s.runTimeout)
	defer cancel()

	start := time.Now()
	res, err := s.runner.Execute(ctx, g, pipeline.Options{
		Config:  cfg,
		Name:    req.Name,
		Fresh:   req.Fresh,
		NoSave:  req.NoSave,
		Refresh: req.Refresh,
		Logger:  logger,
	})
	if err != nil {
		logger.Warn("layout failed", "error", err)
		s.respondErr(w, err)
		return
	}

	resp := LayoutResponse{
		RunID:      runID,
		GraphHash:  res.GraphHash,
		Layout:     res.Layout,
		Restored:   res.Restored,
		CacheHit:   res.CacheInfo.LayoutHit,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if len(res.Rejected) > 0 {
		resp.Rejected = make(map[string]string, len(res.Rejected))
		for label, rerr := range res.Rejected {
			resp.Rejected[label] = errors.UserMessage(rerr)
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPositions(w http.ResponseWriter, r *http.Request) {
	name, ok := s.positionName(w, r)
	if !ok {
		return
	}
	m, err := s.runner.Store.Load(r.Context(), name)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if len(m) == 0 {
		s.respondErr(w, errors.New(errors.ErrCodeNotFound, "no positions saved under %q", name))
		return
	}
	s.respondJSON(w, http.StatusOK, PositionsResponse{Name: name, Positions: m})
}

func (s *Server) handlePutPositions(w http.ResponseWriter, r *http.Request) {
	name, ok := s.positionName(w, r)
	if !ok {
		return
	}
	var m position.Map
	if err := s.decode(w, r, &m); err != nil {
		s.respondErr(w, err)
		return
	}
	if _, rejected := position.DecodeAll(m); rejected != nil {
		details := make(map[string]string, len(rejected))
		for label, err := range rejected {
			details[label] = errors.UserMessage(err)
		}
		s.respondError(w, http.StatusBadRequest, ErrorResponse{
			Code:    string(errors.ErrCodeInvalidPosition),
			Message: "one or more positions are malformed",
			Details: details,
		})
		return
	}
	if err := s.runner.Store.Save(r.Context(), name, m); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, PositionsResponse{Name: name, Positions: m})
}

func (s *Server) handleDeletePositions(w http.ResponseWriter, r *http.Request) {
	name, ok := s.positionName(w, r)
	if !ok {
		return
	}
	if err := s.runner.Store.Delete(r.Context(), name); err != nil {
		s.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// positionName validates the {name} parameter and that a store exists.
func (s *Server) positionName(w http.ResponseWriter, r *http.Request) (string, bool) {
	if s.runner.Store == nil {
		s.respondErr(w, errors.New(errors.ErrCodeUnsupported, "no position store configured"))
		return "", false
	}
	name := chi.URLParam(r, "name")
	if err := errors.ValidateLayoutName(name); err != nil {
		s.respondErr(w, err)
		return "", false
	}
	return name, true
}

// mergeConfig applies the request config on top of the server defaults.
func (s *Server) mergeConfig(raw json.RawMessage) (config.Layout, error) {
	cfg := s.defaults
	if len(raw) > 0 {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return config.Layout{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
		}
	}
	if err := cfg.Validate(); err != nil {
		return config.Layout{}, err
	}
	return cfg, nil
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, resp ErrorResponse) {
	resp.Error = http.StatusText(status)
	s.respondJSON(w, status, resp)
}

// respondErr replies with the status and code of err.
func (s *Server) respondErr(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.respondError(w, status, ErrorResponse{
		Code:    string(errors.GetCode(err)),
		Message: errors.UserMessage(err),
	})
}
