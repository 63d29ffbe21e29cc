package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/regionsync/pkg/buildinfo"
	"github.com/matzehuels/regionsync/pkg/errors"
	"github.com/matzehuels/regionsync/pkg/graph"
	"github.com/matzehuels/regionsync/pkg/pipeline"
	"github.com/matzehuels/regionsync/pkg/render/nodelink"
)

// =============================================================================
// Request and response bodies
// =============================================================================

// SyncRequest is the body of POST /v1/sync.
type SyncRequest struct {
	Document graph.Document   `json:"document"`
	Options  pipeline.Options `json:"options"`
}

// RouteRequest is the body of POST /v1/route.
type RouteRequest struct {
	Document graph.Document        `json:"document"`
	Layout   string                `json:"layout"`
	Options  pipeline.RouteOptions `json:"options"`
}

// ColorRequest is the body of POST /v1/colors.
type ColorRequest struct {
	Document graph.Document        `json:"document"`
	Layout   string                `json:"layout"`
	Options  pipeline.ColorOptions `json:"options"`
}

// RegionsRequest is the body of POST /v1/regions/{instance}.
type RegionsRequest struct {
	Document graph.Document   `json:"document"`
	Options  nodelink.Options `json:"options"`
}

func (r *SyncRequest) document() *graph.Document    { return &r.Document }
func (r *RouteRequest) document() *graph.Document   { return &r.Document }
func (r *ColorRequest) document() *graph.Document   { return &r.Document }
func (r *RegionsRequest) document() *graph.Document { return &r.Document }

// Response is returned by the layout endpoints.
type Response struct {
	Document     graph.Document  `json:"document"`
	Target       string          `json:"target"`
	DocumentHash string          `json:"document_hash"`
	Report       pipeline.Report `json:"report"`
	Nodes        int             `json:"nodes"`
	Links        int             `json:"links"`
	DurationMS   int64           `json:"duration_ms"`
	CacheHit     bool            `json:"cache_hit"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func newResponse(res *pipeline.Result) Response {
	return Response{
		Document:     res.Document,
		Target:       res.Target,
		DocumentHash: res.DocumentHash,
		Report:       res.Report,
		Nodes:        res.Stats.Nodes,
		Links:        res.Stats.Links,
		DurationMS:   res.Stats.Duration.Milliseconds(),
		CacheHit:     res.CacheHit,
	}
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.Options.Logger = s.Logger
	res, err := s.Runner.Sync(r.Context(), req.Document, req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newResponse(res))
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.Options.Logger = s.Logger
	res, err := s.Runner.Route(r.Context(), req.Document, defaultLayout(req.Layout), req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newResponse(res))
}

func (s *Server) handleColors(w http.ResponseWriter, r *http.Request) {
	var req ColorRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.Options.Logger = s.Logger
	res, err := s.Runner.Colors(r.Context(), req.Document, defaultLayout(req.Layout), req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newResponse(res))
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	instance := chi.URLParam(r, "instance")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatJSON
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidOptions, err, "format"))
		return
	}
	var req RegionsRequest
	if !s.decode(w, r, &req) {
		return
	}

	switch format {
	case pipeline.FormatJSON:
		o, err := s.Runner.Regions(req.Document, instance)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, o)
	default:
		w.Header().Set("Content-Type", contentTypes[format])
		if err := s.Runner.WriteRegions(r.Context(), w, req.Document, instance, format, req.Options); err != nil {
			s.writeError(w, r, err)
		}
	}
}

var contentTypes = map[string]string{
	pipeline.FormatDOT: "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatSVG: "image/svg+xml",
}

// =============================================================================
// Helpers
// =============================================================================

// decode reads a JSON body into v and validates its document. It reports
// whether both succeeded; on failure the error response has been written.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{ document() *graph.Document }) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body"))
		return false
	}
	if err := v.document().Validate(); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidDocument, err, "invalid document"))
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request error", "path", r.URL.Path, "err", err)
	}
	code := string(errors.GetCode(err))
	if code == "" {
		code = string(errors.ErrCodeInternal)
	}
	writeJSON(w, status, ErrorResponse{Code: code, Error: err.Error()})
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidOptions,
		errors.ErrCodeInvalidDocument, errors.ErrCodeInvalidID:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeRegionNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeContractViolation:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeCancelled:
		return http.StatusServiceUnavailable
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case errors.ErrCodeTransaction:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func defaultLayout(id string) string {
	if id == "" {
		return graph.RootLayout
	}
	return id
}
