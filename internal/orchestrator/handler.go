package orchestrator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"draft-orchestrator/internal/platform/metrics"
	"draft-orchestrator/internal/segment"
	"draft-orchestrator/internal/timeline"
	"draft-orchestrator/internal/variant"

	"github.com/go-chi/chi/v5"
)

// Error codes carried in error bodies.
const (
	codeDraftNotFound      = 1001
	codeSegmentNotFound    = 1101
	codeTrackNotFound      = 1201
	codeTrackTypeMismatch  = 1202
	codeInvalidOperation   = 1301
	codeInvalidSegmentType = 1302
	codeValidationFailed   = 1400
	codeInternal           = 1500
)

// Default canvas of a draft created without dimensions.
const (
	defaultWidth  = 1920
	defaultHeight = 1080
	defaultFPS    = 30
)

// Handler exposes orchestrator HTTP endpoints using go-chi.
type Handler struct {
	svc     *Service
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler returns a Handler that uses the given Service, Logger, and optional Metrics.
// Metrics may be nil to disable metric recording (e.g. in tests).
func NewHandler(svc *Service, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, log: log, metrics: m}
}

// Routes mounts every endpoint on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/segments", func(r chi.Router) {
		r.Post("/", h.CreateSegment)
		r.Route("/{segment_id}", func(r chi.Router) {
			r.Get("/", h.GetSegment)
			r.Delete("/", h.DeleteSegment)
			r.Post("/operations", h.ApplyOperation)
			r.Get("/operations", h.ListOperations)
		})
	})
	r.Route("/drafts", func(r chi.Router) {
		r.Post("/", h.CreateDraft)
		r.Get("/", h.ListDrafts)
		r.Route("/{draft_id}", func(r chi.Router) {
			r.Get("/", h.GetDraft)
			r.Delete("/", h.DeleteDraft)
			r.Post("/tracks", h.AddTrack)
			r.Post("/segments", h.AttachSegment)
			r.Get("/summary", h.Summary)
		})
	})
	r.Post("/variants/resolve", h.ResolveVariant)
}

type createSegmentRequest struct {
	Kind   string         `json:"segment_type"`
	Config map[string]any `json:"config"`
}

type createSegmentResponse struct {
	ID   string `json:"segment_id"`
	Kind string `json:"segment_type"`
}

// CreateSegment handles POST /segments.
// Body: { "segment_type": "audio", "config": { "material_url": "a.mp3", ... } }.
func (h *Handler) CreateSegment(w http.ResponseWriter, r *http.Request) {
	var req createSegmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Config == nil {
		req.Config = map[string]any{}
	}

	res, err := h.svc.ResolveResource(req.Kind, req.Config)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := h.svc.CreateSegment(req.Kind, req.Config, res)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.IncSegmentsCreated(req.Kind)
	}
	writeJSON(w, http.StatusCreated, createSegmentResponse{ID: id, Kind: req.Kind})
}

// GetSegment handles GET /segments/{segment_id}.
func (h *Handler) GetSegment(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.GetSegment(chi.URLParam(r, "segment_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// DeleteSegment handles DELETE /segments/{segment_id}.
func (h *Handler) DeleteSegment(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteSegment(chi.URLParam(r, "segment_id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type applyOperationRequest struct {
	Kind        string         `json:"operation_type"`
	Data        map[string]any `json:"data"`
	SegmentKind string         `json:"segment_type,omitempty"`
}

type applyOperationResponse struct {
	Operation segment.OperationRecord `json:"operation"`
	Mode      Mode                    `json:"mode"`
}

// ApplyOperation handles POST /segments/{segment_id}/operations.
// Body: { "operation_type": "add_fade", "data": { ... }, "segment_type": "audio" }.
// segment_type is optional and rejects the call with 409 when the segment is
// of another kind. Deferred mode answers 202.
func (h *Handler) ApplyOperation(w http.ResponseWriter, r *http.Request) {
	segmentID := chi.URLParam(r, "segment_id")

	var req applyOperationRequest
	if !h.decode(w, r, &req) {
		return
	}
	var kinds []string
	if req.SegmentKind != "" {
		kinds = []string{req.SegmentKind}
	}

	rec, err := h.svc.ApplyOperation(segmentID, req.Kind, req.Data, kinds...)
	if h.metrics != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		h.metrics.IncOperations(req.Kind, result)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	status := http.StatusOK
	if !rec.Applied {
		status = http.StatusAccepted
	}
	writeJSON(w, status, applyOperationResponse{Operation: rec, Mode: h.svc.Mode()})
}

// ListOperations handles GET /segments/{segment_id}/operations.
func (h *Handler) ListOperations(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.Operations(chi.URLParam(r, "segment_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if recs == nil {
		recs = []segment.OperationRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

type createDraftRequest struct {
	Name   string `json:"draft_name"`
	Width  *int   `json:"width"`
	Height *int   `json:"height"`
	FPS    *int   `json:"fps"`
}

// CreateDraft handles POST /drafts.
// Body: { "draft_name": "demo", "width": 1920, "height": 1080, "fps": 30 }.
func (h *Handler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var req createDraftRequest
	if !h.decode(w, r, &req) {
		return
	}
	name := req.Name
	if name == "" {
		name = "draft"
	}
	id, err := h.svc.CreateDraft(name, intOr(req.Width, defaultWidth), intOr(req.Height, defaultHeight), intOr(req.FPS, defaultFPS))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.log.Info("draft created", slog.String("draft_id", id), slog.String("name", name))
	if h.metrics != nil {
		h.metrics.IncDraftsCreated()
	}
	writeJSON(w, http.StatusCreated, map[string]string{"draft_id": id})
}

// ListDrafts handles GET /drafts.
func (h *Handler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListDrafts())
}

// GetDraft handles GET /drafts/{draft_id}.
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.GetDraft(chi.URLParam(r, "draft_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// DeleteDraft handles DELETE /drafts/{draft_id}.
func (h *Handler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	draftID := chi.URLParam(r, "draft_id")
	if err := h.svc.DeleteDraft(draftID); err != nil {
		h.fail(w, r, err)
		return
	}
	h.log.Info("draft deleted", slog.String("draft_id", draftID))
	w.WriteHeader(http.StatusNoContent)
}

type addTrackRequest struct {
	Type string `json:"track_type"`
	Name string `json:"track_name"`
}

// AddTrack handles POST /drafts/{draft_id}/tracks.
// Body: { "track_type": "video", "track_name": "overlay" }.
func (h *Handler) AddTrack(w http.ResponseWriter, r *http.Request) {
	var req addTrackRequest
	if !h.decode(w, r, &req) {
		return
	}
	name, err := h.svc.AddTrack(chi.URLParam(r, "draft_id"), req.Type, req.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"track_name": name})
}

type attachSegmentRequest struct {
	SegmentID string `json:"segment_id"`
	TrackSelector
}

// AttachSegment handles POST /drafts/{draft_id}/segments.
// Body: { "segment_id": "...", "track_name": "audio_0" } or { ..., "track_index": 1 }.
func (h *Handler) AttachSegment(w http.ResponseWriter, r *http.Request) {
	var req attachSegmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.SegmentID == "" {
		h.fail(w, r, fmt.Errorf("%w: segment_id is required", segment.ErrInvalidConfig))
		return
	}
	res, err := h.svc.AttachSegment(chi.URLParam(r, "draft_id"), req.SegmentID, req.TrackSelector)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if h.metrics != nil {
		h.metrics.IncSegmentsAttached()
	}
	writeJSON(w, http.StatusOK, res)
}

// Summary handles GET /drafts/{draft_id}/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Summary(chi.URLParam(r, "draft_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, out)
}

type resolveRequest struct {
	Set   string `json:"set"`
	Value string `json:"value"`
	Field string `json:"field"`
}

type resolveResponse struct {
	Catalog   string `json:"catalog"`
	Name      string `json:"name"`
	Title     string `json:"title,omitempty"`
	Qualified string `json:"qualified"`
}

// ResolveVariant handles POST /variants/resolve.
// Body: { "set": "masks", "value": "MaskType.圆形", "field": "mask_type" }.
func (h *Handler) ResolveVariant(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !h.decode(w, r, &req) {
		return
	}
	v, err := h.svc.ResolveVariant(req.Set, req.Value, req.Field)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resolveResponse{
		Catalog:   v.Catalog,
		Name:      v.Name(),
		Title:     v.Member.Title,
		Qualified: v.String(),
	})
}

type errorBody struct {
	Error       string   `json:"error"`
	Code        int      `json:"code"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// decode reads a JSON body into dst. It answers 400 and reports false on a
// malformed body. An empty body decodes as {}.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(r.Body)
	if err == nil && len(bytes.TrimSpace(body)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		err = dec.Decode(dst)
	}
	if err != nil {
		h.log.Debug("invalid request body",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body: " + err.Error(), Code: codeValidationFailed})
		return false
	}
	return true
}

// fail maps err onto a status and error body.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	body := errorBody{Error: err.Error(), Code: code}

	var (
		re *variant.ResolutionError
		uk *segment.UnsupportedKindError
	)
	switch {
	case errors.As(err, &re):
		body.Suggestions = re.Suggestions
	case errors.As(err, &uk) && uk.Category == "operation":
		body.Suggestions = segment.OperationKinds()
	}

	if status >= http.StatusInternalServerError {
		h.log.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
	} else {
		h.log.Debug("request rejected",
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.String("error", err.Error()))
	}
	writeJSON(w, status, body)
}

func classify(err error) (status, code int) {
	var (
		nf *NotFoundError
		km *KindMismatchError
		uk *segment.UnsupportedKindError
	)
	switch {
	case errors.As(err, &nf):
		if nf.Scope == ScopeDraft {
			return http.StatusNotFound, codeDraftNotFound
		}
		return http.StatusNotFound, codeSegmentNotFound
	case errors.As(err, &km):
		return http.StatusConflict, codeInvalidSegmentType
	case errors.As(err, &uk):
		if uk.Category == "operation" {
			return http.StatusBadRequest, codeInvalidOperation
		}
		return http.StatusBadRequest, codeInvalidSegmentType
	case errors.Is(err, timeline.ErrTrackNotFound):
		return http.StatusNotFound, codeTrackNotFound
	case errors.Is(err, timeline.ErrTrackTypeMismatch):
		return http.StatusConflict, codeTrackTypeMismatch
	case errors.Is(err, timeline.ErrOverlap),
		errors.Is(err, timeline.ErrAmbiguousTrack),
		errors.Is(err, timeline.ErrTrackExists):
		return http.StatusConflict, codeValidationFailed
	case errors.Is(err, ErrRemoteResource),
		errors.Is(err, variant.ErrUnknownSet),
		segment.IsCallerError(err):
		return http.StatusBadRequest, codeValidationFailed
	}
	return http.StatusInternalServerError, codeInternal
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func intOr(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}
