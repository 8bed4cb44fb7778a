package orchestrator

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newTestRouter(t *testing.T, opts ...Option) *chi.Mux {
	t.Helper()
	h := NewHandler(newTestService(t, opts...), quietLogger(), nil)
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHandler_end_to_end(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/segments", map[string]any{
		"segment_type": "audio",
		"config":       audioConfig(),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create segment: %d %s", rec.Code, rec.Body)
	}
	segID := decodeBody[createSegmentResponse](t, rec).ID

	rec = do(t, r, http.MethodPost, "/segments/"+segID+"/operations", map[string]any{
		"operation_type": "add_fade",
		"data":           map[string]any{"in_duration": "1s", "out_duration": "0s"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("apply: %d %s", rec.Code, rec.Body)
	}
	if op := decodeBody[applyOperationResponse](t, rec); !op.Operation.Applied || op.Mode != ModeImmediate {
		t.Errorf("apply response %+v", op)
	}

	rec = do(t, r, http.MethodPost, "/drafts", map[string]any{"draft_name": "demo", "width": 1920, "height": 1080, "fps": 30})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create draft: %d %s", rec.Code, rec.Body)
	}
	draftID := decodeBody[map[string]string](t, rec)["draft_id"]

	rec = do(t, r, http.MethodPost, "/drafts/"+draftID+"/segments", map[string]any{"segment_id": segID})
	if rec.Code != http.StatusOK {
		t.Fatalf("attach: %d %s", rec.Code, rec.Body)
	}

	rec = do(t, r, http.MethodGet, "/segments/"+segID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("attached segment: expected 404, got %d", rec.Code)
	}
	if body := decodeBody[errorBody](t, rec); body.Code != codeSegmentNotFound {
		t.Errorf("error body %+v", body)
	}

	rec = do(t, r, http.MethodGet, "/drafts/"+draftID+"/summary", nil)
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("summary: %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "fade=1.000s/0.000s") {
		t.Errorf("summary missing fade:\n%s", rec.Body)
	}
}

func TestHandler_CreateSegment_errors(t *testing.T) {
	r := newTestRouter(t)

	cases := []struct {
		name   string
		body   any
		status int
		code   int
	}{
		{"malformed_json", "not json", http.StatusBadRequest, codeValidationFailed},
		{"unknown_kind", map[string]any{"segment_type": "hologram"}, http.StatusBadRequest, codeInvalidSegmentType},
		{"missing_resource", map[string]any{"segment_type": "video", "config": map[string]any{}}, http.StatusBadRequest, codeValidationFailed},
		{"remote_resource", map[string]any{"segment_type": "audio", "config": map[string]any{"material_url": "https://x/a.mp3"}}, http.StatusBadRequest, codeValidationFailed},
		{"unknown_filter", map[string]any{"segment_type": "filter", "config": map[string]any{"filter_type": "nope"}}, http.StatusBadRequest, codeValidationFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, r, http.MethodPost, "/segments", tc.body)
			if rec.Code != tc.status {
				t.Fatalf("status %d, want %d: %s", rec.Code, tc.status, rec.Body)
			}
			if body := decodeBody[errorBody](t, rec); body.Code != tc.code || body.Error == "" {
				t.Errorf("error body %+v", body)
			}
		})
	}
}

func TestHandler_resolution_error_carries_suggestions(t *testing.T) {
	r := newTestRouter(t)
	rec := do(t, r, http.MethodPost, "/variants/resolve", map[string]any{"set": "masks", "value": "blob", "field": "mask_type"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	body := decodeBody[errorBody](t, rec)
	if len(body.Suggestions) == 0 || body.Suggestions[0] != "线性" {
		t.Errorf("suggestions %v", body.Suggestions)
	}
}

func TestHandler_ResolveVariant(t *testing.T) {
	r := newTestRouter(t)
	rec := do(t, r, http.MethodPost, "/variants/resolve", map[string]any{"set": "video_effects", "value": "复古 DV"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	got := decodeBody[resolveResponse](t, rec)
	if got.Qualified != "VideoSceneEffectType.复古DV" || got.Title != "复古 DV" {
		t.Errorf("resolve %+v", got)
	}

	rec = do(t, r, http.MethodPost, "/variants/resolve", map[string]any{"set": "nope", "value": "x"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown set: expected 400, got %d", rec.Code)
	}
}

func TestHandler_ApplyOperation_statuses(t *testing.T) {
	r := newTestRouter(t)
	rec := do(t, r, http.MethodPost, "/segments", map[string]any{"segment_type": "audio", "config": audioConfig()})
	segID := decodeBody[createSegmentResponse](t, rec).ID
	path := "/segments/" + segID + "/operations"

	t.Run("kind_mismatch", func(t *testing.T) {
		rec := do(t, r, http.MethodPost, path, map[string]any{"operation_type": "add_fade", "segment_type": "video"})
		if rec.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d", rec.Code)
		}
		if body := decodeBody[errorBody](t, rec); body.Code != codeInvalidSegmentType {
			t.Errorf("error body %+v", body)
		}
	})

	t.Run("unknown_operation", func(t *testing.T) {
		rec := do(t, r, http.MethodPost, path, map[string]any{"operation_type": "add_sparkles"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		body := decodeBody[errorBody](t, rec)
		if body.Code != codeInvalidOperation || !slices.Contains(body.Suggestions, "add_fade") {
			t.Errorf("error body %+v", body)
		}
	})

	t.Run("unsupported_on_segment", func(t *testing.T) {
		rec := do(t, r, http.MethodPost, path, map[string]any{"operation_type": "add_mask"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("missing_segment", func(t *testing.T) {
		rec := do(t, r, http.MethodPost, "/segments/nope/operations", map[string]any{"operation_type": "add_fade"})
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("journal_lists_applied_only", func(t *testing.T) {
		do(t, r, http.MethodPost, path, map[string]any{"operation_type": "add_keyframe", "data": map[string]any{"offset": 0, "value": 1}})
		rec := do(t, r, http.MethodGet, path, nil)
		recs := decodeBody[[]map[string]any](t, rec)
		if len(recs) != 1 || recs[0]["operation_type"] != "add_keyframe" {
			t.Errorf("operations %v", recs)
		}
	})
}

func TestHandler_deferred_mode_accepts(t *testing.T) {
	r := newTestRouter(t, WithMode(ModeDeferred))
	rec := do(t, r, http.MethodPost, "/segments", map[string]any{"segment_type": "audio", "config": audioConfig()})
	segID := decodeBody[createSegmentResponse](t, rec).ID

	rec = do(t, r, http.MethodPost, "/segments/"+segID+"/operations", map[string]any{
		"operation_type": "add_fade",
		"data":           map[string]any{"in_duration": "1s"},
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body)
	}

	rec = do(t, r, http.MethodPost, "/drafts", nil)
	draftID := decodeBody[map[string]string](t, rec)["draft_id"]
	rec = do(t, r, http.MethodPost, "/drafts/"+draftID+"/segments", map[string]any{"segment_id": segID})
	if rec.Code != http.StatusOK {
		t.Fatalf("attach: %d %s", rec.Code, rec.Body)
	}
	res := decodeBody[AttachResult](t, rec)
	if len(res.Replay.Applied) != 1 || res.Track != "audio_0" {
		t.Errorf("attach result %+v", res)
	}
}

func TestHandler_drafts(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/drafts", map[string]any{"draft_name": "d", "width": -1})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad canvas: expected 400, got %d", rec.Code)
	}

	rec = do(t, r, http.MethodPost, "/drafts", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d", rec.Code)
	}
	draftID := decodeBody[map[string]string](t, rec)["draft_id"]

	rec = do(t, r, http.MethodGet, "/drafts/"+draftID, nil)
	view := decodeBody[DraftView](t, rec)
	if view.Width != defaultWidth || view.Height != defaultHeight || view.FPS != defaultFPS {
		t.Errorf("defaults %+v", view.DraftInfo)
	}

	rec = do(t, r, http.MethodPost, "/drafts/"+draftID+"/tracks", map[string]any{"track_type": "text", "track_name": "subs"})
	if rec.Code != http.StatusCreated {
		t.Errorf("add track: %d %s", rec.Code, rec.Body)
	}
	rec = do(t, r, http.MethodPost, "/drafts/"+draftID+"/tracks", map[string]any{"track_type": "text", "track_name": "subs"})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate track: expected 409, got %d", rec.Code)
	}

	rec = do(t, r, http.MethodPost, "/drafts/"+draftID+"/segments", map[string]any{"segment_id": "x", "track_name": "nope"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("attach missing segment: expected 404, got %d", rec.Code)
	}
	rec = do(t, r, http.MethodPost, "/drafts/"+draftID+"/segments", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("attach without segment_id: expected 400, got %d", rec.Code)
	}

	rec = do(t, r, http.MethodGet, "/drafts", nil)
	if list := decodeBody[[]DraftInfo](t, rec); len(list) != 1 || list[0].Tracks != 1 {
		t.Errorf("list %+v", list)
	}

	if rec := do(t, r, http.MethodDelete, "/drafts/"+draftID, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete: %d", rec.Code)
	}
	rec = do(t, r, http.MethodGet, "/drafts/"+draftID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("deleted draft: expected 404, got %d", rec.Code)
	}
	if body := decodeBody[errorBody](t, rec); body.Code != codeDraftNotFound {
		t.Errorf("error body %+v", body)
	}
}

func TestHandler_DeleteSegment(t *testing.T) {
	r := newTestRouter(t)
	rec := do(t, r, http.MethodPost, "/segments", map[string]any{"segment_type": "text", "config": map[string]any{"text_content": "x"}})
	segID := decodeBody[createSegmentResponse](t, rec).ID

	if rec := do(t, r, http.MethodDelete, "/segments/"+segID, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete: %d", rec.Code)
	}
	if rec := do(t, r, http.MethodDelete, "/segments/"+segID, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", rec.Code)
	}
}
