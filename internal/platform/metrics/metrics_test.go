package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, m *Metrics, update func()) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler(update).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status %d", rec.Code)
	}
	return rec.Body.String()
}

func TestRequestMiddleware_labels_by_route_pattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(RequestMiddleware(m))
	r.Get("/segments/{segment_id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/segments/"+id, nil))
	}

	out := scrape(t, m, nil)
	for _, want := range []string{
		`draft_requests_total{method="GET",route="/segments/{segment_id}"} 2`,
		`draft_errors_total{route="/segments/{segment_id}",status="404"} 2`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in:\n%s", want, out)
		}
	}
}

func TestHandler_refreshes_gauges(t *testing.T) {
	m := New()
	m.IncSegmentsCreated("audio")
	m.IncOperations("add_fade", "ok")
	m.IncEvictions("segment")

	out := scrape(t, m, func() {
		m.SetRegistryEntries("draft", 3)
	})
	for _, want := range []string{
		`draft_registry_entries{scope="draft"} 3`,
		`draft_segments_created_total{kind="audio"} 1`,
		`draft_operations_total{operation="add_fade",result="ok"} 1`,
		`draft_registry_evictions_total{scope="segment"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s", want)
		}
	}
}
