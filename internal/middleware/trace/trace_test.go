package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestIsQuietPath(t *testing.T) {
	tests := []struct {
		path  string
		quiet bool
	}{
		{"/healthz", true},
		{"/readyz", true},
		{"/metrics", true},
		{"/static/style.css", true},
		{"/", false},
		{"/ui/income-stats", false},
		{"/transactions", false},
	}
	for _, tt := range tests {
		if got := isQuietPath(tt.path); got != tt.quiet {
			t.Errorf("isQuietPath(%q) = %v, want %v", tt.path, got, tt.quiet)
		}
	}
}

func TestMiddlewareCountsAndTagsRequests(t *testing.T) {
	mw := NewMiddleware(nil)

	var seenID string
	handler := mw.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/ui/income-stats", nil))

	if seenID == "" {
		t.Fatal("handler should see a request id in context")
	}
	if mw.GetMetrics().TotalRequests != 1 {
		t.Fatalf("total requests = %d, want 1", mw.GetMetrics().TotalRequests)
	}

	// Quiet routes still count toward the metrics
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/healthz", nil))
	if mw.GetMetrics().TotalRequests != 2 {
		t.Fatalf("total requests = %d, want 2", mw.GetMetrics().TotalRequests)
	}
}

func TestGenerateRequestID(t *testing.T) {
	a, b := GenerateRequestID(), GenerateRequestID()
	if !strings.HasPrefix(a, "req_") {
		t.Fatalf("id %q missing prefix", a)
	}
	if a == b {
		t.Fatalf("ids should be unique, got %q twice", a)
	}
}
