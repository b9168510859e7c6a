package trace

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	m := NewMiddleware(func(*http.Request) string { return "127.0.0.1" })

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/records", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("request id %q is not a uuid: %v", seen, err)
	}
	if rec.Header().Get(HeaderRequestID) != seen {
		t.Fatalf("response header %q, context %q", rec.Header().Get(HeaderRequestID), seen)
	}
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status %d", rec.Code)
	}
	if m.TotalRequests() != 1 {
		t.Fatalf("TotalRequests = %d", m.TotalRequests())
	}
}

func TestMiddlewareReusesIncomingID(t *testing.T) {
	m := NewMiddleware(nil)
	incoming := uuid.NewString()

	cases := []struct {
		header string
		reuse  bool
	}{
		{incoming, true},
		{"not-a-uuid", false},
		{"", false},
	}
	for _, c := range cases {
		var seen string
		h := m.Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if c.header != "" {
			req.Header.Set(HeaderRequestID, c.header)
		}
		h.ServeHTTP(httptest.NewRecorder(), req)

		if (seen == c.header) != c.reuse {
			t.Errorf("header %q: got id %q, reuse=%v", c.header, seen, c.reuse)
		}
		if seen == "" {
			t.Errorf("header %q: empty request id", c.header)
		}
	}
}

func TestGetRequestIDMissing(t *testing.T) {
	if id := GetRequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context()); id != "" {
		t.Fatalf("expected empty id, got %q", id)
	}
}
