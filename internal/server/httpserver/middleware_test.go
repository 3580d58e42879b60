package httpserver

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chatvault/chatvault-go/internal/telemetry/logger"
	"github.com/chatvault/chatvault-go/internal/telemetry/metric"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(okHandler(), tag("outer"), tag("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("execution order = %v, want [outer inner]", order)
	}
}

func TestRequestIDGeneratesAndPropagates(t *testing.T) {
	var seenHeader, seenCtx string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenHeader = r.Header.Get("X-Request-ID")
		seenCtx = GetRequestIDFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	id := w.Header().Get("X-Request-ID")
	if !strings.HasPrefix(id, "req-") {
		t.Errorf("generated id = %q, want req- prefix", id)
	}
	if seenHeader != id || seenCtx != id {
		t.Errorf("downstream saw header %q ctx %q, want %q", seenHeader, seenCtx, id)
	}
}

func TestRequestIDHonorsCallerID(t *testing.T) {
	h := RequestID()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-from-caller")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "req-from-caller" {
		t.Errorf("id = %q, want caller's id", got)
	}
}

func TestRecoverTurnsPanicInto500(t *testing.T) {
	h := Recover(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if got := w.Header().Get("X-Error-Code"); got != "CV-CORE-5000" {
		t.Errorf("error code header = %q", got)
	}
}

func TestRateLimit(t *testing.T) {
	t.Run("throttles per IP", func(t *testing.T) {
		h := RateLimit(1, 1)(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5000"

		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("first request status = %d", w.Code)
		}

		w = httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusTooManyRequests {
			t.Errorf("second request status = %d, want 429", w.Code)
		}

		// A different client has its own bucket.
		other := httptest.NewRequest(http.MethodGet, "/", nil)
		other.RemoteAddr = "10.0.0.2:5000"
		w = httptest.NewRecorder()
		h.ServeHTTP(w, other)
		if w.Code != http.StatusOK {
			t.Errorf("other client status = %d, want 200", w.Code)
		}
	})

	t.Run("zero rps disables", func(t *testing.T) {
		h := RateLimit(0, 0)(okHandler())
		for i := 0; i < 20; i++ {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			if w.Code != http.StatusOK {
				t.Fatalf("request %d status = %d", i, w.Code)
			}
		}
	})
}

func TestRequestLogRecordsMetrics(t *testing.T) {
	metrics := metric.NewRegistry()
	h := RequestLog(logger.Discard(), metrics)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/backups", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	scrape := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(scrape.Body)

	if !strings.Contains(string(body), `chatvault_http_requests_total{method="GET",route="/v1/backups",status="200"} 1`) {
		t.Error("request counter was not recorded")
	}
	if !strings.Contains(string(body), "chatvault_http_request_duration_seconds") {
		t.Error("request duration was not recorded")
	}
}

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/health", "/health"},
		{"/v1/events", "/v1/events"},
		{"/v1/backups", "/v1/backups"},
		{"/v1/backups/restore", "/v1/backups/restore"},
		{"/v1/backups/character:alice:chat-1/1700000000000", "/v1/backups/{key}"},
		{"/favicon.ico", "other"},
	}
	for _, tt := range tests {
		if got := normalizeRoute(tt.path); got != tt.want {
			t.Errorf("normalizeRoute(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(r *http.Request)
		remote string
		want   string
	}{
		{
			name:  "x-forwarded-for first hop",
			setup: func(r *http.Request) { r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1") },
			want:  "203.0.113.7",
		},
		{
			name:  "x-real-ip",
			setup: func(r *http.Request) { r.Header.Set("X-Real-IP", "203.0.113.8") },
			want:  "203.0.113.8",
		},
		{
			name:   "remote addr with port",
			remote: "192.0.2.1:4242",
			want:   "192.0.2.1",
		},
		{
			name:   "ipv6 remote addr",
			remote: "[::1]:4242",
			want:   "::1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.remote != "" {
				r.RemoteAddr = tt.remote
			}
			if tt.setup != nil {
				tt.setup(r)
			}
			if got := getClientIP(r); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
