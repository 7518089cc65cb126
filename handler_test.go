package redirectscheme

import (
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return logger
}

type nextRecorder struct {
	called bool
}

func (n *nextRecorder) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	n.called = true
	w.WriteHeader(http.StatusNoContent)
}

func Test_HandlerRedirects(t *testing.T) {
	next := &nextRecorder{}
	h := NewHandler(newTestLogger(), NewBuilder().Build(), next)

	r := httptest.NewRequest(http.MethodGet, "/a", nil)
	rw := httptest.NewRecorder()

	h.ServeHTTP(rw, r)

	if rw.Code != http.StatusMovedPermanently {
		t.Errorf("expected status 301, got %d", rw.Code)
	}
	if got := rw.Header().Get("Location"); got != "https://example.com/a" {
		t.Errorf("expected Location https://example.com/a, got %s", got)
	}
	if next.called {
		t.Error("redirected request should not reach the wrapped handler")
	}

	stats := h.Stats()
	if stats.Redirects != 1 || stats.Passes != 0 {
		t.Errorf("expected stats {1 0}, got %+v", stats)
	}
}

func Test_HandlerPassesSecure(t *testing.T) {
	next := &nextRecorder{}
	h := NewHandler(newTestLogger(), NewBuilder().Build(), next)

	r := httptest.NewRequest(http.MethodGet, "/a", nil)
	r.TLS = &tls.ConnectionState{}
	rw := httptest.NewRecorder()

	h.ServeHTTP(rw, r)

	if !next.called {
		t.Error("matching request should reach the wrapped handler")
	}
	if rw.Code != http.StatusNoContent {
		t.Errorf("expected the wrapped handler's status, got %d", rw.Code)
	}

	stats := h.Stats()
	if stats.Redirects != 0 || stats.Passes != 1 {
		t.Errorf("expected stats {0 1}, got %+v", stats)
	}
}

func Test_HandlerPassesForwardedHTTPS(t *testing.T) {
	next := &nextRecorder{}
	h := NewHandler(newTestLogger(), NewBuilder().Build(), next)

	r := httptest.NewRequest(http.MethodGet, "/a", nil)
	r.Header.Set("X-Forwarded-Proto", "https")
	rw := httptest.NewRecorder()

	h.ServeHTTP(rw, r)

	if !next.called {
		t.Error("request forwarded as https should reach the wrapped handler")
	}
}

func Test_HandlerTemporaryKeepsMethod(t *testing.T) {
	h := NewHandler(newTestLogger(), NewBuilder().Temporary().Build(), &nextRecorder{})

	r := httptest.NewRequest(http.MethodPost, "/submit?x=1", nil)
	rw := httptest.NewRecorder()

	h.ServeHTTP(rw, r)

	if rw.Code != http.StatusTemporaryRedirect {
		t.Errorf("expected status 307, got %d", rw.Code)
	}
	if got := rw.Header().Get("Location"); got != "https://example.com/submit?x=1" {
		t.Errorf("expected Location https://example.com/submit?x=1, got %s", got)
	}
}

func Test_HandlerReplacements(t *testing.T) {
	cfg := NewBuilder().
		Replacements(Replacement{From: ":8080", To: ":8443"}).
		Build()
	h := NewHandler(newTestLogger(), cfg, &nextRecorder{})

	r := httptest.NewRequest(http.MethodGet, "/a", nil)
	r.Host = "example.com:8080"
	rw := httptest.NewRecorder()

	h.ServeHTTP(rw, r)

	if got := rw.Header().Get("Location"); got != "https://example.com:8443/a" {
		t.Errorf("expected Location https://example.com:8443/a, got %s", got)
	}
}

func Test_HandlerReload(t *testing.T) {
	next := &nextRecorder{}
	h := NewHandler(newTestLogger(), NewBuilder().Enable(false).Build(), next)

	r := httptest.NewRequest(http.MethodGet, "/a", nil)
	rw := httptest.NewRecorder()

	h.ServeHTTP(rw, r)

	if !next.called {
		t.Error("disabled policy should pass the request through")
	}

	enabled := NewBuilder().Build()
	h.Reload(enabled)

	if h.Config() != enabled {
		t.Error("Config should return the reloaded policy")
	}

	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/a", nil))

	if rw.Code != http.StatusMovedPermanently {
		t.Errorf("reloaded policy should redirect, got status %d", rw.Code)
	}

	stats := h.Stats()
	if stats.Redirects != 1 || stats.Passes != 1 {
		t.Errorf("counters should survive reloads, expected {1 1}, got %+v", stats)
	}
}

func Test_HandlerNilNext(t *testing.T) {
	h := NewHandler(newTestLogger(), NewBuilder().Build(), nil)

	r := httptest.NewRequest(http.MethodGet, "/a", nil)
	r.TLS = &tls.ConnectionState{}
	rw := httptest.NewRecorder()

	h.ServeHTTP(rw, r)

	if rw.Code != http.StatusNotFound {
		t.Errorf("nil next should serve 404 for passed requests, got %d", rw.Code)
	}
}

func Test_HandlerNilLogger(t *testing.T) {
	h := NewHandler(nil, NewBuilder().Enable(false).Build(), &nextRecorder{})

	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/a", nil))

	if rw.Code != http.StatusNoContent {
		t.Errorf("handler with nil logger should still serve, got %d", rw.Code)
	}
}
