package redirectscheme

import (
	"net/http"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Handler enforces a redirect policy in front of another http.Handler.
// Requests the policy redirects are answered directly; everything else
// is passed to the wrapped handler. The policy can be swapped at
// runtime with Reload without interrupting traffic.
type Handler struct {
	logger *logrus.Logger
	next   http.Handler

	config atomic.Pointer[Config]

	redirects atomic.Int64
	passes    atomic.Int64
}

// Stats is a snapshot of the handler's request counters.
type Stats struct {
	// Redirects counts requests answered with a redirect.
	Redirects int64

	// Passes counts requests handed to the wrapped handler.
	Passes int64
}

// NewHandler creates a handler enforcing cfg ahead of next.
// Parameters:
// - logger: destination for per-redirect debug logs; nil uses the logrus standard logger
// - cfg: initial policy, must not be nil
// - next: handler for requests the policy passes through; nil means 404
// Returns:
// - *Handler: ready-to-use handler instance
func NewHandler(logger *logrus.Logger, cfg *Config, next http.Handler) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	if next == nil {
		next = http.NotFoundHandler()
	}

	h := &Handler{
		logger: logger,
		next:   next,
	}
	h.config.Store(cfg)

	return h
}

// ServeHTTP evaluates the current policy against r and either emits the
// redirect or hands the request to the wrapped handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cfg := h.config.Load()

	decision := cfg.EvaluateHTTP(r)
	if !decision.Redirect {
		h.passes.Add(1)
		h.next.ServeHTTP(w, r)

		return
	}

	h.redirects.Add(1)
	h.logger.WithFields(logrus.Fields{
		"method": r.Method,
		"host":   r.Host,
		"target": decision.Target,
		"status": decision.Status,
	}).Debug("Redirecting request")

	http.Redirect(w, r, decision.Target, decision.Status)
}

// Config returns the policy currently enforced.
func (h *Handler) Config() *Config {
	return h.config.Load()
}

// Reload atomically replaces the enforced policy. Requests already in
// flight finish under the policy they started with; new requests see
// cfg immediately.
func (h *Handler) Reload(cfg *Config) {
	h.config.Store(cfg)
}

// Stats returns a snapshot of the request counters. Counters survive
// policy reloads.
func (h *Handler) Stats() Stats {
	return Stats{
		Redirects: h.redirects.Load(),
		Passes:    h.passes.Load(),
	}
}
