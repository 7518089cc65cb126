package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// adminStatus is the document served by /statusz.
type adminStatus struct {
	Enabled   bool     `json:"enabled"`
	Scheme    string   `json:"scheme"`
	Permanent bool     `json:"permanent"`
	Redirects int64    `json:"redirects"`
	Passes    int64    `json:"passes"`
	Ignored   []string `json:"ignoredPaths,omitempty"`
}

// adminRouter exposes liveness and redirect statistics on the admin
// listener. The admin listener is meant for private networks; nothing
// here is authenticated.
func (s *Server) adminRouter() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)

		if _, err := w.Write([]byte("ok\n")); err != nil {
			s.logger.WithError(err).Warn("Failed to write health response")
		}
	}).Methods(http.MethodGet)

	router.HandleFunc("/statusz", func(w http.ResponseWriter, _ *http.Request) {
		policy := s.redirect.Config()
		stats := s.redirect.Stats()

		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		err := json.NewEncoder(w).Encode(adminStatus{
			Enabled:   policy.Enabled(),
			Scheme:    string(policy.TargetScheme()),
			Permanent: policy.Permanent(),
			Redirects: stats.Redirects,
			Passes:    stats.Passes,
			Ignored:   policy.IgnorePaths(),
		})
		if err != nil {
			s.logger.WithError(err).Error("Failed to encode status response")
		}
	}).Methods(http.MethodGet)

	return router
}
