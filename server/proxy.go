package server

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/perdumonocle/redirectscheme/internal/rserr"
	"github.com/sirupsen/logrus"
)

// newUpstreamProxy builds the reverse proxy non-redirected requests are
// handed to.
// Parameters:
// - logger: Logger for upstream failures
// - upstream: Absolute URL of the backing service
//
// Returns:
// - http.Handler: Proxy forwarding every request to upstream
// - error: Invalid upstream URL
//
// The proxy stamps X-Forwarded-For, X-Forwarded-Host and
// X-Forwarded-Proto, so the upstream sees the scheme the client
// actually used. That is the same signal trusted on the way in when a
// proxy sits in front of this process.
func newUpstreamProxy(logger *logrus.Logger, upstream string) (http.Handler, error) {
	target, err := url.Parse(upstream)
	if err != nil {
		return nil, rserr.New(rserr.CodeProxyError, "invalid upstream URL", rserr.WithError(err))
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetXForwarded()
			pr.SetURL(target)
			pr.Out.Host = pr.In.Host
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.WithError(err).WithFields(logrus.Fields{
				"method": r.Method,
				"host":   r.Host,
				"uri":    r.RequestURI,
			}).Error("Upstream request failed")

			w.WriteHeader(http.StatusBadGateway)
		},
	}

	return proxy, nil
}
