// Package server implements the redirectschemed front server with:
// - HTTP listener enforcing the redirect policy ahead of the proxy
// - Optional HTTPS listener with static or automatic certificates
// - Optional admin listener for health and redirect statistics
// - Reverse proxy forwarding non-redirected traffic upstream
//
// Main components:
// - Server: Main structure orchestrating all listeners
// - startHTTPServer: Plain HTTP listener
// - startHTTPSServer: TLS listener sharing the same handler chain
// - startAdminServer: Health and status endpoints
// - tlsSetup: Certificate configuration (files or Let's Encrypt)
package server

import (
	"context"
	"crypto/tls"
	"net/http"
	"strings"

	"github.com/perdumonocle/redirectscheme"
	"github.com/perdumonocle/redirectscheme/config"
	"github.com/perdumonocle/redirectscheme/internal/rserr"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/acme"
	"golang.org/x/crypto/acme/autocert"
	"golang.org/x/sync/errgroup"
)

// Server represents the redirectschemed server instance.
// Manages the listeners and the shared handler chain.
//
// Fields:
// - logger: Logger for event recording
// - config: Listener configuration
// - redirect: Policy-enforcing handler, shared by all listeners
// - handler: Full chain served to clients
type Server struct {
	logger   *logrus.Logger
	config   config.ServerConfig
	redirect *redirectscheme.Handler
	handler  http.Handler
}

// NewServer creates a new server instance.
// Parameters:
// - logger: Configured logger
// - cfg: Listener configuration, already validated
// - policy: Initial redirect policy
//
// Returns:
// - *Server: Ready-to-use instance
// - error: Upstream URL failures
func NewServer(logger *logrus.Logger, cfg config.ServerConfig, policy *redirectscheme.Config) (*Server, error) {
	proxy, err := newUpstreamProxy(logger, cfg.Upstream)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"httpAddr":  cfg.HTTPAddr,
		"httpsAddr": cfg.HTTPSAddr,
		"adminAddr": cfg.AdminAddr,
		"upstream":  cfg.Upstream,
	}).Info("Creating new server instance")

	redirect := redirectscheme.NewHandler(logger, policy, proxy)

	return &Server{
		logger:   logger,
		config:   cfg,
		redirect: redirect,
		handler:  requestLogger(logger, redirect),
	}, nil
}

// Reload swaps the enforced redirect policy. Safe to call while the
// listeners are serving.
func (s *Server) Reload(policy *redirectscheme.Config) {
	s.redirect.Reload(policy)

	s.logger.WithFields(logrus.Fields{
		"enabled":   policy.Enabled(),
		"scheme":    policy.TargetScheme(),
		"permanent": policy.Permanent(),
	}).Info("Redirect policy reloaded")
}

// Start concurrently runs all configured listeners.
// Parameters:
// - ctx: Context for cancellation control
//
// Returns:
// - error: First error encountered or nil if terminated normally
//
// Behavior:
// - Starts the HTTP listener always, HTTPS and admin when configured
// - Returns on first listener error or when all complete
// - Performs orderly shutdown on context cancellation
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting server components")

	manager, tlsConfig, err := s.tlsSetup()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.startHTTPServer(ctx, manager)
	})

	if s.config.HTTPSAddr != "" {
		g.Go(func() error {
			return s.startHTTPSServer(ctx, tlsConfig)
		})
	}

	if s.config.AdminAddr != "" {
		g.Go(func() error {
			return s.startAdminServer(ctx)
		})
	}

	if err := g.Wait(); err != nil {
		return rserr.New(rserr.CodeServerError, "server group failed", rserr.WithError(err))
	}

	return nil
}

// serveAndShutdown runs one listener until it fails or ctx is
// cancelled, then shuts it down within config.ShutdownTimeout.
func (s *Server) serveAndShutdown(ctx context.Context, server *http.Server, listen func() error, name string) error {
	errCh := make(chan error, 1)

	go (func() {
		if err := listen(); err != nil && !rserr.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error(name + " server failed")
			errCh <- err
		} else {
			s.logger.Info(name + " server stopped")
		}
		close(errCh)
	})()

	select {
	case err := <-errCh:
		return err

	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return rserr.New(rserr.CodeShutdownError, name+" server shutdown failed", rserr.WithError(err))
	}

	return nil
}

func (s *Server) startHTTPServer(ctx context.Context, manager *autocert.Manager) error {
	s.logger.WithFields(logrus.Fields{
		"addr": s.config.HTTPAddr,
	}).Info("Starting HTTP server")

	handler := s.handler
	if manager != nil {
		// lets ACME HTTP-01 challenges through ahead of the policy
		handler = manager.HTTPHandler(handler)
	}

	server := &http.Server{
		Addr:              s.config.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}

	return s.serveAndShutdown(ctx, server, server.ListenAndServe, "HTTP")
}

func (s *Server) startHTTPSServer(ctx context.Context, tlsConfig *tls.Config) error {
	s.logger.WithFields(logrus.Fields{
		"addr": s.config.HTTPSAddr,
	}).Info("Starting HTTPS server")

	server := &http.Server{
		Addr:              s.config.HTTPSAddr,
		Handler:           s.handler,
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}

	return s.serveAndShutdown(ctx, server, func() error {
		return server.ListenAndServeTLS("", "")
	}, "HTTPS")
}

func (s *Server) startAdminServer(ctx context.Context) error {
	s.logger.WithFields(logrus.Fields{
		"addr": s.config.AdminAddr,
	}).Info("Starting admin server")

	server := &http.Server{
		Addr:              s.config.AdminAddr,
		Handler:           s.adminRouter(),
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}

	return s.serveAndShutdown(ctx, server, server.ListenAndServe, "admin")
}

// tlsSetup builds the certificate material for the HTTPS listener.
//
// Returns:
// - *autocert.Manager: Certificate manager, nil unless automatic certificates are configured
// - *tls.Config: Ready-to-use TLS configuration, nil when no HTTPS listener is configured
// - error: Static certificate load failures
//
// Details:
// - Static certFile/keyFile pairs take the simple path
// - Otherwise certificates come from Let's Encrypt, cached in certDir,
//   with a host policy limited to the configured domain
// - Requires TLS 1.2 as minimum version
func (s *Server) tlsSetup() (*autocert.Manager, *tls.Config, error) {
	if s.config.HTTPSAddr == "" {
		return nil, nil, nil
	}

	if s.config.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(s.config.CertFile, s.config.KeyFile)
		if err != nil {
			return nil, nil, rserr.New(rserr.CodeTLSError, "failed to load certificate pair", rserr.WithError(err))
		}

		return nil, &tls.Config{
			Certificates: []tls.Certificate{cert},
			NextProtos:   []string{"h2", "http/1.1"},
			MinVersion:   tls.VersionTLS12,
		}, nil
	}

	domain := s.config.Domain
	manager := &autocert.Manager{
		Prompt: autocert.AcceptTOS,
		Cache:  autocert.DirCache(s.config.CertDir),
		HostPolicy: func(_ context.Context, host string) error {
			h := strings.ToLower(strings.TrimSpace(host))
			if h == domain || strings.HasSuffix(h, "."+domain) {
				return nil
			}

			return rserr.New(rserr.CodeInvalidInput, "host not allowed by autocert")
		},
	}

	tlsConfig := &tls.Config{
		GetCertificate: manager.GetCertificate,
		NextProtos:     []string{"h2", "http/1.1", acme.ALPNProto},
		MinVersion:     tls.VersionTLS12,
	}

	return manager, tlsConfig, nil
}
