// Package main provides the entry point for the redirectschemed daemon.
//
// The main package:
// - Parses configuration
// - Initializes logging
// - Runs the front server or validates a configuration file
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/perdumonocle/redirectscheme/config"
	"github.com/perdumonocle/redirectscheme/internal/rserr"
	"github.com/perdumonocle/redirectscheme/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// probeTimeout bounds the probe subcommand's single request.
const probeTimeout = 30 * time.Second

//nolint:gochecknoglobals
var rootCmd = &cobra.Command{
	Use:   "redirectschemed",
	Short: "CLI for redirectschemed management",
	Long:  `Scheme-enforcing front server redirecting traffic between http and https`,
}

//nolint:gochecknoglobals
var log = logrus.New()

//nolint:gochecknoglobals
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the redirect front server",
	Run: func(cmd *cobra.Command, _ []string) {
		configPath, _ := cmd.Flags().GetString("config")

		cfg, err := loadAndValidate(configPath)
		if err != nil {
			log.WithError(err).Fatal("Failed to load config")
		}

		applyLogLevel(cfg.Server.LogLevel)

		srv, err := server.NewServer(log, cfg.Server, cfg.Redirect.Policy())
		if err != nil {
			log.WithError(err).Fatal("Failed to create server")
		}

		go watchReload(cmd.Context(), configPath, srv)

		log.Info("Starting redirectschemed")
		if err := srv.Start(cmd.Context()); err != nil {
			log.WithError(err).Fatal("Server failed")
		}
	},
}

//nolint:gochecknoglobals
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a configuration file",
	Run: func(cmd *cobra.Command, _ []string) {
		configPath, _ := cmd.Flags().GetString("config")

		cfg, err := loadAndValidate(configPath)
		if err != nil {
			log.WithError(err).Fatal("Configuration is invalid")
		}

		policy := cfg.Redirect.Policy()
		log.WithFields(logrus.Fields{
			"enabled":   policy.Enabled(),
			"scheme":    policy.TargetScheme(),
			"permanent": policy.Permanent(),
		}).Info("Configuration is valid")
	},
}

//nolint:gochecknoglobals
var probeCmd = &cobra.Command{
	Use:   "probe [url]",
	Short: "Send one request and report the redirect observed",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		resp, err := probe(cmd.Context(), args[0])
		if err != nil {
			log.WithError(err).Fatal("Probe failed")
		}

		defer func() {
			if err := resp.Body.Close(); err != nil {
				log.WithError(err).Warn("Failed to close response body")
			}
		}()

		fields := logrus.Fields{
			"url":    args[0],
			"status": resp.StatusCode,
		}

		switch resp.StatusCode {
		case http.StatusMovedPermanently, http.StatusTemporaryRedirect,
			http.StatusFound, http.StatusSeeOther, http.StatusPermanentRedirect:
			fields["location"] = resp.Header.Get("Location")
			log.WithFields(fields).Info("Request was redirected")
		default:
			log.WithFields(fields).Info("Request was not redirected")
		}
	},
}

// probe issues a single GET without following redirects, so the first
// hop's status and Location stay visible.
func probe(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, rserr.New(rserr.CodeInvalidInput, "invalid probe URL", rserr.WithError(err))
	}

	client := &http.Client{
		Timeout: probeTimeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, rserr.New(rserr.CodeServerError, "probe request failed", rserr.WithError(err))
	}

	return resp, nil
}

func loadAndValidate(path string) (config.AppConfig, error) {
	var cfg config.AppConfig
	if err := config.LoadConfig(path, &cfg); err != nil {
		return cfg, err
	}

	if err := config.ValidateServerConfig(cfg.Server); err != nil {
		return cfg, err
	}

	if err := config.ValidateRedirectConfig(cfg.Redirect); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func applyLogLevel(level string) {
	if level == "" {
		return
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		log.WithError(err).Warn("Invalid log level, keeping default")

		return
	}

	log.SetLevel(parsed)
}

// watchReload re-reads the configuration on SIGHUP and swaps the
// redirect policy. Listener settings are not reloadable; only the
// redirect section takes effect.
func watchReload(ctx context.Context, path string, srv *server.Server) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)

	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return

		case <-hup:
			log.Info("Reload signal received")

			cfg, err := loadAndValidate(path)
			if err != nil {
				log.WithError(err).Error("Reload failed, keeping current policy")

				continue
			}

			srv.Reload(cfg.Redirect.Policy())
		}
	}
}

func main() {
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)

	serveCmd.Flags().String("config", "", "Path to config file")
	checkCmd.Flags().String("config", "", "Path to config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(probeCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
