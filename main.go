package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/postboard/apiv1/config"
	"github.com/postboard/apiv1/dbhelper"
	"github.com/postboard/apiv1/limiter"
	"github.com/postboard/apiv1/logging"
	"github.com/postboard/apiv1/routes"
	"github.com/postboard/apiv1/services"
	"github.com/postboard/apiv1/tokens"
	"github.com/spf13/cobra"
)

const sweepInterval = time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFile, addr string

	cmd := &cobra.Command{
		Use:           "postboard",
		Short:         "Serve the postboard REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}

			out := io.Writer(os.Stdout)
			if cfg.LogFile != "" {
				file, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer file.Close()
				out = file
			}
			logger, err := logging.New(out, cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}

			if addr == "" {
				addr = cfg.Addr()
			}
			return serve(cmd.Context(), cfg, addr, logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	flags.StringVar(&addr, "addr", "", "listen address (default :$PORT)")
	return cmd
}

type app struct {
	handler http.Handler
	store   dbhelper.Store
	limiter *limiter.Limiter
}

func newApp(ctx context.Context, cfg config.Config, logger logging.Logger) (*app, error) {
	store, err := dbhelper.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var tokenOpts []tokens.Option
	var authOpts []services.AuthOption
	if cfg.GoogleClientID != "" {
		google := tokens.NewGoogleVerifier(cfg.GoogleClientID, tokens.NewJWKS(cfg.GoogleJWKSURL, nil))
		tokenOpts = append(tokenOpts, tokens.WithGoogle(google))
		authOpts = append(authOpts, services.WithFederatedVerifier(google))
	} else {
		logger.Warn(ctx, "GOOGLE_CLIENT_ID is not set, google login trusts the submitted profile")
	}
	tm := tokens.NewManager([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.TokenTTL, tokenOpts...)

	attempts := limiter.New(cfg.LoginMaxAttempts, cfg.LoginWindow)
	authOpts = append(authOpts, services.WithHashCost(cfg.BcryptCost))

	r := mux.NewRouter()
	r.StrictSlash(true)
	routes.CreateRoutes(r, routes.Dependencies{
		Auth:        services.NewAuthService(store, attempts, tm, logger.With("component", "auth"), authOpts...),
		Posts:       services.NewPostService(store),
		Verifier:    tm,
		Logger:      logger,
		IPRateLimit: cfg.IPRateLimit,
	})

	return &app{handler: r, store: store, limiter: attempts}, nil
}

func serve(ctx context.Context, cfg config.Config, addr string, logger logging.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := a.store.Close(closeCtx); err != nil {
			logger.Error(closeCtx, "close store", "error", err)
		}
	}()

	go a.limiter.Run(ctx, sweepInterval)

	srv := &http.Server{
		Addr:              addr,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
