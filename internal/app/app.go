package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/errgroup"

	"github.com/florianilch/preverify/internal/credstore"
	"github.com/florianilch/preverify/internal/preverify"
	"github.com/florianilch/preverify/internal/server"
	"github.com/florianilch/preverify/internal/verifyapi"
	"github.com/florianilch/preverify/internal/voter"
)

// App wires storage, the verification client and the issuer from configuration.
type App struct {
	cfg    *Config
	store  *credstore.Store
	closer io.Closer
	issuer *preverify.Issuer
}

// New creates a new App instance.
func New(cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, closer, err := cfg.Storage.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create credential store: %w", err)
	}

	client, err := newVerificationClient(cfg.API)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("failed to create verification client: %w", err)
	}

	issuer, err := preverify.New(store, client)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("failed to create issuer: %w", err)
	}

	return &App{
		cfg:    cfg,
		store:  store,
		closer: closer,
		issuer: issuer,
	}, nil
}

// Close releases storage resources.
func (a *App) Close() error {
	return a.closer.Close()
}

// Issue runs pre-verification once.
func (a *App) Issue(ctx context.Context) (preverify.Outcome, error) {
	return a.issuer.Generate(ctx)
}

// Register stores the voter identifier for this device.
func (a *App) Register(ctx context.Context, id voter.ID) error {
	if err := a.store.SetVoterID(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "voter registered", "backend", a.cfg.Storage.Backend)
	return nil
}

// StatusReport describes the locally stored credentials.
type StatusReport struct {
	VoterID     voter.ID
	Registered  bool
	Token       voter.Token
	HasToken    bool
	StorageName StorageBackend
}

// Status reports which credentials are stored.
func (a *App) Status(ctx context.Context) StatusReport {
	id, registered := a.store.VoterID(ctx)
	token, hasToken := a.store.Token(ctx)
	return StatusReport{
		VoterID:     id,
		Registered:  registered,
		Token:       token,
		HasToken:    hasToken,
		StorageName: a.cfg.Storage.Backend,
	}
}

// Serve runs the local trigger server and blocks until ctx is cancelled or it fails.
// Uses errgroup for runtime error monitoring and shutdown function collection for coordinated cleanup.
func (a *App) Serve(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	address := a.cfg.Server.Host + ":" + strconv.FormatUint(uint64(a.cfg.Server.Port), 10)
	var shutdownFuncs []func(context.Context) error

	srv, err := server.New(a.issuer)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	slog.InfoContext(gCtx, "starting server", "address", address)
	errCh, err := srv.Start(gCtx, address)
	if err != nil {
		return fmt.Errorf("server startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, srv.Shutdown)

	// errgroup cancels gCtx on the first runtime error
	g.Go(func() error {
		select {
		case err := <-errCh:
			if err != nil {
				slog.ErrorContext(gCtx, "server runtime error", "error", err)
				return fmt.Errorf("server: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	slog.InfoContext(gCtx, "application ready", "address", address)

	runtimeErr := g.Wait()

	slog.InfoContext(gCtx, "shutting down services")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Shutdown.Timeout)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("application stopped")
	return nil
}

// newVerificationClient creates the verification client from application configuration.
func newVerificationClient(cfg APIConfig) (*verifyapi.Client, error) {
	opts := []verifyapi.Option{
		verifyapi.WithTimeout(cfg.Timeout),
	}
	if cfg.MaxRetries != nil {
		opts = append(opts, verifyapi.WithMaxRetries(*cfg.MaxRetries))
	}
	if cfg.Auth.ClientID != "" {
		opts = append(opts, verifyapi.WithClientCredentials(&clientcredentials.Config{
			ClientID:     cfg.Auth.ClientID,
			ClientSecret: cfg.Auth.ClientSecret,
			TokenURL:     cfg.Auth.TokenURL,
			Scopes:       cfg.Auth.Scopes,
		}))
	}

	return verifyapi.New(cfg.BaseURL, opts...)
}
