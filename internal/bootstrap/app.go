package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/airboard/internal/infra/config"
)

// Poller is the background refresh lifecycle owned by the app.
type Poller interface {
	Start(ctx context.Context) error
	Stop()
	Wait()
}

// App encapsulates the HTTP server and poller lifecycle.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	server *http.Server
	poller Poller
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, poller Poller) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, poller: poller}
}

// Run starts the poller and HTTP server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.Poller.Enabled {
		if err := a.poller.Start(ctx); err != nil {
			return err
		}
	} else {
		a.logger.Info("poller disabled, serving state from the shared store only")
	}

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
		return a.shutdown()
	case err := <-errCh:
		a.poller.Stop()
		a.poller.Wait()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a.poller.Stop()
	err := a.server.Shutdown(shutdownCtx)

	done := make(chan struct{})
	go func() {
		a.poller.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		a.logger.Warn("poller did not finish before shutdown deadline")
	}
	return err
}
