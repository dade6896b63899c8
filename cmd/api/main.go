package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/skytecs/hermes/internal/command"
	"github.com/skytecs/hermes/internal/config"
	"github.com/skytecs/hermes/internal/database"
	"github.com/skytecs/hermes/internal/device"
	"github.com/skytecs/hermes/internal/device/atolweb"
	"github.com/skytecs/hermes/internal/device/simulator"
	"github.com/skytecs/hermes/internal/fiscal"
	hermesHttp "github.com/skytecs/hermes/internal/http"
	fiscalHandler "github.com/skytecs/hermes/internal/http/fiscal"
	labelsHandler "github.com/skytecs/hermes/internal/http/labels"
	"github.com/skytecs/hermes/internal/labels"
	"github.com/skytecs/hermes/internal/ledger"
	"github.com/skytecs/hermes/internal/ledger/remote"
	ledgerStore "github.com/skytecs/hermes/internal/ledger/store"
	"github.com/skytecs/hermes/internal/listener"
	"github.com/skytecs/hermes/internal/logging"
	"github.com/skytecs/hermes/internal/shift"
	shiftStore "github.com/skytecs/hermes/internal/shift/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, cleanup, err := logging.New(cfg.Log.File, cfg.Log.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer cleanup()

	if err := run(cfg, logger); err != nil {
		logger.Error("hermes stopped", zap.Error(err))
		cleanup()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if cfg.Auth.Password == "" {
		return errors.New("PASSWORD must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	version, err := database.Migrate(db)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("database ready", zap.Uint("schema_version", version))

	sessions, err := shiftStore.Open(cfg.Session.Dir)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer sessions.Close()

	driver, err := newDriver(cfg, logger)
	if err != nil {
		return err
	}

	printer, err := labels.New(cfg.Labels.Printer, cfg.Labels.Codepage, logger)
	if err != nil {
		return err
	}

	var (
		fiscalService = fiscal.NewService(device.NewSession(driver, logger), shift.NewMachine(sessions, logger), logger)
		dispatcher    = command.NewDispatcher(fiscalService, printer)
		clinic        = remote.New(cfg.Clinic.URL, cfg.Clinic.Token, cfg.Clinic.Timeout, logger)
		ledgerService = ledger.NewService(ledgerStore.New(db), clinic, dispatcher, logger)
	)

	listenerDone := closedChan()

	if cfg.Centrifugo.Enabled {
		bus := listener.New(listener.Config{
			URL:            cfg.Centrifugo.URL,
			Channel:        cfg.Centrifugo.Channel,
			Secret:         cfg.Centrifugo.Secret,
			ReconnectDelay: cfg.Centrifugo.ReconnectDelay,
		}, logger)

		listenerDone = startListener(ctx, bus, ledgerService.HandleMessage, logger)
	}

	// The stores are closed by deferred calls, after the listener is done
	// with them.
	defer func() {
		stop()
		<-listenerDone
	}()

	router := hermesHttp.New(
		hermesHttp.Options{Password: cfg.Auth.Password, AllowedOrigins: cfg.HTTP.AllowedOrigins},
		fiscalHandler.NewHandler(fiscalService, ledgerService, logger),
		labelsHandler.NewHandler(printer, logger),
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("device", cfg.Device.Driver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownAfter)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	return nil
}

type subscriber interface {
	Listen(ctx context.Context, handler listener.Handler) error
}

// startListener runs bus in the background. The returned channel is closed
// once Listen has returned, which is after the in-flight message is handled.
func startListener(ctx context.Context, bus subscriber, handler listener.Handler, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)

		if err := bus.Listen(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("listener stopped", zap.Error(err))
		}
	}()

	return done
}

func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)

	return ch
}

func newDriver(cfg *config.Config, logger *zap.Logger) (device.Driver, error) {
	switch cfg.Device.Driver {
	case "atolweb":
		return atolweb.New(cfg.Device.URL, cfg.Device.Timeout, cfg.Device.PollInterval, logger), nil
	case "simulator":
		logger.Warn("using the simulated fiscal device, nothing is registered with the tax service")
		return simulator.New("1.05"), nil
	}

	return nil, fmt.Errorf("unknown device driver %q", cfg.Device.Driver)
}
