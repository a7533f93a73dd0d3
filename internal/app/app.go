package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"ytrelated/internal/app/server"
	"ytrelated/internal/config"
	"ytrelated/internal/routeplanner"
	"ytrelated/internal/scraper"
	"ytrelated/internal/support"
)

const shutdownTimeout = 10 * time.Second

func Run() error {
	startedAt := time.Now()

	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found. Falling back to system environment variables.")
	}

	cfg := config.Load()
	log.SetLevel(cfg.LogLevel)
	logger := log.Default()

	planner, closePlanner, err := newRoutePlanner(cfg, logger)
	if err != nil {
		return err
	}
	defer closePlanner()

	relatedScraper, err := scraper.New(scraper.Options{
		Timeout:  cfg.ScraperTimeout,
		Log:      logger,
		ProxyURL: cfg.ScraperProxy,
	})
	if err != nil {
		return fmt.Errorf("failed to create scraper: %w", err)
	}
	if cfg.ScraperTimeoutSet {
		log.Infof("Scraper timeout is set to %dms.", relatedScraper.Timeout().Milliseconds())
	}
	if cfg.ScraperProxy != "" {
		log.Info("Scraper upstream proxy is enabled.")
	}

	// A nil *RoutePlanner must not reach the scraper as a non-nil interface.
	var egress scraper.RoutePlanner
	if planner != nil {
		egress = planner
	}

	handler := server.New(relatedScraper, egress, startedAt).Routes()
	httpServer := server.NewHTTPServer(cfg.Port, handler)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, httpServer)
}

// newRoutePlanner builds the planner only when IP blocks are configured. The
// returned close function is always safe to call.
func newRoutePlanner(cfg config.Config, logger *log.Logger) (*routeplanner.RoutePlanner, func(), error) {
	noop := func() {}

	if !cfg.RoutePlannerEnabled() {
		if len(cfg.ExcludeIPAddresses) > 0 {
			logger.Warn("EXCLUDE_IP_ADDRESSES is set but IP_BLOCKS is not set. Route planner will not be used.")
		}
		return nil, noop, nil
	}

	var store routeplanner.FailingStore
	closeStore := noop
	if cfg.RedisURL != "" {
		client, err := support.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to get redis client: %w", err)
		}
		store = routeplanner.NewRedisFailingStore(client)
		closeStore = func() {
			if err := client.Close(); err != nil {
				logger.Warn("error closing redis client", "error", err)
			}
		}
		logger.Info("Route planner failing addresses are shared through redis.")
	}

	planner, err := routeplanner.New(routeplanner.Config{
		IPBlocks:        cfg.IPBlocks,
		ExcludeIPs:      cfg.ExcludeIPAddresses,
		FailingCooldown: cfg.FailingCooldown,
		Store:           store,
		Log:             logger,
	})
	if err != nil {
		closeStore()
		return nil, noop, fmt.Errorf("failed to create route planner: %w", err)
	}

	logger.Infof("Route planner is enabled. %d IP blocks are loaded.", len(cfg.IPBlocks))
	return planner, closeStore, nil
}

// serve blocks until ctx is cancelled or the listener fails.
func serve(ctx context.Context, httpServer *http.Server) error {
	listener, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", httpServer.Addr, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("Server listening at http://%s", listener.Addr())
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
