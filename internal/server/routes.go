package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"tunetrivia/internal/broadcast"
	"tunetrivia/internal/catalog"
	"tunetrivia/internal/config"
	"tunetrivia/internal/db"
	"tunetrivia/internal/game"
	"tunetrivia/internal/logger"
	"tunetrivia/internal/metrics"
	"tunetrivia/internal/rooms"
	"tunetrivia/internal/sessions"
	"tunetrivia/internal/wshub"
)

// Run wires the service from the environment and serves until SIGINT or
// SIGTERM.
func Run() error {
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.LogPretty)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	srv := &Server{
		Registry: reg,
		Origins:  cfg.AllowedOrigins,
		Limits:   wshub.Limits{Rate: cfg.EventRate, Burst: cfg.EventBurst},
	}

	var (
		archive game.Archiver
		wg      sync.WaitGroup
	)
	// Optional database connection
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Warn().Err(err).Msg("database unavailable, running without archive")
		} else {
			if err := database.Migrate(ctx); err != nil {
				log.Error().Err(err).Msg("migration failed")
			}
			srv.DB = database
			recorder := db.NewRecorder(database, 100)
			archive = recorder
			wg.Add(1)
			go func() {
				defer wg.Done()
				recorder.Run(ctx)
			}()
		}
	} else {
		log.Info().Msg("DATABASE_URL not set, running without archive")
	}

	if cfg.CatalogURL != "" {
		srv.Catalog = catalog.NewClient(cfg.CatalogURL, cfg.CatalogTTL, nil)
	}

	out := broadcast.NewBroadcaster()
	out.OnDrop = func(string) { m.Rejected(metrics.ReasonOutboxOverflow) }
	srv.Game = game.NewCoordinator(
		rooms.NewStore(cfg.Game()),
		sessions.NewTracker(),
		out,
		game.Options{Metrics: m, Archive: archive},
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		srv.Game.RunSweeper(ctx, time.Minute)
	}()

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		// websocket handlers outlive Shutdown; tie them to the signal context
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpSrv.Addr).Msg("server listening")
		errCh <- httpSrv.ListenAndServe()
	}()

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
		stop()
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = err
	}

	wg.Wait()
	if srv.DB != nil {
		srv.DB.Close()
	}
	return serveErr
}
