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

	"github.com/gin-gonic/gin"
	"github.com/weiawesome/wes-io-chat/internal/config"
	"github.com/weiawesome/wes-io-chat/internal/handler"
	"github.com/weiawesome/wes-io-chat/internal/hub"
	"github.com/weiawesome/wes-io-chat/internal/idgen"
	"github.com/weiawesome/wes-io-chat/internal/presence"
	"github.com/weiawesome/wes-io-chat/internal/service"
	"github.com/weiawesome/wes-io-chat/pkg/log"
	"github.com/weiawesome/wes-io-chat/pkg/pubsub"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := log.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Init(cfg.Log)
	l := log.L()
	l.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting chat service")

	ids, err := idgen.New(cfg.IDs)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to create id generator")
	}

	// Initialize event bus
	next, err := pubsub.NewPublisher(cfg.Events)
	if err != nil {
		l.Fatal().Err(err).Str("driver", cfg.Events.Driver).Msg("failed to initialize event bus")
	}
	publisher := pubsub.NewAsyncPublisher(next, cfg.Events.QueueSize)
	closers := []io.Closer{publisher}
	l.Info().Str("driver", cfg.Events.Driver).Str("channel", cfg.Events.Channel).Msg("event bus ready")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize presence mirror
	var mirror presence.Mirror
	if cfg.Presence.Redis.Enabled {
		redisMirror, err := presence.NewRedisMirror(cfg.Presence.Redis)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to initialize presence mirror")
		}
		redisMirror.Start(ctx)
		closers = append(closers, redisMirror)
		mirror = redisMirror
		l.Info().Str("address", cfg.Presence.Redis.Address).Msg("connected to redis presence mirror")
	}

	defer func() { closeAll(closers) }()

	wsHub := hub.NewHub(cfg.WebSocket)

	chatSvc := service.NewChatService(wsHub, ids, mirror, publisher, service.Options{
		JoinWindow:    cfg.History.JoinWindow,
		PageSize:      cfg.History.PageSize,
		AnnounceLeave: cfg.Rooms.AnnounceLeave,
		EventChannel:  cfg.Events.Channel,
	})

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(log.GinMiddleware(log.L()))

	handler.NewWSHandler(wsHub, chatSvc, cfg.WebSocket).RegisterRoutes(router)
	handler.NewHTTPHandler(chatSvc, wsHub, cfg.History.PageSize).RegisterRoutes(router)

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		wsHub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		l.Info().Str("addr", server.Addr).Msg("chat service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		l.Info().Msg("shutting down chat service")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			l.Error().Err(err).Msg("server forced to shutdown")
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		l.Error().Err(err).Msg("chat service exited with error")
		stop()
		// os.Exit skips deferred calls.
		closeAll(closers)
		os.Exit(1)
	}

	l.Info().Msg("chat service stopped")
}

// closeAll closes resources in reverse acquisition order, logging failures.
func closeAll(closers []io.Closer) {
	l := log.L()
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			l.Error().Err(err).Msg("failed to close resource")
		}
	}
}
