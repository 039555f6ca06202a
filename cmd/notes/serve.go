package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	grpcAdapter "notechan/internal/notes/adapters/grpc"
	httpAdapter "notechan/internal/notes/adapters/http"
	"notechan/internal/notes/adapters/services"
	"notechan/internal/notes/app"
	"notechan/internal/notes/db"
	portcache "notechan/internal/notes/ports/cache"
	"notechan/pkg/logger"
	"notechan/pkg/ratelimit"
	"notechan/pkg/shutdown"
)

// Константы для сообщений сервиса.
const (
	LogServiceStarted      = "note service started"
	LogServiceShutdownDone = "note service shutdown complete"
	LogClosingDB           = "closing storage connections"
	LogClosingRedis        = "closing redis connection"
	LogStoppingHTTP        = "stopping HTTP server"
	LogStoppingGRPC        = "stopping gRPC server"
	LogInitCache           = "initializing note cache"
	LogCacheDisabled       = "note cache disabled"
	LogInitServices        = "initializing services"
	LogInitHTTPServer      = "initializing HTTP server"
	LogStartingHTTP        = "starting HTTP server"
	LogStartingGRPC        = "starting gRPC server"
	LogStartingSweeper     = "starting cleanup sweeper"

	ErrStartHTTPServer = "failed to start HTTP server"
	ErrStartGRPC       = "failed to start gRPC server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, gRPC health server and cleanup sweeper",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	log := logger.Log(ctx)

	log.Info(ctx, LogServiceStarted,
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.String("log_level", cfg.Logging.Level),
		zap.String("startup_time", time.Now().Format(time.RFC3339)))

	store, err := db.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrInitDB, err)
	}

	redisClient, err := openRedis(ctx, cfg)
	if err != nil {
		store.Close(ctx)
		return err
	}

	var notesCache portcache.Cache
	if cfg.Cache.Enabled {
		log.Info(ctx, LogInitCache, zap.Duration("ttl", cfg.Cache.TTL))
		notesCache = noteCache(cfg, redisClient)
	} else {
		log.Info(ctx, LogCacheDisabled)
	}
	queue := cleanupQueue(cfg, redisClient)

	log.Info(ctx, LogInitServices)
	noteService := app.NewNoteService(store.Notes(), store.Channels(), notesCache, queue, cfg.Cache.TTL)
	channelService := app.NewChannelService(store.Channels())
	tokenService := services.NewJWT(cfg.JWT.SecretKey)

	var limiter *ratelimit.KeyedRateLimiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.IdleTTL)
	}

	log.Info(ctx, LogInitHTTPServer)
	httpApp := httpAdapter.NewApp(fiber.Config{
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		BodyLimit:    cfg.HTTP.BodyLimit,
	})
	httpAdapter.SetupRouter(httpApp, httpAdapter.NewHandler(noteService, channelService, store), tokenService, limiter)

	log.Info(ctx, LogStartingHTTP, zap.String("address", cfg.HTTP.GetAddress()))
	go func() {
		if err := httpApp.Listen(cfg.HTTP.GetAddress(), fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
			log.Error(ctx, ErrStartHTTPServer, zap.Error(err))
		}
	}()

	log.Info(ctx, LogStartingGRPC)
	grpcServer := grpcAdapter.New(&cfg.GRPC)
	if err := grpcServer.Start(ctx); err != nil {
		_ = httpApp.Shutdown()
		if redisClient != nil {
			_ = redisClient.Close()
		}
		store.Close(ctx)
		return fmt.Errorf("%s: %w", ErrStartGRPC, err)
	}

	bgCtx, stopBackground := context.WithCancel(ctx)
	go grpcAdapter.WatchHealth(bgCtx, grpcServer, store, cfg.GRPC.HealthCheckInterval)

	if queue != nil {
		log.Info(ctx, LogStartingSweeper, zap.Duration("interval", cfg.Sweeper.Interval))
		go newSweeper(cfg, store, queue, notesCache).Run(bgCtx, cfg.Sweeper.Interval)
	}

	// Сначала останавливаются транспорты и фоновые задачи, затем закрываются соединения.
	shutdown.Wait(ctx, cfg.Shutdown.GetTimeout(),
		func(context.Context) error {
			stopBackground()
			if limiter != nil {
				limiter.Stop()
			}
			return nil
		},
		func(ctx context.Context) error {
			log.Info(ctx, LogStoppingHTTP)
			return httpApp.ShutdownWithContext(ctx)
		},
		func(ctx context.Context) error {
			log.Info(ctx, LogStoppingGRPC)
			grpcServer.Stop(ctx)
			return nil
		},
	)

	shutdown.Run(context.WithoutCancel(ctx), cfg.Shutdown.GetTimeout(),
		func(ctx context.Context) error {
			log.Info(ctx, LogClosingDB)
			store.Close(ctx)
			return nil
		},
		func(ctx context.Context) error {
			if notesCache != nil {
				return notesCache.Close()
			}
			if redisClient != nil {
				log.Info(ctx, LogClosingRedis)
				return redisClient.Close()
			}
			return nil
		},
	)

	log.Info(ctx, LogServiceShutdownDone)
	return nil
}
