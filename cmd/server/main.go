package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/mcoot/tictactoe/internal/api"
	"github.com/mcoot/tictactoe/internal/factory"
	"github.com/mcoot/tictactoe/internal/services/game"
	redisstorage "github.com/mcoot/tictactoe/internal/storage/redis"
	"github.com/mcoot/tictactoe/internal/telemetry"
)

var (
	listenAddr   = envOr("TTT_ADDR", ":8080")
	storageType  = envOr("STORAGE_TYPE", factory.StorageTypeMemory)
	redisURL     = os.Getenv("REDIS_URL")
	sqlitePath   = envOr("SQLITE_PATH", "tictactoe.db")
	requireLogin = envBool("TTT_REQUIRE_LOGIN")
	jwtSecret    = os.Getenv("TTT_JWT_SECRET")
	logLevel     = envOr("TTT_LOG_LEVEL", "info")
	traceStdout  = envBool("TTT_TRACE_STDOUT")
)

func init() {
	pflag.StringVarP(&listenAddr, "listen-addr", "l", listenAddr, "address to listen on")
	pflag.StringVar(&storageType, "storage", storageType, "storage backend: memory, redis or sqlite")
	pflag.StringVar(&redisURL, "redis-url", redisURL, "Redis URL (storage=redis)")
	pflag.StringVar(&sqlitePath, "sqlite-path", sqlitePath, "SQLite database file (storage=sqlite)")
	pflag.BoolVar(&requireLogin, "require-login", requireLogin, "only registered players may start rounds")
	pflag.StringVar(&jwtSecret, "jwt-secret", jwtSecret, "secret for signing session tokens (random if empty)")
	pflag.StringVar(&logLevel, "log-level", logLevel, "log level: debug, info, warn or error")
	pflag.BoolVar(&traceStdout, "trace-stdout", traceStdout, "export trace spans to stdout")
	pflag.Parse()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	os.Exit(start(ctx, logger))
}

func start(ctx context.Context, logger *slog.Logger) int {
	shutdownTelemetry, err := telemetry.Setup(telemetry.Config{
		ServiceName:  "tictactoe",
		StdoutTraces: traceStdout,
	})
	if err != nil {
		logger.Error("failed to set up telemetry", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Error("failed to shut down telemetry", slog.String("error", err.Error()))
		}
	}()

	cfg := factory.Config{
		Logger:      logger,
		StorageType: storageType,
		SQLitePath:  sqlitePath,
	}
	if storageType == factory.StorageTypeRedis {
		if redisURL == "" {
			logger.Error("REDIS_URL required when STORAGE_TYPE=redis")
			return 1
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.RedisConfig = &redisCfg
	}
	gameCfg := game.DefaultConfig()
	gameCfg.RequireLogin = requireLogin
	cfg.GameConfig = &gameCfg
	cfg.AuthConfig.Secret = []byte(jwtSecret)
	if jwtSecret == "" {
		logger.Warn("no token secret configured; sessions will not survive a restart")
	}

	app, err := factory.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		AuthService:    app.AuthService,
		GameController: app.GameController,
		SearchService:  app.SearchService,
		StorageType:    app.StorageType,
	})

	serverCfg := api.DefaultServerConfig()
	serverCfg.Addr = listenAddr
	server := api.NewServer(router, serverCfg, logger)

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		return server.Run(ctx)
	})
	errg.Go(func() error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := app.AuthService.CleanRevokedTokens(ctx); err != nil {
					logger.Warn("failed to clean revoked tokens", slog.String("error", err.Error()))
				}
			}
		}
	})

	if err := errg.Wait(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("server stopped")
	return 0
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return err == nil && v
}
