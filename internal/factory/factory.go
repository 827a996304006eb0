package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/tictactoe/internal/dependencies/clock"
	"github.com/mcoot/tictactoe/internal/dependencies/random"
	"github.com/mcoot/tictactoe/internal/services/auth"
	"github.com/mcoot/tictactoe/internal/services/game"
	"github.com/mcoot/tictactoe/internal/services/scoring"
	"github.com/mcoot/tictactoe/internal/services/search"
	"github.com/mcoot/tictactoe/internal/storage"
	"github.com/mcoot/tictactoe/internal/storage/memory"
	redisstorage "github.com/mcoot/tictactoe/internal/storage/redis"
	sqlitestorage "github.com/mcoot/tictactoe/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage     storage.Storage
	StorageType string

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	SearchService  *search.Service
	ScoringService *scoring.Service
	GameController *game.Controller
	AuthService    *auth.Service

	closer io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLitePath is the database file (required if StorageType is "sqlite")
	SQLitePath string

	// Zero values take each package's DefaultConfig
	AuthConfig    auth.Config
	GameConfig    *game.Config
	SearchConfig  *search.Config
	ScoringConfig *scoring.Config
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	// Create storage based on type
	var store storage.Storage
	var closer io.Closer
	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store, closer = redisStore, redisStore
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		sqliteStore, err := sqlitestorage.New(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store, closer = sqliteStore, sqliteStore
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'sqlite'", storageType)
	}

	logger.Info("storage ready", slog.String("storage", storageType))

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	app, err := newWithDependencies(store, clk, rnd, cfg, logger)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, err
	}
	app.StorageType = storageType
	app.closer = closer
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) (*App, error) {
	searchCfg := search.DefaultConfig()
	if cfg.SearchConfig != nil {
		searchCfg = *cfg.SearchConfig
	}
	scoringCfg := scoring.DefaultConfig()
	if cfg.ScoringConfig != nil {
		scoringCfg = *cfg.ScoringConfig
	}
	gameCfg := game.DefaultConfig()
	if cfg.GameConfig != nil {
		gameCfg = *cfg.GameConfig
	}

	// Create services
	searchService := search.NewService(search.DefaultStrategies(searchCfg, rnd), logger)
	scoringService := scoring.New(scoringCfg)
	gameController := game.NewController(store, searchService, scoringService, clk, rnd, gameCfg, logger)
	authService, err := auth.New(store, clk, rnd, cfg.AuthConfig, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		Storage:        store,
		StorageType:    StorageTypeMemory,
		Clock:          clk,
		Random:         rnd,
		SearchService:  searchService,
		ScoringService: scoringService,
		GameController: gameController,
		AuthService:    authService,
	}, nil
}

// Close releases the storage backend's connections
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
