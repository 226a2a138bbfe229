package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/sundayezeilo/linkshelf/internal/config"
	"github.com/sundayezeilo/linkshelf/internal/db"
	"github.com/sundayezeilo/linkshelf/internal/links"
	"github.com/sundayezeilo/linkshelf/internal/metadata"
	"github.com/sundayezeilo/linkshelf/internal/server"
	"github.com/sundayezeilo/linkshelf/internal/sqlite"
)

// App holds the application dependencies and configuration.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	DBPool   *pgxpool.Pool
	SQLiteDB *sqlite.DB
	Server   *server.Server
	Handler  *links.Handler
}

// New initializes and returns a new App instance with all dependencies wired up.
func New(ctx context.Context) (*App, error) {
	if err := loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := SetupLogger(cfg.App.LogLevel)

	logger.Info("starting application",
		"env", cfg.App.Environment,
		"version", cfg.App.ServiceVersion,
		"store", cfg.Store.Driver,
	)

	a := &App{Config: cfg, Logger: logger}

	repo, err := a.openRepository(ctx)
	if err != nil {
		return nil, err
	}

	extractor := metadata.NewExtractor(
		metadata.WithTimeout(cfg.Extractor.Timeout),
		metadata.WithMaxBodyBytes(cfg.Extractor.MaxBodyBytes),
		metadata.WithUserAgent(cfg.Extractor.UserAgent),
		metadata.WithLogger(logger),
	)

	svc := links.NewService(repo, &links.ServiceConfig{Logger: logger})
	a.Handler = links.NewHandler(links.HandlerConfig{
		Service:   svc,
		Extractor: extractor,
		Logger:    logger,
	})
	a.Server = server.New(cfg, logger, a.Handler)

	logger.Info("application initialized", "port", cfg.Server.Port)

	return a, nil
}

// openRepository connects the configured store and returns a repository on
// top of it. Connections opened here are released by Shutdown.
func (a *App) openRepository(ctx context.Context) (links.Repository, error) {
	switch a.Config.Store.Driver {
	case config.DriverPostgres:
		pool, err := connectDatabase(ctx, a.Config, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.DBPool = pool

		if a.Config.Database.AutoMigrate {
			if err := db.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
			a.Logger.Info("database schema applied")
		}
		return links.NewPostgresRepository(db.New(pool), nil), nil

	case config.DriverSQLite:
		sdb := sqlite.NewDB(a.Config.Store.SQLitePath)
		if err := sdb.Open(ctx); err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		a.SQLiteDB = sdb
		a.Logger.Info("sqlite database opened", "path", sdb.Path())
		return links.NewSQLiteRepository(sdb, nil), nil

	default:
		a.Logger.Warn("using in-memory store; links are lost on restart")
		return links.NewMemoryRepository(nil), nil
	}
}

// Start starts the application server.
func (a *App) Start(ctx context.Context) error {
	a.Logger.Info("server starting", "port", a.Config.Server.Port)

	if err := a.Server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.Logger.Info("shutting down application")

	if a.DBPool != nil {
		a.DBPool.Close()
		a.Logger.Info("database connection closed")
	}

	if a.SQLiteDB != nil {
		if err := a.SQLiteDB.Close(); err != nil {
			return fmt.Errorf("failed to close sqlite database: %w", err)
		}
		a.Logger.Info("sqlite database closed")
	}

	return nil
}

// loadEnv loads .env file only in non-production environments.
func loadEnv() error {
	env := os.Getenv("APP_ENV")
	if env == "" || env == "development" || env == "test" {
		if err := godotenv.Load(); err != nil {
			log.Println("no .env file found.")
		}
	}
	return nil
}

// SetupLogger creates a structured JSON logger for the given level name.
func SetupLogger(level string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// connectDatabase establishes a connection to the PostgreSQL database.
func connectDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.Database.MaxConns
	poolConfig.MinConns = cfg.Database.MinConns

	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established")

	return pool, nil
}
