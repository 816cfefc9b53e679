package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/johnrirwin/newsdesk/internal/aggregator"
	"github.com/johnrirwin/newsdesk/internal/cache"
	"github.com/johnrirwin/newsdesk/internal/config"
	"github.com/johnrirwin/newsdesk/internal/httpapi"
	"github.com/johnrirwin/newsdesk/internal/kvstore"
	"github.com/johnrirwin/newsdesk/internal/logging"
	"github.com/johnrirwin/newsdesk/internal/mcp"
	"github.com/johnrirwin/newsdesk/internal/newsapi"
	"github.com/johnrirwin/newsdesk/internal/ratelimit"
	"github.com/johnrirwin/newsdesk/internal/reader"
	"github.com/johnrirwin/newsdesk/internal/saved"
	"github.com/johnrirwin/newsdesk/internal/selection"
)

// Version is set at build time with -ldflags "-X ...app.Version=...".
var Version = "dev"

// App holds all application dependencies
type App struct {
	Config     *config.Config
	Logger     *logging.Logger
	Cache      cache.Cache
	Aggregator *aggregator.Aggregator
	Reader     *reader.Service
	HTTPServer *httpapi.Server
	MCPServer  *mcp.Server

	memoryCache    *cache.MemoryCache
	redisCache     *cache.RedisCache
	selectionStore kvstore.Store
	refreshLimiter ratelimit.RateLimiter
}

// New creates and initializes a new App instance
func New(cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	// Initialize logger
	app.Logger = logging.New(logging.ParseLevel(cfg.Logging.Level))

	// Initialize cache and refresh limiter
	app.Cache = app.initCache()

	// Initialize NewsAPI client and aggregator
	client, err := app.initClient()
	if err != nil {
		return nil, err
	}
	app.Aggregator = aggregator.New(client, app.Logger)

	// Initialize persistent state
	app.selectionStore = app.initSelectionStore()
	selections := selection.NewKVStore(app.selectionStore, app.Logger)
	savedStore := saved.NewFileStore(cfg.SavedArticlesDir(), app.Logger)

	app.Reader = reader.New(app.Aggregator, selections, saved.NewCollection(savedStore), app.Cache, app.Logger)

	// Initialize servers
	app.initServers()

	return app, nil
}

// Shutdown stops the HTTP server and releases every backend.
func (a *App) Shutdown(ctx context.Context) error {
	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error("HTTP server shutdown error", logging.WithField("error", err.Error()))
		}
	}

	if a.selectionStore != nil {
		if err := a.selectionStore.Close(); err != nil {
			a.Logger.Error("Selection store close error", logging.WithField("error", err.Error()))
		}
	}

	if a.memoryCache != nil {
		a.memoryCache.Stop()
	}
	if a.redisCache != nil {
		if err := a.redisCache.Close(); err != nil {
			a.Logger.Error("Redis close error", logging.WithField("error", err.Error()))
		}
	}

	return nil
}

func (a *App) initCache() cache.Cache {
	interval := a.Config.Server.RefreshInterval

	switch a.Config.Cache.Backend {
	case "none":
		a.Logger.Info("Response cache disabled")
		a.refreshLimiter = ratelimit.New(interval)
		return nil
	case "redis":
		a.Logger.Info("Using Redis cache backend", logging.WithField("addr", a.Config.Redis.Addr))
		redisCache, err := cache.NewRedis(cache.RedisConfig{
			Addr:     a.Config.Redis.Addr,
			Password: a.Config.Redis.Password,
			DB:       a.Config.Redis.DB,
			Prefix:   a.Config.Redis.Prefix + "cache:",
		}, a.Config.Cache.TTL)
		if err != nil {
			a.Logger.Error("Failed to connect to Redis, falling back to memory cache", logging.WithField("error", err.Error()))
			return a.newMemoryCache(interval)
		}
		// Use Redis for distributed rate limiting when available
		a.redisCache = redisCache
		a.refreshLimiter = ratelimit.NewRedis(redisCache.Client(), a.Config.Redis.Prefix+"ratelimit:refresh:", interval)
		a.Logger.Info("Using Redis for distributed rate limiting")
		return redisCache
	default:
		a.Logger.Info("Using in-memory cache backend")
		return a.newMemoryCache(interval)
	}
}

func (a *App) newMemoryCache(interval time.Duration) cache.Cache {
	a.refreshLimiter = ratelimit.New(interval)
	a.memoryCache = cache.NewMemory(a.Config.Cache.TTL)
	return a.memoryCache
}

func (a *App) initClient() (*newsapi.Client, error) {
	builder, err := newsapi.NewBuilder(a.Config.NewsAPI.BaseURL)
	if err != nil {
		return nil, err
	}

	keys := a.Config.KeyProvider()
	if keys.NewsAPIKey() == "" {
		a.Logger.Error("NEWS_API_KEY is not set; NewsAPI will reject every request")
	}

	client := newsapi.NewClient(builder, keys, newsapi.Config{
		Timeout:   a.Config.NewsAPI.Timeout,
		UserAgent: a.Config.NewsAPI.UserAgent,
	}, a.Logger)

	if interval := a.Config.NewsAPI.MinInterval; interval > 0 {
		a.Logger.Info("Pacing NewsAPI requests", logging.WithField("interval", interval.String()))
		client.WithPacer(ratelimit.New(interval))
	}
	return client, nil
}

// initSelectionStore opens the configured backend, falling back to memory
// so the reader still works for this process.
func (a *App) initSelectionStore() kvstore.Store {
	backend := a.Config.Selection.Backend

	store, err := a.openSelectionStore(backend)
	if err != nil {
		a.Logger.Warn("Failed to open selection store, selections will not persist", logging.WithFields(map[string]interface{}{
			"backend": backend,
			"error":   err.Error(),
		}))
		return kvstore.NewMemory()
	}

	a.Logger.Info("Selection store ready", logging.WithField("backend", backend))
	return store
}

func (a *App) openSelectionStore(backend string) (kvstore.Store, error) {
	prefix := a.Config.Redis.Prefix + "prefs:"

	switch backend {
	case "memory":
		return kvstore.NewMemory(), nil
	case "redis":
		if a.redisCache != nil {
			return kvstore.NewRedisWithClient(a.redisCache.Client(), prefix), nil
		}
		return kvstore.NewRedis(a.Config.Redis.Addr, a.Config.Redis.Password, a.Config.Redis.DB, prefix)
	case "postgres":
		pg := kvstore.DefaultPostgresConfig()
		pg.Host = a.Config.Database.Host
		pg.Port = a.Config.Database.Port
		pg.User = a.Config.Database.User
		pg.Password = a.Config.Database.Password
		pg.Database = a.Config.Database.Database
		pg.SSLMode = a.Config.Database.SSLMode
		return kvstore.OpenPostgres(pg)
	default:
		return kvstore.OpenSQLite(a.Config.SelectionDBPath())
	}
}

func (a *App) initServers() {
	a.HTTPServer = httpapi.New(a.Reader, a.refreshLimiter, a.Logger)

	mcpHandler := mcp.NewHandler(a.Reader, a.Logger)
	a.MCPServer = mcp.NewServer(mcpHandler, Version, a.Logger)
}

// RunMCP serves MCP over stdio until stdin closes or ctx is done.
func (a *App) RunMCP(ctx context.Context) error {
	a.Logger.Info("Starting MCP server in stdio mode")

	a.Logger.Info("Pre-fetching sources...")
	a.prefetch(ctx)

	err := a.MCPServer.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// RunHTTP serves the HTTP API until ctx is done.
func (a *App) RunHTTP(ctx context.Context) error {
	addr := a.Config.Server.HTTPAddr
	a.Logger.Info("Starting HTTP server", logging.WithField("addr", addr))

	// Pre-fetch sources in background
	go func() {
		a.Logger.Info("Pre-fetching sources in background...")
		a.prefetch(ctx)
		a.Logger.Info("Initial fetch complete")
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.HTTPServer.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.HTTPServer.Shutdown(shutdownCtx)
	}
}

func (a *App) prefetch(ctx context.Context) {
	if _, _, err := a.Reader.Sources(ctx, false); err != nil {
		a.Logger.Warn("Initial fetch had errors", logging.WithField("error", err.Error()))
	}
}
