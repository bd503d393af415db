package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks/admin"
	cachememory "github.com/tendant/simple-flatblocks/pkg/flatblocks/cache/memory"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks/engine"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks/repo/memory"
	repopg "github.com/tendant/simple-flatblocks/pkg/flatblocks/repo/postgres"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks/templates"
	tplfs "github.com/tendant/simple-flatblocks/pkg/flatblocks/templates/fs"
	tplmemory "github.com/tendant/simple-flatblocks/pkg/flatblocks/templates/memory"
	tpls3 "github.com/tendant/simple-flatblocks/pkg/flatblocks/templates/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:         "8080",
		Environment:  "development",
		DatabaseType: "memory",
		DBSchema:     "flatblocks",
		CachePrefix:  flatblocks.DefaultCachePrefix,
		CacheSize:    cachememory.DefaultSize,
		Templates:    TemplateConfig{Type: "embed"},
	}
}

// ServerConfig represents configuration for the flatblocks service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"
	DBSchema     string // Postgres schema to use (default: flatblocks)
	AutoMigrate  bool   // Run embedded migrations when building services

	// Cache configuration
	CachePrefix string
	CacheSize   int // 0 disables caching

	// Template configuration
	Templates       TemplateConfig
	ReloadTemplates bool // Re-read wrapper templates and pages on every render

	// Admin options
	RichTextEditor bool
	JWTSecret      string // Protects the admin API when set

	logger *slog.Logger
}

// TemplateConfig selects where site templates (pages and wrapper
// overrides) are read from. The embedded defaults are always consulted last.
type TemplateConfig struct {
	Type string // "embed", "memory", "fs", "s3"

	BaseDir string // fs

	Bucket          string // s3
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}

	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	if c.CacheSize < 0 {
		return errors.New("cache_size cannot be negative")
	}

	switch c.Templates.Type {
	case "embed", "memory":
	case "fs":
		if c.Templates.BaseDir == "" {
			return errors.New("template base directory is required for fs templates")
		}
	case "s3":
		if c.Templates.Bucket == "" {
			return errors.New("template bucket is required for s3 templates")
		}
	default:
		return fmt.Errorf("unsupported template type: %s", c.Templates.Type)
	}

	return nil
}

// Logger returns the configured logger or slog.Default.
func (c *ServerConfig) Logger() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// Services bundles everything built from a ServerConfig.
type Services struct {
	Repository flatblocks.Repository
	Cache      flatblocks.Cache
	Library    *flatblocks.Library
	Engine     *engine.Library
	Admin      admin.Service
	Renderer   *templates.Renderer

	// Templates reads site templates with the embedded defaults as fallback.
	Templates templates.Source
	// TemplateStore is the writable site source, nil for embedded templates.
	TemplateStore templates.Store

	pool *pgxpool.Pool
}

// Close releases the database pool, if any.
func (s *Services) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// BuildServices creates the repository, cache, template renderer, tag
// library and admin service described by the configuration.
func (c *ServerConfig) BuildServices(ctx context.Context) (*Services, error) {
	logger := c.Logger()
	services := &Services{}

	repo, pool, err := c.buildRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}
	services.Repository = repo
	services.pool = pool

	cache, err := c.BuildCache()
	if err != nil {
		services.Close()
		return nil, fmt.Errorf("failed to build cache: %w", err)
	}
	services.Cache = cache

	store, err := c.BuildTemplateStore(ctx)
	if err != nil {
		services.Close()
		return nil, fmt.Errorf("failed to build template source: %w", err)
	}
	services.TemplateStore = store
	if store != nil {
		services.Templates = templates.Chain{store, templates.Defaults()}
	} else {
		services.Templates = templates.Defaults()
	}

	services.Renderer = templates.New(services.Templates,
		templates.WithReload(c.ReloadTemplates),
		templates.WithLogger(logger),
	)

	lib, err := flatblocks.New(
		flatblocks.WithStore(repo),
		flatblocks.WithCache(cache),
		flatblocks.WithTemplates(services.Renderer),
		flatblocks.WithCachePrefix(c.CachePrefix),
		flatblocks.WithLogger(logger),
	)
	if err != nil {
		services.Close()
		return nil, fmt.Errorf("failed to build flatblocks library: %w", err)
	}
	services.Library = lib

	services.Engine = engine.NewLibrary(engine.WithLogger(logger))
	lib.Register(services.Engine)

	services.Admin = admin.New(repo,
		admin.WithRichTextEditor(c.RichTextEditor),
		admin.WithLogger(logger),
	)

	return services, nil
}

// BuildCache creates the block cache. A size of 0 disables caching.
func (c *ServerConfig) BuildCache() (flatblocks.Cache, error) {
	if c.CacheSize == 0 {
		return flatblocks.NewNoopCache(), nil
	}
	return cachememory.New(cachememory.Config{Size: c.CacheSize})
}

// BuildTemplateStore creates the writable site template source. It returns
// nil for embedded templates.
func (c *ServerConfig) BuildTemplateStore(ctx context.Context) (templates.Store, error) {
	switch c.Templates.Type {
	case "embed":
		return nil, nil
	case "memory":
		return tplmemory.New(nil), nil
	case "fs":
		return tplfs.New(tplfs.Config{BaseDir: c.Templates.BaseDir})
	case "s3":
		return tpls3.New(ctx, tpls3.Config{
			Region:          c.Templates.Region,
			Bucket:          c.Templates.Bucket,
			Prefix:          c.Templates.Prefix,
			AccessKeyID:     c.Templates.AccessKeyID,
			SecretAccessKey: c.Templates.SecretAccessKey,
			Endpoint:        c.Templates.Endpoint,
			UsePathStyle:    c.Templates.UsePathStyle,
		})
	default:
		return nil, fmt.Errorf("unsupported template type: %s", c.Templates.Type)
	}
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository(ctx context.Context) (flatblocks.Repository, *pgxpool.Pool, error) {
	switch c.DatabaseType {
	case "memory":
		return memory.New(), nil, nil
	case "postgres":
		pool, err := NewPool(ctx, c.DatabaseURL, c.DBSchema)
		if err != nil {
			return nil, nil, err
		}
		if c.AutoMigrate {
			if c.DBSchema != "" {
				if _, err := pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{c.DBSchema}.Sanitize()); err != nil {
					pool.Close()
					return nil, nil, fmt.Errorf("failed to create schema %s: %w", c.DBSchema, err)
				}
			}
			if err := repopg.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, err
			}
			c.Logger().Info("database migrations applied", "schema", c.DBSchema)
		}
		return repopg.NewWithPool(pool), pool, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// NewPool opens a pgx pool whose sessions use schema as search_path.
func NewPool(ctx context.Context, databaseURL, schema string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, errors.New("database_url is required for postgres")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", pgx.Identifier{schema}.Sanitize()))
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	return pool, nil
}

// PingPostgres verifies connectivity to Postgres and that the schema, when
// provided, can be selected.
func PingPostgres(databaseURL, schema string) error {
	pool, err := NewPool(context.Background(), databaseURL, schema)
	if err != nil {
		return err
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
