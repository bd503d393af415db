package config

import (
	"fmt"
	"log/slog"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDatabase configures the database backend
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		if dbType != "memory" && dbType != "postgres" {
			return fmt.Errorf("database type must be 'memory' or 'postgres', got: %s", dbType)
		}
		if dbType == "postgres" && url == "" {
			return fmt.Errorf("database URL is required for postgres")
		}
		c.DatabaseType = dbType
		c.DatabaseURL = url
		return nil
	}
}

// WithDatabaseSchema sets the database schema (for Postgres)
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithAutoMigrate runs the embedded migrations when services are built
func WithAutoMigrate(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.AutoMigrate = enabled
		return nil
	}
}

// WithCache sets the cache key prefix and the maximum number of cached blocks
func WithCache(prefix string, size int) Option {
	return func(c *ServerConfig) error {
		if size < 0 {
			return fmt.Errorf("cache size cannot be negative, got: %d", size)
		}
		c.CachePrefix = prefix
		c.CacheSize = size
		return nil
	}
}

// WithTemplates sets the site template source
func WithTemplates(tc TemplateConfig) Option {
	return func(c *ServerConfig) error {
		c.Templates = tc
		return nil
	}
}

// WithReloadTemplates disables caching of parsed templates and compiled pages
func WithReloadTemplates(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.ReloadTemplates = enabled
		return nil
	}
}

// WithRichTextEditor enables the rich-text widget in the admin form
func WithRichTextEditor(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.RichTextEditor = enabled
		return nil
	}
}

// WithJWTSecret protects the admin API with HS256 bearer tokens
func WithJWTSecret(secret string) Option {
	return func(c *ServerConfig) error {
		c.JWTSecret = secret
		return nil
	}
}

// WithLogger sets the logger passed to every built component
func WithLogger(logger *slog.Logger) Option {
	return func(c *ServerConfig) error {
		c.logger = logger
		return nil
	}
}
