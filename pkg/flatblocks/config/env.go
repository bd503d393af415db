package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// WithEnv applies environment variable overrides using the provided prefix.
//
// Server:
//   PORT - Server port (default: "8080")
//   ENVIRONMENT - Runtime environment (default: "development")
//
// Database:
//   DATABASE_URL - "postgres://..." or "postgresql://..."; empty or "memory"
//                  uses the in-memory repository
//   DB_SCHEMA - Postgres schema (default: "flatblocks")
//   AUTO_MIGRATE - Run embedded migrations on startup
//
// Cache:
//   CACHE_PREFIX - Cache key prefix (default: "flatblocks_")
//   CACHE_SIZE - Maximum cached blocks, 0 disables caching (default: 1024)
//
// Templates:
//   TEMPLATE_URL - Site template source (one of):
//                  - "embed://" - Embedded defaults only (default)
//                  - "memory://" - In-memory templates
//                  - "file:///path/to/templates" - Filesystem directory
//                  - "s3://bucket/prefix?region=us-east-1&endpoint=...&path_style=true"
//   RELOAD_TEMPLATES - Re-read templates on every render
//
// Admin:
//   RICH_TEXT_EDITOR - Use a rich-text widget for block content
//   JWT_SECRET - HS256 secret protecting the admin API
func WithEnv(prefix string) Option {
	return func(c *ServerConfig) error {
		if v, ok := lookupEnv(prefix, "PORT"); ok && v != "" {
			c.Port = v
		}
		if v, ok := lookupEnv(prefix, "ENVIRONMENT"); ok && v != "" {
			c.Environment = v
		}

		if err := applyDatabaseEnv(prefix, c); err != nil {
			return err
		}

		if v, ok := lookupEnv(prefix, "CACHE_PREFIX"); ok {
			c.CachePrefix = v
		}
		if v, ok, err := parseIntEnv(prefix, "CACHE_SIZE"); err != nil {
			return err
		} else if ok {
			c.CacheSize = v
		}

		if err := applyTemplateEnv(prefix, c); err != nil {
			return err
		}
		if v, ok, err := parseBoolEnv(prefix, "RELOAD_TEMPLATES"); err != nil {
			return err
		} else if ok {
			c.ReloadTemplates = v
		}

		if v, ok, err := parseBoolEnv(prefix, "RICH_TEXT_EDITOR"); err != nil {
			return err
		} else if ok {
			c.RichTextEditor = v
		}
		if v, ok := lookupEnv(prefix, "JWT_SECRET"); ok {
			c.JWTSecret = v
		}

		return nil
	}
}

// applyDatabaseEnv applies database configuration from environment
func applyDatabaseEnv(prefix string, c *ServerConfig) error {
	if v, ok := lookupEnv(prefix, "DB_SCHEMA"); ok && v != "" {
		c.DBSchema = v
	}
	if v, ok, err := parseBoolEnv(prefix, "AUTO_MIGRATE"); err != nil {
		return err
	} else if ok {
		c.AutoMigrate = v
	}

	dbURL, hasURL := lookupEnv(prefix, "DATABASE_URL")
	if !hasURL || dbURL == "" || dbURL == "memory" {
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
		return nil
	}

	if strings.HasPrefix(dbURL, "postgresql://") || strings.HasPrefix(dbURL, "postgres://") {
		c.DatabaseType = "postgres"
		c.DatabaseURL = dbURL
		return nil
	}

	return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgresql://...')", dbURL)
}

// applyTemplateEnv applies template source configuration from environment
func applyTemplateEnv(prefix string, c *ServerConfig) error {
	raw, ok := lookupEnv(prefix, "TEMPLATE_URL")
	if !ok || raw == "" || raw == "embed" || raw == "embed://" {
		c.Templates = TemplateConfig{Type: "embed"}
		return nil
	}
	if raw == "memory" || raw == "memory://" {
		c.Templates = TemplateConfig{Type: "memory"}
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid TEMPLATE_URL: %w", err)
	}

	switch u.Scheme {
	case "file":
		if u.Path == "" {
			return fmt.Errorf("filesystem path cannot be empty in TEMPLATE_URL")
		}
		c.Templates = TemplateConfig{Type: "fs", BaseDir: u.Path}
		return nil
	case "s3":
		return applyS3Templates(u, c)
	default:
		return fmt.Errorf("unsupported TEMPLATE_URL format: %s (use 'embed://', 'memory://', 'file://...', or 's3://...')", raw)
	}
}

// applyS3Templates configures the S3 template source from URL
// Format: s3://bucket/prefix?region=us-east-1&endpoint=http://localhost:9000&path_style=true
func applyS3Templates(u *url.URL, c *ServerConfig) error {
	if u.Host == "" {
		return fmt.Errorf("S3 bucket name cannot be empty in TEMPLATE_URL")
	}

	tc := TemplateConfig{
		Type:     "s3",
		Bucket:   u.Host,
		Prefix:   strings.Trim(u.Path, "/"),
		Region:   "us-east-1",
		Endpoint: u.Query().Get("endpoint"),
	}
	if region := u.Query().Get("region"); region != "" {
		tc.Region = region
	}
	if v := u.Query().Get("path_style"); v != "" {
		pathStyle, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid path_style in TEMPLATE_URL: %w", err)
		}
		tc.UsePathStyle = pathStyle
	}

	// Credentials come from the standard AWS variables
	if accessKey, ok := os.LookupEnv("AWS_ACCESS_KEY_ID"); ok && accessKey != "" {
		tc.AccessKeyID = accessKey
	}
	if secretKey, ok := os.LookupEnv("AWS_SECRET_ACCESS_KEY"); ok && secretKey != "" {
		tc.SecretAccessKey = secretKey
	}
	if region, ok := os.LookupEnv("AWS_REGION"); ok && region != "" && u.Query().Get("region") == "" {
		tc.Region = region
	}

	c.Templates = tc
	return nil
}

func lookupEnv(prefix, key string) (string, bool) {
	return os.LookupEnv(prefix + key)
}

func parseBoolEnv(prefix, key string) (bool, bool, error) {
	raw, ok := lookupEnv(prefix, key)
	if !ok || raw == "" {
		return false, false, nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("invalid boolean for %s%s: %w", prefix, key, err)
	}
	return parsed, true, nil
}

func parseIntEnv(prefix, key string) (int, bool, error) {
	raw, ok := lookupEnv(prefix, key)
	if !ok || raw == "" {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("invalid integer for %s%s: %w", prefix, key, err)
	}
	return parsed, true, nil
}
