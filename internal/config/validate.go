package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateOCR(); err != nil {
		return err
	}
	if err := c.validateOCRCache(); err != nil {
		return err
	}
	if err := c.validateClassifier(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return errors.New("database.sqlite_path must be set")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = defaultConfigPath
			}
			return fmt.Errorf("database.dsn is required for the postgres driver. Set BIZCARD_DB_URL env var or edit %s (create with 'bizcard config init')", defaultPath)
		}
	default:
		return fmt.Errorf("database.driver: unsupported value %q (want sqlite or postgres)", c.Database.Driver)
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return errors.New("database.min_conns must not exceed database.max_conns")
	}
	return nil
}

func (c *Config) validateOCR() error {
	switch c.OCR.Engine {
	case EngineTesseract, EngineVision:
	default:
		return fmt.Errorf("ocr.engine: unsupported value %q (want tesseract or vision)", c.OCR.Engine)
	}
	if c.OCR.PSM < 0 || c.OCR.PSM > 13 {
		return errors.New("ocr.psm must be between 0 and 13")
	}
	if c.OCR.MinConfidence > 1 {
		return errors.New("ocr.min_confidence must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateOCRCache() error {
	if c.OCRCache.Enabled && c.OCRCache.RedisURL == "" {
		return errors.New("ocr_cache.redis_url is required when ocr_cache.enabled is true (or set REDIS_URL)")
	}
	return nil
}

func (c *Config) validateClassifier() error {
	if c.Classifier.RegionSimilarity < 0 || c.Classifier.RegionSimilarity > 1 {
		return errors.New("classifier.region_similarity must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if _, _, err := net.SplitHostPort(c.API.Bind); err != nil {
		return fmt.Errorf("api.bind must be host:port: %w", err)
	}
	if c.API.ShareSecret != "" && len(c.API.ShareSecret) < 16 {
		return errors.New("api.share_secret must be at least 16 characters")
	}
	if c.API.PublicURL != "" && !strings.HasPrefix(c.API.PublicURL, "http://") && !strings.HasPrefix(c.API.PublicURL, "https://") {
		return errors.New("api.public_url must start with http:// or https://")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
