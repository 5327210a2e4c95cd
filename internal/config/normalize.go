package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeDatabase(); err != nil {
		return err
	}
	if err := c.normalizeOCR(); err != nil {
		return err
	}
	c.normalizeOCRCache()
	c.normalizeClassifier()
	c.normalizeAPI()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.UploadDir) == "" {
		c.Paths.UploadDir = filepath.Join(c.Paths.DataDir, "uploaded_cards")
	}
	if c.Paths.UploadDir, err = expandPath(c.Paths.UploadDir); err != nil {
		return fmt.Errorf("paths.upload_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDatabase() error {
	driver := strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch driver {
	case "", "sqlite3":
		driver = DriverSQLite
	case "pg", "postgresql", "pgx":
		driver = DriverPostgres
	}
	c.Database.Driver = driver

	var err error
	if strings.TrimSpace(c.Database.SQLitePath) == "" {
		c.Database.SQLitePath = filepath.Join(c.Paths.DataDir, defaultSQLiteFile)
	}
	if c.Database.SQLitePath, err = expandPath(c.Database.SQLitePath); err != nil {
		return fmt.Errorf("database.sqlite_path: %w", err)
	}

	c.Database.DSN = strings.TrimSpace(c.Database.DSN)
	if c.Database.DSN == "" {
		if value, ok := os.LookupEnv("BIZCARD_DB_URL"); ok {
			c.Database.DSN = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("DATABASE_URL"); ok {
			c.Database.DSN = strings.TrimSpace(value)
		}
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = defaultMaxConns
	}
	if c.Database.MinConns < 0 {
		c.Database.MinConns = 0
	}
	if c.Database.ConnMaxLifetimeSeconds <= 0 {
		c.Database.ConnMaxLifetimeSeconds = defaultConnMaxLifetimeSeconds
	}
	if c.Database.DialTimeoutSeconds <= 0 {
		c.Database.DialTimeoutSeconds = defaultDialTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizeOCR() error {
	engine := strings.ToLower(strings.TrimSpace(c.OCR.Engine))
	switch engine {
	case "":
		engine = EngineTesseract
	case "google", "google-vision", "gcv":
		engine = EngineVision
	}
	c.OCR.Engine = engine

	c.OCR.TesseractBinary = strings.TrimSpace(c.OCR.TesseractBinary)
	if c.OCR.TesseractBinary == "" {
		c.OCR.TesseractBinary = defaultTesseractBinary
	}
	c.OCR.TesseractLang = strings.TrimSpace(c.OCR.TesseractLang)
	if c.OCR.TesseractLang == "" {
		c.OCR.TesseractLang = defaultTesseractLang
	}

	var err error
	if c.OCR.TessdataDir, err = expandPath(strings.TrimSpace(c.OCR.TessdataDir)); err != nil {
		return fmt.Errorf("ocr.tessdata_dir: %w", err)
	}
	c.OCR.VisionCredentialsFile = strings.TrimSpace(c.OCR.VisionCredentialsFile)
	if c.OCR.VisionCredentialsFile == "" {
		if value, ok := os.LookupEnv("GOOGLE_APPLICATION_CREDENTIALS"); ok {
			c.OCR.VisionCredentialsFile = strings.TrimSpace(value)
		}
	}
	if c.OCR.VisionCredentialsFile, err = expandPath(c.OCR.VisionCredentialsFile); err != nil {
		return fmt.Errorf("ocr.vision_credentials_file: %w", err)
	}
	if c.OCR.TimeoutSeconds <= 0 {
		c.OCR.TimeoutSeconds = defaultOCRTimeoutSeconds
	}
	if c.OCR.MinConfidence < 0 {
		c.OCR.MinConfidence = 0
	}
	return nil
}

func (c *Config) normalizeOCRCache() {
	c.OCRCache.RedisURL = strings.TrimSpace(c.OCRCache.RedisURL)
	if c.OCRCache.RedisURL == "" {
		if value, ok := os.LookupEnv("REDIS_URL"); ok {
			c.OCRCache.RedisURL = strings.TrimSpace(value)
		}
	}
	if c.OCRCache.TTLSeconds <= 0 {
		c.OCRCache.TTLSeconds = defaultOCRCacheTTLSeconds
	}
}

func (c *Config) normalizeClassifier() {
	names := make([]string, 0, len(c.Classifier.RegionNames))
	seen := make(map[string]struct{}, len(c.Classifier.RegionNames))
	for _, name := range c.Classifier.RegionNames {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" {
			continue
		}
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}
	c.Classifier.RegionNames = names
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		if value, ok := os.LookupEnv("BIZCARD_API_TOKEN"); ok {
			c.API.Token = strings.TrimSpace(value)
		}
	}
	c.API.ShareSecret = strings.TrimSpace(c.API.ShareSecret)
	if c.API.ShareSecret == "" {
		if value, ok := os.LookupEnv("BIZCARD_SHARE_SECRET"); ok {
			c.API.ShareSecret = strings.TrimSpace(value)
		}
	}
	c.API.PublicURL = strings.TrimRight(strings.TrimSpace(c.API.PublicURL), "/")
	if c.API.MaxUploadBytes <= 0 {
		c.API.MaxUploadBytes = defaultMaxUploadBytes
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console", "text":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
