package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	UploadDir string `toml:"upload_dir"`
	LogDir    string `toml:"log_dir"`
}

// Database selects and tunes the card store.
type Database struct {
	// Driver is "sqlite" or "postgres".
	Driver                 string `toml:"driver"`
	SQLitePath             string `toml:"sqlite_path"`
	DSN                    string `toml:"dsn"`
	MaxConns               int    `toml:"max_conns"`
	MinConns               int    `toml:"min_conns"`
	ConnMaxLifetimeSeconds int    `toml:"conn_max_lifetime_seconds"`
	DialTimeoutSeconds     int    `toml:"dial_timeout_seconds"`
}

// OCR selects the text detection engine.
type OCR struct {
	// Engine is "tesseract" or "vision".
	Engine                string  `toml:"engine"`
	TesseractBinary       string  `toml:"tesseract_binary"`
	TesseractLang         string  `toml:"tesseract_lang"`
	TessdataDir           string  `toml:"tessdata_dir"`
	PSM                   int     `toml:"psm"`
	VisionCredentialsFile string  `toml:"vision_credentials_file"`
	TimeoutSeconds        int     `toml:"timeout_seconds"`
	MinConfidence         float64 `toml:"min_confidence"`
}

// OCRCache configures the Redis-backed detection cache.
type OCRCache struct {
	Enabled    bool   `toml:"enabled"`
	RedisURL   string `toml:"redis_url"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

// Classifier tunes the fragment classifier.
type Classifier struct {
	StrictEmail     bool     `toml:"strict_email"`
	StrictAmbiguity bool     `toml:"strict_ambiguity"`
	RegionNames     []string `toml:"region_names"`
	// RegionSimilarity enables fuzzy region matching when between 0 and 1.
	RegionSimilarity float64 `toml:"region_similarity"`
}

// API configures the HTTP server started by "bizcard serve".
type API struct {
	Bind           string `toml:"bind"`
	Token          string `toml:"token"`
	MaxUploadBytes int64  `toml:"max_upload_bytes"`
	// ShareSecret signs expiring card share links. Empty disables sharing.
	ShareSecret string `toml:"share_secret"`
	// PublicURL prefixes share links. Defaults to http://<bind>.
	PublicURL string `toml:"public_url"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for bizcard.
//
// Configuration sections by subsystem:
//   - Paths: data, upload archive, and log directories
//   - Database: sqlite or postgres card store
//   - OCR: tesseract or Google Vision detection
//   - OCRCache: Redis cache of detections keyed by image hash
//   - Classifier: strictness switches and known region names
//   - API: HTTP server bind address and bearer token
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Database   Database   `toml:"database"`
	OCR        OCR        `toml:"ocr"`
	OCRCache   OCRCache   `toml:"ocr_cache"`
	Classifier Classifier `toml:"classifier"`
	API        API        `toml:"api"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, "", false, err
	}

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// LoadDotEnv reads KEY=VALUE pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("bizcard.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data, upload, and log directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.UploadDir, c.Paths.LogDir}
	if c.Database.Driver == DriverSQLite {
		dirs = append(dirs, filepath.Dir(c.Database.SQLitePath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the single-instance lock file used by the API server.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "bizcard.lock")
}

// OCRTimeout returns the per-image detection timeout.
func (c *Config) OCRTimeout() time.Duration {
	return time.Duration(c.OCR.TimeoutSeconds) * time.Second
}

// ShareBaseURL returns the prefix used for share links.
func (c *Config) ShareBaseURL() string {
	if c.API.PublicURL != "" {
		return c.API.PublicURL
	}
	return "http://" + c.API.Bind
}

// OCRCacheTTL returns how long cached detections live.
func (c *Config) OCRCacheTTL() time.Duration {
	return time.Duration(c.OCRCache.TTLSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
