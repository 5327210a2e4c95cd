package config

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	EngineTesseract = "tesseract"
	EngineVision    = "vision"
)

const (
	defaultConfigPath             = "~/.config/bizcard/config.toml"
	defaultDataDir                = "~/.local/share/bizcard"
	defaultLogDir                 = "~/.local/share/bizcard/logs"
	defaultSQLiteFile             = "cards.db"
	defaultMaxConns               = 5
	defaultMinConns               = 0
	defaultConnMaxLifetimeSeconds = 1800
	defaultDialTimeoutSeconds     = 10
	defaultTesseractBinary        = "tesseract"
	defaultTesseractLang          = "eng"
	defaultTesseractPSM           = 6
	defaultOCRTimeoutSeconds      = 60
	defaultMinConfidence          = 0.3
	defaultOCRCacheTTLSeconds     = 7 * 24 * 3600
	defaultAPIBind                = "127.0.0.1:7488"
	defaultMaxUploadBytes         = 10 << 20
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Database: Database{
			Driver:                 DriverSQLite,
			MaxConns:               defaultMaxConns,
			MinConns:               defaultMinConns,
			ConnMaxLifetimeSeconds: defaultConnMaxLifetimeSeconds,
			DialTimeoutSeconds:     defaultDialTimeoutSeconds,
		},
		OCR: OCR{
			Engine:          EngineTesseract,
			TesseractBinary: defaultTesseractBinary,
			TesseractLang:   defaultTesseractLang,
			PSM:             defaultTesseractPSM,
			TimeoutSeconds:  defaultOCRTimeoutSeconds,
			MinConfidence:   defaultMinConfidence,
		},
		OCRCache: OCRCache{
			TTLSeconds: defaultOCRCacheTTLSeconds,
		},
		API: API{
			Bind:           defaultAPIBind,
			MaxUploadBytes: defaultMaxUploadBytes,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
