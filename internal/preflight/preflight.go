package preflight

import (
	"context"

	"bizcard/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Pinger is satisfied by the card store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RunAll executes all applicable preflight checks for the given config. The
// store check runs only when st is non-nil.
func RunAll(ctx context.Context, cfg *config.Config, st Pinger) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	results = append(results, CheckDirectoryAccess("Upload directory", cfg.Paths.UploadDir))
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	switch cfg.OCR.Engine {
	case config.EngineVision:
		results = append(results, CheckVisionCredentials(cfg.OCR.VisionCredentialsFile))
	default:
		results = append(results, CheckBinary("Tesseract", cfg.OCR.TesseractBinary))
	}

	if st != nil {
		results = append(results, CheckStore(ctx, cfg.Database.Driver, st))
	}

	if cfg.OCRCache.Enabled {
		results = append(results, CheckRedis(ctx, cfg.OCRCache.RedisURL))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
