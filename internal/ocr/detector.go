package ocr

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"bizcard/internal/config"
	"bizcard/internal/contact"
	"bizcard/internal/logging"
	"bizcard/internal/services"
)

// Detection is one line of text found on an image.
type Detection struct {
	Text       string      `json:"text"`
	Box        contact.Box `json:"box"`
	Confidence float64     `json:"confidence"`
}

// Detector finds text on an encoded image.
type Detector interface {
	Name() string
	Detect(ctx context.Context, image []byte) ([]Detection, error)
}

// New builds the detector selected by cfg.OCR.Engine, wrapped with the Redis
// cache when cfg.OCRCache is enabled.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Detector, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "ocr", "init", "config is nil", nil)
	}
	logger = logging.NewComponentLogger(logger, "ocr")

	var (
		det Detector
		err error
	)
	switch cfg.OCR.Engine {
	case config.EngineVision:
		det, err = NewVisionDetector(ctx, cfg.OCR.VisionCredentialsFile, logger)
	case config.EngineTesseract, "":
		det = NewTesseractDetector(TesseractOptions{
			Binary:      cfg.OCR.TesseractBinary,
			Lang:        cfg.OCR.TesseractLang,
			TessdataDir: cfg.OCR.TessdataDir,
			PSM:         cfg.OCR.PSM,
		}, logger)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "ocr", "init", fmt.Sprintf("unsupported engine %q", cfg.OCR.Engine), nil)
	}
	if err != nil {
		return nil, err
	}

	det = WithTimeout(det, cfg.OCRTimeout())

	if cfg.OCRCache.Enabled {
		cache, err := NewRedisCache(cfg.OCRCache.RedisURL)
		if err != nil {
			_ = Close(det)
			return nil, err
		}
		det = NewCachedDetector(det, cache, cfg.OCRCacheTTL(), logger)
	}
	return det, nil
}

// Close releases resources held by det, if any.
func Close(det Detector) error {
	if c, ok := det.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type timeoutDetector struct {
	inner   Detector
	timeout time.Duration
}

// WithTimeout bounds every Detect call on det. A non-positive timeout returns
// det unchanged.
func WithTimeout(det Detector, timeout time.Duration) Detector {
	if timeout <= 0 {
		return det
	}
	return &timeoutDetector{inner: det, timeout: timeout}
}

func (d *timeoutDetector) Name() string { return d.inner.Name() }

func (d *timeoutDetector) Detect(ctx context.Context, image []byte) ([]Detection, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	dets, err := d.inner.Detect(ctx, image)
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		return nil, services.Wrap(services.ErrTimeout, "ocr", d.inner.Name(), fmt.Sprintf("detection exceeded %s", d.timeout), err)
	}
	return dets, err
}

func (d *timeoutDetector) Close() error { return Close(d.inner) }
