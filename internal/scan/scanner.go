package scan

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"bizcard/internal/classifier"
	"bizcard/internal/contact"
	"bizcard/internal/fileutil"
	"bizcard/internal/logging"
	"bizcard/internal/ocr"
	"bizcard/internal/services"
	"bizcard/internal/textutil"
)

// Saver persists classified records.
type Saver interface {
	Save(ctx context.Context, record contact.Record) (contact.Record, error)
}

// Options configures a Scanner.
type Options struct {
	// UploadDir receives a copy of every accepted image. Empty disables archiving.
	UploadDir     string
	MinConfidence float64
}

// Request is one scan.
type Request struct {
	Image    []byte
	Filename string
	Save     bool
}

// Result is the outcome of a scan. Detections and Assignments are kept for
// callers that overlay boxes or explain the classification.
type Result struct {
	ScanID      string                  `json:"scan_id"`
	Record      contact.Record          `json:"record"`
	Detections  []ocr.Detection         `json:"detections"`
	Fragments   []contact.Fragment      `json:"fragments"`
	Assignments []classifier.Assignment `json:"assignments"`
	ArchivePath string                  `json:"archive_path,omitempty"`
	Saved       bool                    `json:"saved"`
	Duration    time.Duration           `json:"duration_ns"`
}

// Scanner wires a detector, a classifier, and an optional saver.
type Scanner struct {
	detector   ocr.Detector
	classifier *classifier.Classifier
	saver      Saver
	opts       Options
	logger     *slog.Logger
}

// New constructs a scanner. saver may be nil when saving is never requested.
func New(detector ocr.Detector, cls *classifier.Classifier, saver Saver, opts Options, logger *slog.Logger) *Scanner {
	if cls == nil {
		cls = classifier.New(classifier.Options{})
	}
	return &Scanner{
		detector:   detector,
		classifier: cls,
		saver:      saver,
		opts:       opts,
		logger:     logging.NewComponentLogger(logger, "scan"),
	}
}

// Scan processes req. When saving fails because of a duplicate name the
// populated result is still returned alongside the error.
func (s *Scanner) Scan(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	result := Result{ScanID: uuid.NewString()}
	if id, ok := services.RequestIDFromContext(ctx); ok {
		result.ScanID = id
	} else {
		ctx = services.WithRequestID(ctx, result.ScanID)
	}
	ctx = services.WithOperation(ctx, "scan")
	logger := logging.WithContext(ctx, s.logger)

	mime, err := ocr.ValidateImage(req.Image)
	if err != nil {
		return result, err
	}

	if s.opts.UploadDir != "" {
		path, err := s.archive(result.ScanID, req.Filename, mime, req.Image)
		if err != nil {
			return result, services.Wrap(services.ErrTransient, "scan", "archive", "store uploaded image", err)
		}
		result.ArchivePath = path
	}

	dets, err := s.detector.Detect(ctx, req.Image)
	if err != nil {
		logger.Error("text detection failed", logging.Engine(s.detector.Name()), logging.Error(err))
		return result, err
	}
	result.Detections = dets
	result.Fragments = ocr.Fragments(dets, s.opts.MinConfidence)

	record, trace, err := s.classifier.Explain(result.Fragments)
	if err != nil {
		logger.Warn("classification failed",
			logging.Int("detections", len(dets)),
			logging.Fragments(len(result.Fragments)),
			logging.Error(err),
		)
		return result, err
	}
	record.Image = req.Image
	result.Record = record
	result.Assignments = trace

	logger.Info("card classified",
		logging.Engine(s.detector.Name()),
		logging.Fragments(len(result.Fragments)),
		logging.String("name", record.Name),
	)

	if req.Save {
		if s.saver == nil {
			return result, services.Wrap(services.ErrConfiguration, "scan", "save", "no store configured", nil)
		}
		saved, err := s.saver.Save(ctx, record)
		if err != nil {
			result.Duration = time.Since(start)
			return result, err
		}
		result.Record = saved
		result.Saved = true
	}
	result.Duration = time.Since(start)
	return result, nil
}

// archive writes the upload as <scan id>-<sanitized name><ext>.
func (s *Scanner) archive(scanID, filename, mime string, image []byte) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if filename == "" {
		stem = "card"
	}
	name := fmt.Sprintf("%s-%s%s", scanID, textutil.SanitizeToken(stem), ocr.Extension(mime))
	path := filepath.Join(s.opts.UploadDir, name)
	if err := fileutil.WriteFileAtomic(path, image, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
