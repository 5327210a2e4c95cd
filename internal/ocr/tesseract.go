package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"bizcard/internal/contact"
	"bizcard/internal/logging"
	"bizcard/internal/services"
)

// TesseractOptions configures the tesseract CLI invocation.
type TesseractOptions struct {
	Binary      string
	Lang        string
	TessdataDir string
	PSM         int
}

// TesseractDetector runs the tesseract CLI in TSV mode.
type TesseractDetector struct {
	opts   TesseractOptions
	runner Runner
	logger *slog.Logger
}

// NewTesseractDetector constructs a detector that executes the real binary.
func NewTesseractDetector(opts TesseractOptions, logger *slog.Logger) *TesseractDetector {
	return NewTesseractDetectorWithRunner(opts, execRunner{logger: logger}, logger)
}

// NewTesseractDetectorWithRunner allows injecting a custom runner (used in tests).
func NewTesseractDetectorWithRunner(opts TesseractOptions, runner Runner, logger *slog.Logger) *TesseractDetector {
	if strings.TrimSpace(opts.Binary) == "" {
		opts.Binary = "tesseract"
	}
	if strings.TrimSpace(opts.Lang) == "" {
		opts.Lang = "eng"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &TesseractDetector{opts: opts, runner: runner, logger: logger}
}

func (d *TesseractDetector) Name() string { return "tesseract" }

// Detect writes image to a temp file, runs tesseract, and returns one
// detection per recognized line.
func (d *TesseractDetector) Detect(ctx context.Context, image []byte) ([]Detection, error) {
	mime, err := ValidateImage(image)
	if err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp("", "bizcard-ocr-*"+Extension(mime))
	if err != nil {
		return nil, fmt.Errorf("create temp image: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(image); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp image: %w", err)
	}

	args := []string{tmp.Name(), "stdout", "-l", d.opts.Lang}
	if d.opts.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(d.opts.PSM))
	}
	if d.opts.TessdataDir != "" {
		args = append(args, "--tessdata-dir", d.opts.TessdataDir)
	}
	args = append(args, "tsv")

	out, errb, err := d.runner.Run(ctx, d.opts.Binary, args...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, services.Wrap(services.ErrConfiguration, "ocr", "tesseract", "binary "+d.opts.Binary+" not found", err)
		}
		return nil, services.Wrap(services.ErrExternalTool, "ocr", "tesseract", truncate(strings.TrimSpace(string(errb)), 512), err)
	}

	lines := parseTSV(string(out))
	d.logger.DebugContext(ctx, "tesseract detections", logging.Int("lines", len(lines)))
	return lines, nil
}

type lineKey struct {
	page, block, par, line int
}

// parseTSV groups tesseract word rows (level 5) into lines. Columns are
// level page_num block_num par_num line_num word_num left top width height conf text.
func parseTSV(out string) []Detection {
	var (
		order []lineKey
		words = map[lineKey][]Detection{}
	)
	for i, ln := range strings.Split(out, "\n") {
		if i == 0 || strings.TrimSpace(ln) == "" {
			continue
		}
		cols := strings.Split(strings.TrimRight(ln, "\r"), "\t")
		if len(cols) < 12 || cols[0] != "5" {
			continue
		}
		text := strings.TrimSpace(strings.Join(cols[11:], "\t"))
		if text == "" {
			continue
		}
		nums, ok := atoiAll(cols[1:5])
		if !ok {
			continue
		}
		geom, ok := atoiAll(cols[6:10])
		if !ok {
			continue
		}
		conf, err := strconv.ParseFloat(cols[10], 64)
		if err != nil || conf < 0 {
			continue
		}

		key := lineKey{page: nums[0], block: nums[1], par: nums[2], line: nums[3]}
		if _, seen := words[key]; !seen {
			order = append(order, key)
		}
		words[key] = append(words[key], Detection{
			Text:       text,
			Box:        contact.RectBox(float64(geom[0]), float64(geom[1]), float64(geom[2]), float64(geom[3])),
			Confidence: conf / 100,
		})
	}

	lines := make([]Detection, 0, len(order))
	for _, key := range order {
		lines = append(lines, mergeRow(words[key]))
	}
	return Order(lines)
}

func atoiAll(cols []string) ([]int, bool) {
	out := make([]int, len(cols))
	for i, c := range cols {
		v, err := strconv.Atoi(strings.TrimSpace(c))
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
