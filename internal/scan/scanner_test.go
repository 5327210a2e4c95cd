package scan_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bizcard/internal/classifier"
	"bizcard/internal/contact"
	"bizcard/internal/ocr"
	"bizcard/internal/reconcile"
	"bizcard/internal/scan"
	"bizcard/internal/services"
	"bizcard/internal/testsupport"
)

type stubDetector struct {
	dets  []ocr.Detection
	err   error
	calls int
}

func (s *stubDetector) Name() string { return "stub" }

func (s *stubDetector) Detect(context.Context, []byte) ([]ocr.Detection, error) {
	s.calls++
	return s.dets, s.err
}

func lines(texts ...string) []ocr.Detection {
	out := make([]ocr.Detection, len(texts))
	for i, text := range texts {
		out[i] = ocr.Detection{Text: text, Box: contact.RectBox(10, float64(10+i*30), 200, 20), Confidence: 0.9}
	}
	return out
}

func TestScanClassifiesAndArchives(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	det := &stubDetector{dets: lines("Jane Doe", "CEO", "jane@acme.com", "www.acme.com", "555-0100", "ACME Corp")}
	s := scan.New(det, nil, nil, scan.Options{UploadDir: cfg.Paths.UploadDir, MinConfidence: 0.3}, nil)

	img := testsupport.PNG(t)
	res, err := s.Scan(context.Background(), scan.Request{Image: img, Filename: "My Card.PNG"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	rec := res.Record
	if rec.Name != "Jane Doe" || rec.Designation != "ceo" || rec.CompanyName != "ACME Corp" || rec.Street != contact.Sentinel {
		t.Fatalf("unexpected record: %#v", rec)
	}
	if len(rec.Image) != len(img) {
		t.Fatal("image bytes not carried through")
	}
	if len(res.Assignments) != 6 || len(res.Detections) != 6 {
		t.Fatalf("assignments=%d detections=%d", len(res.Assignments), len(res.Detections))
	}
	if res.Saved {
		t.Fatal("scan without Save should not persist")
	}

	if !strings.HasPrefix(filepath.Base(res.ArchivePath), res.ScanID+"-my_card") || filepath.Ext(res.ArchivePath) != ".png" {
		t.Fatalf("unexpected archive path %q", res.ArchivePath)
	}
	archived, err := os.ReadFile(res.ArchivePath)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if string(archived) != string(img) {
		t.Fatal("archived bytes differ from upload")
	}
}

func TestScanRejectsNonImageBeforeDetection(t *testing.T) {
	det := &stubDetector{}
	s := scan.New(det, nil, nil, scan.Options{}, nil)
	_, err := s.Scan(context.Background(), scan.Request{Image: []byte("plain text")})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if det.calls != 0 {
		t.Fatal("detector should not run for rejected uploads")
	}
}

func TestScanInsufficientFragments(t *testing.T) {
	det := &stubDetector{dets: []ocr.Detection{
		{Text: "Jane Doe", Box: contact.RectBox(0, 0, 10, 10), Confidence: 0.9},
		{Text: "blur", Box: contact.RectBox(0, 20, 10, 10), Confidence: 0.05},
	}}
	s := scan.New(det, nil, nil, scan.Options{MinConfidence: 0.3}, nil)
	_, err := s.Scan(context.Background(), scan.Request{Image: testsupport.JPEG(t)})
	var insufficient *classifier.InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
	if insufficient.Count != 1 {
		t.Fatalf("count = %d", insufficient.Count)
	}
}

func TestScanDetectorErrorPropagates(t *testing.T) {
	boom := services.Wrap(services.ErrExternalTool, "ocr", "tesseract", "crashed", nil)
	s := scan.New(&stubDetector{err: boom}, nil, nil, scan.Options{}, nil)
	if _, err := s.Scan(context.Background(), scan.Request{Image: testsupport.PNG(t)}); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestScanSaveThroughReconciler(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	rec := reconcile.New(st, nil)
	det := &stubDetector{dets: lines("Jane Doe", "CEO", "ACME Corp")}
	s := scan.New(det, nil, rec, scan.Options{}, nil)
	ctx := context.Background()

	res, err := s.Scan(ctx, scan.Request{Image: testsupport.PNG(t), Save: true})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !res.Saved || res.Record.ID == 0 {
		t.Fatalf("expected saved record with id, got %#v", res)
	}

	res, err = s.Scan(ctx, scan.Request{Image: testsupport.PNG(t), Save: true})
	var dup *reconcile.DuplicateKeyError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateKeyError, got %v", err)
	}
	if res.Saved || res.Record.Name != "Jane Doe" {
		t.Fatalf("duplicate scan should still return the classified record: %#v", res)
	}
	n, err := st.Count(ctx)
	if err != nil || n != 1 {
		t.Fatalf("row count = %d err=%v", n, err)
	}
}

func TestScanSaveWithoutSaver(t *testing.T) {
	s := scan.New(&stubDetector{dets: lines("A", "B")}, nil, nil, scan.Options{}, nil)
	if _, err := s.Scan(context.Background(), scan.Request{Image: testsupport.PNG(t), Save: true}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestScanUsesRequestIDFromContext(t *testing.T) {
	s := scan.New(&stubDetector{dets: lines("A", "B")}, nil, nil, scan.Options{}, nil)
	ctx := services.WithRequestID(context.Background(), "req-123")
	res, err := s.Scan(ctx, scan.Request{Image: testsupport.PNG(t)})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.ScanID != "req-123" {
		t.Fatalf("scan id = %q", res.ScanID)
	}
}
