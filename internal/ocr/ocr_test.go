package ocr_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"bizcard/internal/contact"
	"bizcard/internal/ocr"
	"bizcard/internal/services"
	"bizcard/internal/testsupport"
)

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t600\t300\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t20\t10\t60\t20\t96.5\tJane\n" +
	"5\t1\t1\t1\t1\t2\t90\t10\t60\t20\t95.5\tDoe\n" +
	"5\t1\t1\t1\t2\t1\t20\t40\t40\t18\t90\tCEO\n" +
	"5\t1\t2\t1\t1\t1\t20\t250\t100\t20\t88\tACME\n" +
	"5\t1\t2\t1\t1\t2\t130\t250\t60\t20\t86\tCorp\n" +
	"5\t1\t1\t1\t3\t1\t20\t80\t120\t18\t12\t~~\n"

type fakeRunner struct {
	mu     sync.Mutex
	calls  [][]string
	stdout string
	stderr string
	err    error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string{name}, args...))
	return []byte(f.stdout), []byte(f.stderr), f.err
}

func TestTesseractDetectGroupsWordsIntoLines(t *testing.T) {
	runner := &fakeRunner{stdout: sampleTSV}
	det := ocr.NewTesseractDetectorWithRunner(ocr.TesseractOptions{Lang: "eng", PSM: 6, TessdataDir: "/td"}, runner, nil)

	dets, err := det.Detect(context.Background(), testsupport.PNG(t))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	var texts []string
	for _, d := range dets {
		texts = append(texts, d.Text)
	}
	if got := strings.Join(texts, "|"); got != "Jane Doe|CEO|~~|ACME Corp" {
		t.Fatalf("lines = %q", got)
	}
	if dets[0].Confidence < 0.95 || dets[0].Confidence > 0.97 {
		t.Fatalf("line confidence = %v, want mean of word confidences", dets[0].Confidence)
	}
	if dets[0].Box.Left() != 20 || dets[0].Box.Right() != 150 {
		t.Fatalf("line box = %+v", dets[0].Box)
	}

	if len(runner.calls) != 1 {
		t.Fatalf("expected one tesseract call, got %d", len(runner.calls))
	}
	args := strings.Join(runner.calls[0], " ")
	for _, want := range []string{"tesseract ", " stdout -l eng", "--psm 6", "--tessdata-dir /td", " tsv"} {
		if !strings.Contains(args, want) {
			t.Fatalf("args %q missing %q", args, want)
		}
	}
}

func TestTesseractFailureIsExternalToolError(t *testing.T) {
	runner := &fakeRunner{stderr: "Error opening data file", err: errors.New("exit status 1")}
	det := ocr.NewTesseractDetectorWithRunner(ocr.TesseractOptions{}, runner, nil)

	_, err := det.Detect(context.Background(), testsupport.JPEG(t))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if !strings.Contains(err.Error(), "Error opening data file") {
		t.Fatalf("stderr not surfaced: %v", err)
	}
}

func TestTesseractRejectsNonImage(t *testing.T) {
	runner := &fakeRunner{}
	det := ocr.NewTesseractDetectorWithRunner(ocr.TesseractOptions{}, runner, nil)
	if _, err := det.Detect(context.Background(), []byte("%PDF-1.4 not an image")); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Fatal("tesseract should not run for rejected input")
	}
}

func TestValidateImage(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		mime string
	}{
		{name: "png", data: testsupport.PNG(t), mime: ocr.MIMEPNG},
		{name: "jpeg", data: testsupport.JPEG(t), mime: ocr.MIMEJPEG},
		{name: "gif", data: []byte("GIF89a......")},
		{name: "empty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mime, err := ocr.ValidateImage(tc.data)
			if tc.mime == "" {
				if !errors.Is(err, services.ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil || mime != tc.mime {
				t.Fatalf("ValidateImage = %q, %v; want %q", mime, err, tc.mime)
			}
		})
	}
}

func TestFragmentsFilterOrderAndNormalize(t *testing.T) {
	dets := []ocr.Detection{
		{Text: "ACME Corp", Box: contact.RectBox(10, 200, 100, 20), Confidence: 0.9},
		{Text: "ＣＥＯ", Box: contact.RectBox(10, 40, 50, 20), Confidence: 0.8},
		{Text: "smudge", Box: contact.RectBox(10, 100, 50, 20), Confidence: 0.1},
		{Text: "Doe", Box: contact.RectBox(80, 12, 40, 20), Confidence: 0.9},
		{Text: "Jane", Box: contact.RectBox(10, 10, 50, 20), Confidence: 0.9},
		{Text: "   ", Box: contact.RectBox(10, 150, 50, 20), Confidence: 0.9},
	}
	frags := ocr.Fragments(dets, 0.3)

	want := []string{"Jane", "Doe", "CEO", "ACME Corp"}
	if len(frags) != len(want) {
		t.Fatalf("got %d fragments: %+v", len(frags), frags)
	}
	for i, w := range want {
		if frags[i].Text != w || frags[i].Index != i {
			t.Fatalf("fragment %d = %+v, want %q", i, frags[i], w)
		}
		if frags[i].Box == nil {
			t.Fatalf("fragment %d lost its box", i)
		}
	}
}

func TestFilterWithoutFloorKeepsAll(t *testing.T) {
	dets := []ocr.Detection{{Text: "a", Confidence: 0}, {Text: "b", Confidence: 0.2}}
	if got := ocr.Filter(dets, 0); len(got) != 2 {
		t.Fatalf("Filter(0) kept %d", len(got))
	}
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string][]ocr.Detection
	ttls    map[string]time.Duration
	getErr  error
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string][]ocr.Detection{}, ttls: map[string]time.Duration{}}
}

func (c *mapCache) Get(_ context.Context, key string) ([]ocr.Detection, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	d, ok := c.entries[key]
	return d, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, dets []ocr.Detection, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = dets
	c.ttls[key] = ttl
	return nil
}

type countingDetector struct {
	calls int
	dets  []ocr.Detection
	err   error
}

func (d *countingDetector) Name() string { return "stub" }

func (d *countingDetector) Detect(context.Context, []byte) ([]ocr.Detection, error) {
	d.calls++
	return d.dets, d.err
}

func TestCachedDetectorHitsCacheOnSecondCall(t *testing.T) {
	inner := &countingDetector{dets: []ocr.Detection{{Text: "Jane Doe", Confidence: 1}}}
	cache := newMapCache()
	det := ocr.NewCachedDetector(inner, cache, time.Hour, nil)
	img := testsupport.PNG(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		dets, err := det.Detect(ctx, img)
		if err != nil {
			t.Fatalf("Detect #%d: %v", i, err)
		}
		if len(dets) != 1 || dets[0].Text != "Jane Doe" {
			t.Fatalf("Detect #%d = %+v", i, dets)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("inner detector called %d times, want 1", inner.calls)
	}
	key := ocr.CacheKey("stub", img)
	if cache.ttls[key] != time.Hour {
		t.Fatalf("ttl = %v", cache.ttls[key])
	}
	if !strings.HasPrefix(key, "bizcard:ocr:stub:") || len(key) != len("bizcard:ocr:stub:")+64 {
		t.Fatalf("unexpected key %q", key)
	}
}

func TestCachedDetectorFallsThroughOnCacheError(t *testing.T) {
	inner := &countingDetector{dets: []ocr.Detection{{Text: "x"}}}
	cache := newMapCache()
	cache.getErr = errors.New("connection refused")
	det := ocr.NewCachedDetector(inner, cache, time.Minute, nil)

	if _, err := det.Detect(context.Background(), testsupport.PNG(t)); err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("inner calls = %d", inner.calls)
	}
}

type slowDetector struct{}

func (slowDetector) Name() string { return "slow" }

func (slowDetector) Detect(ctx context.Context, _ []byte) ([]ocr.Detection, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestWithTimeout(t *testing.T) {
	det := ocr.WithTimeout(slowDetector{}, 20*time.Millisecond)
	if _, err := det.Detect(context.Background(), nil); !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if ocr.WithTimeout(slowDetector{}, 0) != (slowDetector{}) {
		t.Fatal("zero timeout should return the detector unchanged")
	}
}

func TestNewRedisCacheRejectsBadURL(t *testing.T) {
	if _, err := ocr.NewRedisCache("http://not-redis"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNewSelectsEngine(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	det, err := ocr.New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ocr.Close(det)
	if det.Name() != "tesseract" {
		t.Fatalf("engine = %q", det.Name())
	}

	cfg.OCR.Engine = "easyocr"
	if _, err := ocr.New(context.Background(), cfg, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
