package ocr

import (
	"context"
	"log/slog"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"

	"bizcard/internal/contact"
	"bizcard/internal/logging"
	"bizcard/internal/services"
)

type annotateFunc func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error)

// VisionDetector calls Google Cloud Vision TEXT_DETECTION.
type VisionDetector struct {
	annotate annotateFunc
	close    func() error
	logger   *slog.Logger
}

// NewVisionDetector creates a Vision client. An empty credentialsFile falls
// back to application default credentials.
func NewVisionDetector(ctx context.Context, credentialsFile string, logger *slog.Logger) (*VisionDetector, error) {
	var opts []option.ClientOption
	if strings.TrimSpace(credentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "ocr", "vision", "create image annotator client", err)
	}
	annotate := func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
		return client.BatchAnnotateImages(ctx, req)
	}
	return newVisionDetector(annotate, client.Close, logger), nil
}

func newVisionDetector(annotate annotateFunc, closeFn func() error, logger *slog.Logger) *VisionDetector {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &VisionDetector{annotate: annotate, close: closeFn, logger: logger}
}

func (d *VisionDetector) Name() string { return "vision" }

// Close releases the underlying client.
func (d *VisionDetector) Close() error {
	if d.close == nil {
		return nil
	}
	return d.close()
}

// Detect sends image to Vision and assembles word annotations into lines.
func (d *VisionDetector) Detect(ctx context.Context, image []byte) ([]Detection, error) {
	if _, err := ValidateImage(image); err != nil {
		return nil, err
	}
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: image},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_TEXT_DETECTION}},
		}},
	}
	resp, err := d.annotate(ctx, req)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "ocr", "vision", "batch annotate", err)
	}
	responses := resp.GetResponses()
	if len(responses) == 0 {
		return nil, nil
	}
	if st := responses[0].GetError(); st != nil && st.GetCode() != 0 {
		return nil, services.Wrap(services.ErrExternalTool, "ocr", "vision", st.GetMessage(), nil)
	}

	annotations := responses[0].GetTextAnnotations()
	if len(annotations) < 2 {
		return nil, nil
	}
	// The first annotation is the whole text block; the rest are words.
	words := make([]Detection, 0, len(annotations)-1)
	for _, ann := range annotations[1:] {
		text := strings.TrimSpace(ann.GetDescription())
		if text == "" {
			continue
		}
		conf := float64(ann.GetConfidence())
		if conf == 0 {
			// Vision leaves confidence unset for text annotations.
			conf = 1
		}
		words = append(words, Detection{
			Text:       text,
			Box:        polyBox(ann.GetBoundingPoly()),
			Confidence: conf,
		})
	}
	lines := assembleLines(words)
	d.logger.DebugContext(ctx, "vision detections", logging.Int("words", len(words)), logging.Int("lines", len(lines)))
	return lines, nil
}

func polyBox(poly *visionpb.BoundingPoly) contact.Box {
	var box contact.Box
	for i, v := range poly.GetVertices() {
		if i >= len(box) {
			break
		}
		box[i] = contact.Point{X: float64(v.GetX()), Y: float64(v.GetY())}
	}
	return box
}
