package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"declbot/internal/config"
	"declbot/internal/port"
)

// visionPDFPageLimit is the most pages the synchronous files API accepts per request.
const visionPDFPageLimit = 5

// AnnotatorClient is the subset of the Vision client the engine uses.
type AnnotatorClient interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error)
	BatchAnnotateFiles(ctx context.Context, req *visionpb.BatchAnnotateFilesRequest) (*visionpb.BatchAnnotateFilesResponse, error)
	Close() error
}

// annotatorAdapter drops the variadic call options from the generated client.
type annotatorAdapter struct {
	c *vision.ImageAnnotatorClient
}

func (a annotatorAdapter) BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
	return a.c.BatchAnnotateImages(ctx, req)
}

func (a annotatorAdapter) BatchAnnotateFiles(ctx context.Context, req *visionpb.BatchAnnotateFilesRequest) (*visionpb.BatchAnnotateFilesResponse, error) {
	return a.c.BatchAnnotateFiles(ctx, req)
}

func (a annotatorAdapter) Close() error { return a.c.Close() }

// GCPVision recognizes documents with Google Cloud Vision DOCUMENT_TEXT_DETECTION.
type GCPVision struct {
	client  AnnotatorClient
	timeout time.Duration
	log     *zap.Logger
}

// NewGCPVision dials the Vision API. Credentials come from the configured file
// or, when empty, from Application Default Credentials.
func NewGCPVision(ctx context.Context, cfg *config.OCRConfig, log *zap.Logger) (*GCPVision, error) {
	var opts []option.ClientOption
	if cfg.GCPCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCPCredentialsFile))
	}
	c, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	return NewGCPVisionWithClient(annotatorAdapter{c: c}, cfg.Timeout, log), nil
}

// NewGCPVisionWithClient wraps an existing annotator client.
func NewGCPVisionWithClient(client AnnotatorClient, timeout time.Duration, log *zap.Logger) *GCPVision {
	return &GCPVision{client: client, timeout: timeout, log: log.Named("ocr.gcpvision")}
}

func (g *GCPVision) Name() string { return config.OCRProviderGCPVision }

// Close releases the underlying client connection.
func (g *GCPVision) Close() error { return g.client.Close() }

func (g *GCPVision) Recognize(ctx context.Context, input port.OCRInput) (string, error) {
	if len(input.Data) == 0 {
		return "", nil
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	features := []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}}

	if input.ContentType == "application/pdf" {
		return g.recognizeFile(ctx, input, features)
	}

	resp, err := g.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: input.Data},
			Features: features,
		}},
	})
	if err != nil {
		return "", fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	return joinResponses(resp.Responses)
}

func (g *GCPVision) recognizeFile(ctx context.Context, input port.OCRInput, features []*visionpb.Feature) (string, error) {
	pages := make([]int32, visionPDFPageLimit)
	for i := range pages {
		pages[i] = int32(i + 1)
	}
	resp, err := g.client.BatchAnnotateFiles(ctx, &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{{
			InputConfig: &visionpb.InputConfig{Content: input.Data, MimeType: input.ContentType},
			Features:    features,
			Pages:       pages,
		}},
	})
	if err != nil {
		return "", fmt.Errorf("vision BatchAnnotateFiles: %w", err)
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return "", nil
	}
	file := resp.Responses[0]
	if file.Error != nil && file.Error.Message != "" {
		return "", fmt.Errorf("vision annotate error: %s", file.Error.Message)
	}
	if file.TotalPages > visionPDFPageLimit {
		g.log.Warn("pdf truncated",
			zap.String("file", input.Name),
			zap.Int32("total_pages", file.TotalPages),
			zap.Int("recognized_pages", visionPDFPageLimit),
		)
	}
	return joinResponses(file.Responses)
}

func joinResponses(responses []*visionpb.AnnotateImageResponse) (string, error) {
	var b strings.Builder
	for _, r := range responses {
		if r == nil {
			continue
		}
		if r.Error != nil && r.Error.Message != "" {
			return "", fmt.Errorf("vision annotate error: %s", r.Error.Message)
		}
		if r.FullTextAnnotation == nil || strings.TrimSpace(r.FullTextAnnotation.Text) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(r.FullTextAnnotation.Text)
	}
	return b.String(), nil
}
