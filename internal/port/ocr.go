package port

import "context"

// OCRInput is one image or PDF to recognize.
type OCRInput struct {
	Name        string
	ContentType string
	Data        []byte
}

// OCREngine turns an image or PDF into best-effort plain text. The text may be
// empty or garbled; engines report no confidence.
type OCREngine interface {
	Name() string
	Recognize(ctx context.Context, input OCRInput) (string, error)
}
