package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"declbot/internal/config"
	"declbot/internal/port"
)

// Runner lets tests stub external commands.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	log *zap.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	fields := []zap.Field{
		zap.String("cmd", name),
		zap.String("args", strings.Join(args, " ")),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		r.log.Debug("exec failed", append(fields, zap.Error(err), zap.String("stderr", truncate(errb.String(), 8<<10)))...)
	} else {
		r.log.Debug("exec ok", append(fields, zap.Int("stdout_bytes", out.Len()))...)
	}
	return out.Bytes(), errb.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

// Tesseract recognizes images with the tesseract CLI. PDFs are first
// rasterized page by page with pdftoppm.
type Tesseract struct {
	tesseract string
	pdftoppm  string
	languages string
	dpi       int
	timeout   time.Duration
	runner    Runner
	log       *zap.Logger
}

// TesseractOption customizes a Tesseract engine.
type TesseractOption func(*Tesseract)

// WithRunner replaces the command runner.
func WithRunner(r Runner) TesseractOption {
	return func(t *Tesseract) { t.runner = r }
}

// NewTesseract builds the engine from OCR settings.
func NewTesseract(cfg *config.OCRConfig, log *zap.Logger, opts ...TesseractOption) *Tesseract {
	t := &Tesseract{
		tesseract: cfg.TesseractPath,
		pdftoppm:  cfg.PdftoppmPath,
		languages: cfg.Languages,
		dpi:       cfg.DPI,
		timeout:   cfg.Timeout,
		log:       log.Named("ocr.tesseract"),
	}
	if t.tesseract == "" {
		t.tesseract = "tesseract"
	}
	if t.pdftoppm == "" {
		t.pdftoppm = "pdftoppm"
	}
	if t.languages == "" {
		t.languages = "rus+eng"
	}
	if t.dpi <= 0 {
		t.dpi = 300
	}
	t.runner = execRunner{log: t.log}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tesseract) Name() string { return config.OCRProviderTesseract }

func (t *Tesseract) Recognize(ctx context.Context, input port.OCRInput) (string, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	dir, err := os.MkdirTemp("", "declbot-ocr-*")
	if err != nil {
		return "", fmt.Errorf("ocr.Tesseract: temp dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			t.log.Warn("failed to remove temp dir", zap.String("dir", dir), zap.Error(rmErr))
		}
	}()

	src := filepath.Join(dir, "input"+inputExt(input))
	if err := os.WriteFile(src, input.Data, 0o600); err != nil {
		return "", fmt.Errorf("ocr.Tesseract: write input: %w", err)
	}

	if input.ContentType == "application/pdf" {
		return t.recognizePDF(ctx, dir, src)
	}
	return t.recognizeImage(ctx, src)
}

func (t *Tesseract) recognizeImage(ctx context.Context, path string) (string, error) {
	out, errb, err := t.runner.Run(ctx, t.tesseract, path, "stdout", "-l", t.languages)
	if err != nil {
		return "", t.wrap("tesseract", err, errb)
	}
	return string(out), nil
}

func (t *Tesseract) recognizePDF(ctx context.Context, dir, path string) (string, error) {
	prefix := filepath.Join(dir, "page")
	_, errb, err := t.runner.Run(ctx, t.pdftoppm, "-r", strconv.Itoa(t.dpi), "-png", path, prefix)
	if err != nil {
		return "", t.wrap("pdftoppm", err, errb)
	}

	pages, _ := filepath.Glob(prefix + "-*.png")
	if len(pages) == 0 {
		return "", fmt.Errorf("ocr.Tesseract: pdftoppm rendered no pages")
	}
	sortPages(pages)

	var b strings.Builder
	for _, page := range pages {
		text, err := t.recognizeImage(ctx, page)
		if err != nil {
			return "", err
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(text)
	}
	return b.String(), nil
}

func (t *Tesseract) wrap(tool string, err error, stderr []byte) error {
	if errors.Is(err, exec.ErrNotFound) {
		return NewUnavailableError(t.Name(), fmt.Errorf("%s: %w", tool, err), 10*time.Minute)
	}
	msg := strings.TrimSpace(truncate(string(stderr), 512))
	if msg == "" {
		return fmt.Errorf("ocr.Tesseract: %s: %w", tool, err)
	}
	return fmt.Errorf("ocr.Tesseract: %s: %w: %s", tool, err, msg)
}

// sortPages orders pdftoppm output numerically; page-10 sorts after page-9.
func sortPages(pages []string) {
	num := func(p string) int {
		base := strings.TrimSuffix(filepath.Base(p), ".png")
		n, _ := strconv.Atoi(base[strings.LastIndexByte(base, '-')+1:])
		return n
	}
	sort.Slice(pages, func(i, j int) bool { return num(pages[i]) < num(pages[j]) })
}

func inputExt(input port.OCRInput) string {
	if ext := filepath.Ext(input.Name); ext != "" {
		return strings.ToLower(ext)
	}
	switch input.ContentType {
	case "application/pdf":
		return ".pdf"
	case "image/png":
		return ".png"
	default:
		return ".jpg"
	}
}
