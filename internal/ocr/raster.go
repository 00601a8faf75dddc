package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joineryai/quote-engine/internal/entity"
)

// Config holds the external binaries and rasterization bounds for the OCR
// fallback. MaxPages caps worst-case latency on long documents.
type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"
	Lang      string // default "eng"
	DPI       int    // rasterization DPI, default 200
	MaxPages  int    // default 5
}

// Strategy rasterizes the first MaxPages pages of a PDF and runs optical
// character recognition on each. It is the last resort of the extraction
// chain, used when both native text-layer strategies fail the quality gate.
type Strategy struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

// NewStrategy builds the OCR fallback with defaults filled in.
func NewStrategy(cfg Config, logger *slog.Logger) *Strategy {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 200
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 5
	}
	return &Strategy{cfg: cfg, runner: execRunner{}, logger: logger}
}

// WithRunner swaps the command runner; tests use this to stub the binaries.
func (s *Strategy) WithRunner(r Runner) *Strategy {
	s.runner = r
	return s
}

func (s *Strategy) Name() entity.TextSource {
	return entity.SourceOCR
}

// Extract writes the document to a temp file, renders the first pages to PNG
// and OCRs each page. Per-page OCR failures are skipped rather than aborting
// the document.
func (s *Strategy) Extract(ctx context.Context, data []byte) (string, error) {
	tmpDir, err := os.MkdirTemp("", "qe-ocr-*")
	if err != nil {
		return "", err
	}
	defer func() {
		if rerr := os.RemoveAll(tmpDir); rerr != nil {
			s.logger.Warn("failed to remove temp dir", "path", tmpDir, "error", rerr)
		}
	}()

	pdfPath := filepath.Join(tmpDir, "doc.pdf")
	if err := os.WriteFile(pdfPath, data, 0o600); err != nil {
		return "", err
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -png -f 1 -l <maxPages> <doc.pdf> <tmp/page>
	_, errb, err := s.runner.Run(ctx, s.cfg.Pdftoppm,
		"-r", fmt.Sprintf("%d", s.cfg.DPI),
		"-png",
		"-f", "1",
		"-l", fmt.Sprintf("%d", s.cfg.MaxPages),
		pdfPath, prefix)
	if err != nil {
		return "", fmt.Errorf("pdftoppm: %w (%s)", err, truncate(string(errb), 512))
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return "", fmt.Errorf("pdftoppm produced no images")
	}

	var sb strings.Builder
	for _, img := range matches {
		// tesseract <file> stdout -l <lang>
		out, _, err := s.runner.Run(ctx, s.cfg.Tesseract, img, "stdout", "-l", s.cfg.Lang)
		if err != nil {
			s.logger.Warn("tesseract page failed", "image", filepath.Base(img), "error", err)
			continue
		}
		txt := strings.TrimSpace(string(out))
		if txt == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(txt)
	}

	return sb.String(), nil
}
