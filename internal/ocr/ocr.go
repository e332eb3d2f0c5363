package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/viviztech/voterapp/internal/common"
	"github.com/viviztech/voterapp/internal/document"
)

// MinTextLength is the threshold below which a page is classified as empty.
const MinTextLength = 50

// EmptyPageJSON is the sentinel returned for blank pages. It parses as a JSON
// object with no voters, so downstream stages need no special casing, and the
// extractor is never invoked for it.
const EmptyPageJSON = "{}"

var reBoxNoise = regexp.MustCompile(`(?m)^\s*[_\-]{3,}\s*$`)

// Recognizer converts a page image to raw text via tesseract.
type Recognizer struct {
	cfg    common.OCRConfig
	runner document.Runner
	logger *slog.Logger
}

func NewRecognizer(cfg common.OCRConfig, runner document.Runner, logger *slog.Logger) *Recognizer {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = document.ExecRunner{}
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	return &Recognizer{cfg: cfg, runner: runner, logger: logger}
}

// RecognizePage runs OCR on a page image. Pages whose stripped text is under
// MinTextLength characters return EmptyPageJSON instead; callers must
// short-circuit the extractor on that sentinel. OCR failures propagate.
func (r *Recognizer) RecognizePage(ctx context.Context, imagePath string) (string, error) {
	args := []string{imagePath, "stdout", "-l", r.cfg.TesseractLang}
	if r.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", r.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := r.runner.Run(ctx, r.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (%s)", err, strings.TrimSpace(string(errb)))
	}

	// minor cleanup of obvious line noise
	txt := reBoxNoise.ReplaceAllString(string(out), "")

	if len(strings.TrimSpace(txt)) < MinTextLength {
		r.logger.Debug("page classified empty", "image", imagePath, "chars", len(strings.TrimSpace(txt)))
		return EmptyPageJSON, nil
	}
	return txt, nil
}
