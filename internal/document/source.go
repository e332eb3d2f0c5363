package document

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/viviztech/voterapp/constants"
	"github.com/viviztech/voterapp/internal/common"
)

// Config holds page-rendering options.
type Config struct {
	Pdftoppm string // binary name or absolute path; if empty -> "pdftoppm"
	DPI      int    // rasterization DPI for PDF pages, default 300
}

// Page is one rasterized page of a document. Pages are ephemeral: the image
// lives in a temp directory that is removed by the cleanup func.
type Page struct {
	Number int    // 1-based position within the document
	Path   string // rendered raster image on disk
}

// Source yields raster images for each logical page of an input document.
type Source struct {
	path   string
	format constants.Format
	pages  int
	cfg    Config
	runner Runner
	logger *slog.Logger
}

// Open validates the document path and determines its type from the extension.
// For PDFs the total page count is read up front.
func Open(path string, cfg Config, runner Runner, logger *slog.Logger) (*Source, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}

	if _, err := os.Stat(path); err != nil {
		return nil, common.NewAppError("DOC_NOT_FOUND", path, common.ErrDocumentNotFound)
	}

	ext := constants.NormalizeExt(filepath.Ext(path))
	format := constants.MapExtToFormat(ext)
	if format == "" {
		return nil, common.NewAppError("DOC_BAD_FORMAT", "."+ext, common.ErrUnsupportedFormat)
	}

	s := &Source{path: path, format: format, pages: 1, cfg: cfg, runner: runner, logger: logger}
	if format == constants.PDF {
		n, err := api.PageCountFile(path)
		if err != nil {
			return nil, fmt.Errorf("page count for %s: %w", path, err)
		}
		s.pages = n
	}
	return s, nil
}

func (s *Source) Format() constants.Format { return s.format }
func (s *Source) Path() string             { return s.path }
func (s *Source) PageCount() int           { return s.pages }

// PageNumbers returns the 1-based page numbers the pipeline should process.
// For PDFs the first skip pages (cover/index) are never yielded; single images
// always yield exactly page 1.
func (s *Source) PageNumbers(skip int) []int {
	if s.format == constants.IMAGE {
		return []int{1}
	}
	if skip < 0 {
		skip = 0
	}
	var nums []int
	for n := skip + 1; n <= s.pages; n++ {
		nums = append(nums, n)
	}
	return nums
}

// LoadPage renders the given 1-based page to a raster image. The returned
// cleanup removes the rendered file; it is non-nil on success.
func (s *Source) LoadPage(ctx context.Context, number int) (Page, func(), error) {
	if number < 1 || number > s.pages {
		return Page{}, nil, fmt.Errorf("page %d out of range 1..%d", number, s.pages)
	}

	if s.format == constants.IMAGE {
		// The input already is the raster image; nothing to render or clean up.
		return Page{Number: 1, Path: s.path}, func() {}, nil
	}

	tmpDir, err := os.MkdirTemp("", "va-page-*")
	if err != nil {
		return Page{}, nil, err
	}
	cleanup := func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			s.logger.Warn("failed to remove temp page dir", "dir", tmpDir, "error", rmErr)
		}
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -f N -l N -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := s.runner.Run(ctx, s.cfg.Pdftoppm,
		"-f", fmt.Sprintf("%d", number),
		"-l", fmt.Sprintf("%d", number),
		"-r", fmt.Sprintf("%d", s.cfg.DPI),
		"-png", s.path, prefix)
	if err != nil {
		cleanup()
		return Page{}, nil, fmt.Errorf("pdftoppm page %d: %w (%s)", number, err, truncate(string(errb), 512))
	}

	// pdftoppm zero-pads the page suffix depending on total page count
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		cleanup()
		return Page{}, nil, fmt.Errorf("pdftoppm produced no image for page %d", number)
	}

	return Page{Number: number, Path: matches[0]}, cleanup, nil
}
