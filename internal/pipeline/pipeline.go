package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/viviztech/voterapp/constants"
	"github.com/viviztech/voterapp/internal/document"
	"github.com/viviztech/voterapp/internal/entity"
	"github.com/viviztech/voterapp/internal/llm"
	"github.com/viviztech/voterapp/internal/ocr"
)

// ProgressFunc observes page progress: index is the count of pages already
// completed within this run, total the number of in-scope pages. Invoked
// after a page is chosen but before any work on it starts.
type ProgressFunc func(index, total int, message string)

// PageSource yields raster pages for one document. *document.Source is the
// production implementation.
type PageSource interface {
	Format() constants.Format
	PageCount() int
	PageNumbers(skip int) []int
	LoadPage(ctx context.Context, number int) (document.Page, func(), error)
}

// OpenFunc opens a document path into a PageSource.
type OpenFunc func(path string) (PageSource, error)

// TextRecognizer converts a page image to raw text.
type TextRecognizer interface {
	RecognizePage(ctx context.Context, imagePath string) (string, error)
}

// Sink is the persistence surface the orchestrator writes through.
type Sink interface {
	EnsureDefaultStation(ctx context.Context) (int64, error)
	InsertVoters(ctx context.Context, records []llm.Record, stationID int64) (inserted, skipped int, err error)
	AppendPageLog(ctx context.Context, log entity.PageLog) error
}

// Config holds orchestration settings. A Config value is passed in at
// construction so pipelines with different settings can coexist.
type Config struct {
	SkipPages   int          // leading PDF pages never processed
	ArtifactDir string       // where failed-response debug files land; default "."
	Progress    ProgressFunc // optional observer, may be nil
}

// Pipeline drives one document through recognize, extract, parse, persist and
// log, page by page. Pages are strictly sequential; a page failure never
// aborts the document.
type Pipeline struct {
	cfg        Config
	open       OpenFunc
	recognizer TextRecognizer
	extractor  llm.VoterExtractor
	ensurer    llm.ModelEnsurer
	sink       Sink
	logger     *slog.Logger
}

func New(cfg Config, open OpenFunc, recognizer TextRecognizer, extractor llm.VoterExtractor,
	ensurer llm.ModelEnsurer, sink Sink, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ArtifactDir == "" {
		cfg.ArtifactDir = "."
	}
	return &Pipeline{
		cfg:        cfg,
		open:       open,
		recognizer: recognizer,
		extractor:  extractor,
		ensurer:    ensurer,
		sink:       sink,
		logger:     logger,
	}
}

// Run processes one document and returns a lazy sequence of human-readable
// status messages. Each call produces a fresh sequence; there is no checkpoint
// resume, rerunning reprocesses all in-scope pages. Stopping iteration
// abandons the run, leaving already-logged pages persisted.
func (p *Pipeline) Run(ctx context.Context, path string) iter.Seq[string] {
	return func(yield func(string) bool) {
		src, err := p.open(path)
		if err != nil {
			// document-level validation failures abort before any page is touched
			yield(fmt.Sprintf("Error: %v", err))
			return
		}

		if !yield("Ensuring model availability...") {
			return
		}
		if err := p.ensurer.EnsureModel(ctx); err != nil {
			p.logger.Warn("model preflight failed, attempting extraction anyway", "error", err)
			if !yield(fmt.Sprintf("Warning: could not verify models: %v. Attempting to proceed...", err)) {
				return
			}
		}

		stationID, err := p.sink.EnsureDefaultStation(ctx)
		if err != nil {
			yield(fmt.Sprintf("Error: default polling station: %v", err))
			return
		}

		total := src.PageCount()
		if src.Format() == constants.PDF {
			if !yield(fmt.Sprintf("Processing PDF %s with %d pages...", path, total)) {
				return
			}
		} else {
			if !yield(fmt.Sprintf("Processing image %s...", path)) {
				return
			}
		}

		pages := src.PageNumbers(p.cfg.SkipPages)
		for i, pageNum := range pages {
			msg := fmt.Sprintf("Processing page %d/%d...", pageNum, total)
			if p.cfg.Progress != nil {
				p.cfg.Progress(i, len(pages), msg)
			}
			if !yield(msg) {
				return
			}
			if !yield(p.processPage(ctx, src, pageNum, stationID)) {
				return
			}
		}
		yield(fmt.Sprintf("Processing of %s complete.", path))
	}
}

// processPage runs RECOGNIZE -> EXTRACT -> PARSE -> PERSIST -> LOG for a
// single page and returns its status message. All failures are terminal for
// the page only: they are logged FAILED and reported, never propagated.
func (p *Pipeline) processPage(ctx context.Context, src PageSource, pageNum int, stationID int64) string {
	page, cleanup, err := src.LoadPage(ctx, pageNum)
	if err != nil {
		return p.failPage(ctx, pageNum, fmt.Sprintf("load page: %v", err))
	}
	defer cleanup()

	text, err := p.recognizer.RecognizePage(ctx, page.Path)
	if err != nil {
		return p.failPage(ctx, pageNum, fmt.Sprintf("recognition failed: %v", err))
	}

	raw := text
	if text != ocr.EmptyPageJSON {
		raw, err = p.extractor.ExtractVoters(ctx, text)
		if err != nil {
			return p.failPage(ctx, pageNum, fmt.Sprintf("extraction failed: %v", err))
		}
	}

	records, err := llm.ParseVoters(raw)
	if err != nil {
		var pe *llm.ParseError
		if errors.As(err, &pe) {
			name := p.writeArtifact(pageNum, pe.Raw)
			return p.failPage(ctx, pageNum, fmt.Sprintf("JSON error: %v. Saved to %s", pe.Err, name))
		}
		return p.failPage(ctx, pageNum, err.Error())
	}

	// advisory only: a shape mismatch is worth a warning, not a rejection
	if candidate := llm.ExtractCandidate(raw); candidate != "" && candidate[0] == '{' {
		if verr := llm.ValidateJSONAgainstSchema(llm.BuildVotersJSONSchema(), []byte(candidate)); verr != nil {
			p.logger.Warn("voters payload deviates from schema", "page", pageNum, "error", verr)
		}
	}

	p.logger.Info("page parsed", "page", pageNum, "voters", len(records))

	inserted, skipped, err := p.sink.InsertVoters(ctx, records, stationID)
	if err != nil {
		return p.failPage(ctx, pageNum, fmt.Sprintf("persist: %v", err))
	}

	p.logStatus(ctx, entity.PageLog{
		PageNumber:    pageNum,
		Status:        string(constants.PageStatusCompleted),
		InsertedCount: inserted,
		SkippedCount:  skipped,
	})
	return fmt.Sprintf("Page %d: %d voters inserted, %d duplicates skipped.", pageNum, inserted, skipped)
}

// failPage appends a FAILED log entry and returns the status message.
func (p *Pipeline) failPage(ctx context.Context, pageNum int, message string) string {
	p.logger.Error("page failed", "page", pageNum, "error", message)
	p.logStatus(ctx, entity.PageLog{
		PageNumber:   pageNum,
		Status:       string(constants.PageStatusFailed),
		ErrorMessage: message,
	})
	return fmt.Sprintf("Failed to process page %d: %s", pageNum, message)
}

func (p *Pipeline) logStatus(ctx context.Context, log entity.PageLog) {
	if err := p.sink.AppendPageLog(ctx, log); err != nil {
		p.logger.Error("failed to append page log", "page", log.PageNumber, "error", err)
	}
}

// writeArtifact persists the verbatim failed response for offline debugging
// and returns the artifact file name.
func (p *Pipeline) writeArtifact(pageNum int, raw string) string {
	name := fmt.Sprintf("failed_page_%d.txt", pageNum)
	path := filepath.Join(p.cfg.ArtifactDir, name)
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		p.logger.Error("failed to write debug artifact", "path", path, "error", err)
	}
	return name
}
