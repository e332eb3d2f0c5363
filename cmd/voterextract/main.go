package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/viviztech/voterapp/internal/common"
	"github.com/viviztech/voterapp/internal/document"
	"github.com/viviztech/voterapp/internal/llm/ollama"
	"github.com/viviztech/voterapp/internal/ocr"
	"github.com/viviztech/voterapp/internal/pipeline"
	"github.com/viviztech/voterapp/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "voterextract <document-path>")
		os.Exit(2)
	}
	docPath := os.Args[1]

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	st, err := store.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.HealthCheck(ctx, 3*time.Second); err != nil {
		logger.Error("store health check failed", "error", err)
		os.Exit(1)
	}

	client := ollama.NewClient(ollama.Config{
		Host:        cfg.LLM.Host,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	recognizer := ocr.NewRecognizer(cfg.OCR, nil, logger)

	opener := func(path string) (pipeline.PageSource, error) {
		return document.Open(path, document.Config{
			Pdftoppm: cfg.OCR.Pdftoppm,
			DPI:      cfg.OCR.DPI,
		}, nil, logger)
	}

	progress := func(index, total int, message string) {
		logger.Info("progress", "done", index, "total", total, "message", message)
	}

	p := pipeline.New(pipeline.Config{
		SkipPages:   cfg.Pipeline.SkipPages,
		ArtifactDir: cfg.Pipeline.ArtifactDir,
		Progress:    progress,
	}, opener, recognizer, client, client, st, logger)

	start := time.Now()
	for msg := range p.Run(ctx, docPath) {
		fmt.Println(msg)
	}
	logger.Info("document run finished", "path", docPath, "duration_ms", time.Since(start).Milliseconds())
}
