package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/viviztech/voterapp/internal/common"
	"github.com/viviztech/voterapp/internal/llm"
)

// Config holds Ollama connection settings.
type Config struct {
	Host        string // base URL, e.g. http://localhost:11434
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// Client implements llm.VoterExtractor and llm.ModelEnsurer against a local
// Ollama server. Ollama requires no API key.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

var (
	_ llm.VoterExtractor = (*Client)(nil)
	_ llm.ModelEnsurer   = (*Client)(nil)
)

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Host == "" {
		cfg.Host = "http://localhost:11434"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
}

// ExtractVoters sends raw OCR text through the fixed extraction prompt and
// returns the model's raw textual response, unparsed. Decoding is
// deterministic (temperature pinned at the configured minimum).
func (c *Client) ExtractVoters(ctx context.Context, ocrText string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	prompt := llm.BuildExtractionPrompt(ocrText)
	body := map[string]any{
		"model": c.cfg.Model,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
		"stream": false,
		"options": map[string]any{
			"temperature": c.cfg.Temperature,
		},
	}

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(ocrText),
		"prompt_len", len(prompt),
	)

	raw, err := c.post(ctx, "/api/chat", body)
	if err != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	var cc struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("decode ollama response: %w", err)
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"response_len", len(cc.Message.Content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return cc.Message.Content, nil
}

// EnsureModel verifies the configured model is present on the server and
// triggers a blocking pull if it is absent. Errors wrap ErrModelUnavailable;
// callers treat them as advisory and attempt extraction anyway.
func (c *Client) EnsureModel(ctx context.Context) error {
	names, err := c.ListModels(ctx)
	if err != nil {
		return common.NewAppError("MODEL_CHECK", "could not list models",
			fmt.Errorf("%w: %w", common.ErrModelUnavailable, err))
	}
	for _, n := range names {
		if n == c.cfg.Model || n == c.cfg.Model+":latest" {
			return nil
		}
	}

	c.log.Warn("model not present, pulling", "model", c.cfg.Model)
	if err := c.Pull(ctx, c.cfg.Model); err != nil {
		return common.NewAppError("MODEL_PULL", c.cfg.Model,
			fmt.Errorf("%w: %w", common.ErrModelUnavailable, err))
	}
	c.log.Info("model pulled", "model", c.cfg.Model)
	return nil
}

// ListModels returns the names of models available on the server.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/api/tags"), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama tags: %w", err)
	}
	defer c.closeBody(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("ollama tags: non-2xx status %d: %s", resp.StatusCode, truncate(string(raw), 512))
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, fmt.Errorf("decode tags response: %w", err)
	}
	names := make([]string, len(tags.Models))
	for i, m := range tags.Models {
		names[i] = m.Name
	}
	return names, nil
}

// Pull downloads a model. The call blocks until the download completes, which
// can take a long time for multi-gigabyte models.
func (c *Client) Pull(ctx context.Context, model string) error {
	_, err := c.post(ctx, "/api/pull", map[string]any{
		"model":  model,
		"stream": false,
	})
	return err
}

func (c *Client) post(ctx context.Context, path string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama http error: %w", err)
	}
	defer c.closeBody(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("non-2xx status %d: %s", resp.StatusCode, truncate(string(raw), 512))
	}
	return raw, nil
}

func (c *Client) url(path string) string {
	return strings.TrimRight(c.cfg.Host, "/") + path
}

func (c *Client) closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		c.log.Warn("ollama response body close error", "error", err)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
