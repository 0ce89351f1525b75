package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ParseInput carries one document's bytes to the extraction service.
type ParseInput struct {
	FileBytes    []byte
	ContentType  string
	DocumentType string
}

// Parser abstracts the external OCR/LLM field-extraction service. It may
// fail, time out, or return partial data; callers must treat every extracted
// field as optional.
type Parser interface {
	Parse(ctx context.Context, input ParseInput) (Document, error)
}

// Config configures the HTTP extraction client.
type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

type httpParser struct {
	cfg    Config
	client *http.Client
}

// NewHTTPParser returns a Parser that posts document bytes to the configured
// extraction endpoint. Every call is bounded by the configured timeout.
func NewHTTPParser(cfg Config) Parser {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &httpParser{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (p *httpParser) Parse(ctx context.Context, input ParseInput) (Document, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, bytes.NewReader(input.FileBytes))
	if err != nil {
		return Document{}, fmt.Errorf("build extraction request: %w", err)
	}
	req.Header.Set("Content-Type", input.ContentType)
	req.Header.Set("X-Document-Type", input.DocumentType)
	if p.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("call extraction service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return Document{}, fmt.Errorf("read extraction response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Document{}, fmt.Errorf("extraction service returned status %d", resp.StatusCode)
	}

	return decodeResponse(body)
}

// decodeResponse accepts either a bare field object or an envelope with the
// fields under "fields"/"data"/"extractedData"; the provider has used all
// three shapes.
func decodeResponse(body []byte) (Document, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return Document{}, fmt.Errorf("decode extraction response: %w", err)
	}

	for _, key := range []string{"fields", "data", "extractedData"} {
		if nested, ok := raw[key].(map[string]any); ok {
			// A confidence inside the field map wins; the envelope value
			// only fills the gap.
			if c, ok := raw["confidence"]; ok {
				if _, exists := nested["confidence"]; !exists {
					nested["confidence"] = c
				}
			}
			return FromFields(nested), nil
		}
	}
	return FromFields(raw), nil
}
