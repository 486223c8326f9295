package datacloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

const ingestPath = "api/v1/ingest/sources"

// IngestionClient pushes rows into a connector/DLO pair through the Data
// Cloud ingestion API. It reports a status code and error text rather than
// failing the call: the reconciliation engine records non-2xx outcomes per
// attribute and keeps going.
type IngestionClient struct {
	tokens    TokenSource
	baseURL   string
	connector string
	dlo       string
	client    *http.Client
	logger    *log.Logger
}

func NewIngestionClient(tokens TokenSource, baseURL, connector, dlo string, timeout time.Duration) *IngestionClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &IngestionClient{
		tokens:    tokens,
		baseURL:   baseURL,
		connector: connector,
		dlo:       dlo,
		client:    &http.Client{Timeout: timeout},
		logger:    log.WithPrefix("ingestion"),
	}
}

// IngestRows submits one or more row objects. A zero status means the
// request never produced a response.
func (c *IngestionClient) IngestRows(ctx context.Context, rows []map[string]any) (int, string) {
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return 0, fmt.Sprintf("failed to acquire token: %v", err)
	}

	base := c.baseURL
	if base == "" {
		base = tok.InstanceURL
	}
	url := fmt.Sprintf("%s/%s/%s/%s", base, ingestPath, c.connector, c.dlo)

	body, err := json.Marshal(map[string]any{"data": rows})
	if err != nil {
		return 0, fmt.Sprintf("failed to encode rows: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, err.Error()
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("ingesting rows", "url", url, "count", len(rows))

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Sprintf("request failed (no response): %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp.StatusCode, ""
	}

	return resp.StatusCode, errorText(resp.Body)
}

// errorText pulls a usable message out of an error response body, preferring
// a JSON "error" field over the raw text.
func errorText(body io.Reader) string {
	raw, err := io.ReadAll(body)
	if err != nil {
		return err.Error()
	}

	var payload map[string]any
	if json.Unmarshal(raw, &payload) == nil {
		if msg, ok := payload["error"]; ok {
			return fmt.Sprintf("%v", msg)
		}
	}
	return string(raw)
}
