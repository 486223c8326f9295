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

const queryPath = "services/data/v63.0/ssot/queryv2"

// QueryClient executes SQL against the Data Cloud query service and returns
// the raw tabular payload bytes. Parsing into rows is the caller's concern.
type QueryClient struct {
	tokens  TokenSource
	baseURL string
	client  *http.Client
	logger  *log.Logger
}

func NewQueryClient(tokens TokenSource, baseURL string, timeout time.Duration) *QueryClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &QueryClient{
		tokens:  tokens,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  log.WithPrefix("query-svc"),
	}
}

func (c *QueryClient) ReadData(ctx context.Context, sql string) ([]byte, error) {
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire token: %w", err)
	}

	base := c.baseURL
	if base == "" {
		base = tok.InstanceURL
	}
	url := fmt.Sprintf("%s/%s", base, queryPath)

	body, err := json.Marshal(map[string]string{"sql": sql})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("executing query", "url", url)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read query response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("query service returned %d: %s", resp.StatusCode, string(payload))
	}

	return payload, nil
}
