package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"shineal/internal/metrics"
	"shineal/internal/model"
)

const (
	// DefaultBaseURL is the public JSONBin v3 API.
	DefaultBaseURL = "https://api.jsonbin.io/v3"

	maxErrorBody = 4 << 10
)

// JSONBinOptions configures a JSONBinClient.
type JSONBinOptions struct {
	BaseURL    string
	BinID      string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// JSONBinClient stores the users collection as one JSONBin bin.
type JSONBinClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
	metrics    *metrics.Metrics

	mu    sync.RWMutex
	binID string
}

var _ Client = (*JSONBinClient)(nil)

// NewJSONBinClient creates a new JSONBin client.
func NewJSONBinClient(opts JSONBinOptions, logger *slog.Logger, m *metrics.Metrics) *JSONBinClient {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &JSONBinClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     opts.APIKey,
		binID:      opts.BinID,
		logger:     logger.With("component", "jsonbin"),
		metrics:    m,
	}
}

type binResponse struct {
	Record   model.Collection `json:"record"`
	Metadata struct {
		ID string `json:"id"`
	} `json:"metadata"`
}

// BinID returns the bin currently addressed by the client.
func (c *JSONBinClient) BinID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.binID
}

// FetchCollection retrieves the entire users document.
func (c *JSONBinClient) FetchCollection(ctx context.Context) (model.Collection, error) {
	resp, err := c.do(ctx, http.MethodGet, c.binURL(), nil)
	if err != nil {
		c.metrics.IncStoreRequest("fetch", "error")
		return model.Collection{}, fmt.Errorf("%w: fetch collection: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.metrics.IncStoreRequest("fetch", "not_found")
		return model.Collection{}, ErrNotFound
	}
	if err := checkStatus(resp); err != nil {
		c.metrics.IncStoreRequest("fetch", "error")
		return model.Collection{}, fmt.Errorf("fetch collection: %w", err)
	}

	var body binResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.metrics.IncStoreRequest("fetch", "error")
		return model.Collection{}, fmt.Errorf("%w: decode collection: %w", ErrUnavailable, err)
	}

	c.metrics.IncStoreRequest("fetch", "ok")
	return normalize(body.Record), nil
}

// ReplaceCollection overwrites the entire users document.
func (c *JSONBinClient) ReplaceCollection(ctx context.Context, coll model.Collection) error {
	payload, err := json.Marshal(normalize(coll))
	if err != nil {
		return fmt.Errorf("marshal collection: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPut, c.binURL(), payload)
	if err != nil {
		c.metrics.IncStoreRequest("replace", "error")
		return fmt.Errorf("%w: replace collection: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		c.metrics.IncStoreRequest("replace", "error")
		return fmt.Errorf("replace collection: %w", err)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	c.metrics.IncStoreRequest("replace", "ok")
	c.logger.Debug("users saved", "count", len(coll.Users))
	return nil
}

// EnsureInitialized fetches the document and creates an empty one when it
// does not exist yet. It is meant to run once at startup.
func (c *JSONBinClient) EnsureInitialized(ctx context.Context) (model.Collection, error) {
	coll, err := c.FetchCollection(ctx)
	if err == nil {
		c.logger.Info("document store connected", "bin_id", c.BinID(), "users", len(coll.Users))
		return coll, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return model.Collection{}, err
	}

	c.logger.Info("users document missing, creating it")
	empty := model.Collection{Users: []model.User{}}
	payload, err := json.Marshal(empty)
	if err != nil {
		return model.Collection{}, fmt.Errorf("marshal collection: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, c.baseURL+"/b", payload)
	if err != nil {
		c.metrics.IncStoreRequest("create", "error")
		return model.Collection{}, fmt.Errorf("%w: create collection: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		c.metrics.IncStoreRequest("create", "error")
		return model.Collection{}, fmt.Errorf("create collection: %w", err)
	}

	var body binResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.metrics.IncStoreRequest("create", "error")
		return model.Collection{}, fmt.Errorf("%w: decode created bin: %w", ErrUnavailable, err)
	}
	c.metrics.IncStoreRequest("create", "ok")

	if id := body.Metadata.ID; id != "" && id != c.BinID() {
		c.mu.Lock()
		c.binID = id
		c.mu.Unlock()
		c.logger.Warn("created a new users bin; set STORE_BIN_ID to keep using it", "bin_id", id)
	}

	return empty, nil
}

func (c *JSONBinClient) binURL() string {
	return c.baseURL + "/b/" + c.BinID()
}

func (c *JSONBinClient) do(ctx context.Context, method, url string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Master-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("store request failed", "method", method, "error", err)
		return nil, err
	}
	c.logger.Debug("store request", "method", method, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(detail)))
}

// normalize keeps an empty collection encoded as [] rather than null.
func normalize(c model.Collection) model.Collection {
	if c.Users == nil {
		c.Users = []model.User{}
	}
	return c
}
