// Package categorize calls the external category-suggestion service.
//
// The collaborator is strictly best-effort: any failure (network,
// timeout, bad status, bad payload) yields no suggestion, and the
// caller proceeds with its own fallback category. A suggestion failure
// must never block or fail a transaction write.
package categorize

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"spendtrack/internal/cache"
	"spendtrack/internal/core"
)

const (
	requestTimeout = 3 * time.Second
	cacheSize      = 512
	cacheTTL       = 10 * time.Minute
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	// Suggestions are keyed by title; repeated pastes of the same
	// notification skip the round trip.
	suggestions *cache.LRU[string]
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: requestTimeout},
		suggestions: cache.NewLRU[string](cacheSize, cacheTTL),
	}
}

type categorizeRequest struct {
	Title  string  `json:"title"`
	Amount float64 `json:"amount"`
}

type categorizeResponse struct {
	Category string `json:"category"`
}

// Suggest returns a category for the given title and amount, and
// whether a usable suggestion was obtained.
func (c *Client) Suggest(ctx context.Context, title string, amount core.Money) (string, bool) {
	if c == nil || c.baseURL == "" {
		return "", false
	}

	if cat, ok := c.suggestions.Get(title); ok {
		return cat, true
	}

	body, err := json.Marshal(categorizeRequest{Title: title, Amount: amount.Units()})
	if err != nil {
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/categorize", bytes.NewReader(body))
	if err != nil {
		return "", false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.DebugContext(ctx, "Category service unavailable", "error", err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.DebugContext(ctx, "Category service rejected request", "status", resp.StatusCode)
		return "", false
	}

	var out categorizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", false
	}
	if strings.TrimSpace(out.Category) == "" {
		return "", false
	}

	c.suggestions.Set(title, out.Category)
	return out.Category, true
}
