// Package suggest calls the external failure-reason suggestion
// service. The service is strictly best-effort: any failure (network,
// bad status, undecodable body, blank suggestion) degrades to a fixed
// fallback sentence so the reason field is never left empty and
// submission is never blocked.
package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// FallbackReason is used whenever the suggestion service cannot
// produce a usable sentence.
const FallbackReason = "Checkpoint did not meet the inspection criteria; see attached photo."

// Client queries the suggestion service over HTTP.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient returns a Client for the given base URL. An empty base URL
// yields a client that always answers with the fallback.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type suggestionResp struct {
	Suggestion string `json:"suggestion"`
}

// Reason asks the service for a one-sentence failure reason for the
// given checkpoint label and stage. It never returns an empty string
// and never returns an error to the caller.
func (c *Client) Reason(ctx context.Context, checkpointLabel, stage string) string {
	if c == nil || c.BaseURL == "" {
		return FallbackReason
	}

	endpoint := fmt.Sprintf("%s/v1/suggest?checkpoint=%s&stage=%s",
		c.BaseURL, url.QueryEscape(checkpointLabel), url.QueryEscape(stage))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		log.Printf("suggest: build request failed: %v", err)
		return FallbackReason
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		log.Printf("suggest: request failed: %v", err)
		return FallbackReason
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("suggest: unexpected status %d", resp.StatusCode)
		return FallbackReason
	}

	var body suggestionResp
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Printf("suggest: decode response failed: %v", err)
		return FallbackReason
	}
	if s := strings.TrimSpace(body.Suggestion); s != "" {
		return s
	}
	return FallbackReason
}
