/**
 * @description
 * Client for the billing API's internal endpoints.
 */
package billingclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// PairingTotals mirrors the totals block of a pairing run.
type PairingTotals struct {
	MovementsUpdated int64 `json:"movements_updated"`
	RotationsCreated int   `json:"rotations_created"`
}

// AirportPairing mirrors one airport entry of a pairing run.
type AirportPairing struct {
	AirportID        string `json:"airport_id"`
	MovementsUpdated int64  `json:"movements_updated"`
	RotationsCreated int    `json:"rotations_created"`
	Error            string `json:"error,omitempty"`
}

// PairingSummary is the result returned by the pairing endpoint.
type PairingSummary struct {
	Airports    []AirportPairing `json:"airports"`
	Total       PairingTotals    `json:"total"`
	Interrupted bool             `json:"interrupted"`
	Remaining   int              `json:"remaining"`
}

// Must exceed the API's 10 minute pairing bound, after which it answers with
// a partial summary.
const requestTimeout = 12 * time.Minute

// Client provides methods to interact with the billing API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new billing API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// PairRotations triggers the pairing batch. An empty airportID pairs every airport.
func (c *Client) PairRotations(ctx context.Context, airportID string) (*PairingSummary, error) {
	path := "/internal/rotations/pair"
	if airportID != "" {
		path += "?airport_id=" + url.QueryEscape(airportID)
	}

	var summary PairingSummary
	if err := c.post(ctx, path, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *Client) post(ctx context.Context, path string, out interface{}) error {
	if c.baseURL == "" {
		return fmt.Errorf("billing service base URL is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer([]byte("{}")))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-Internal-API-Key", c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	var env struct {
		OK    bool            `json:"ok"`
		Data  json.RawMessage `json:"data"`
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("billing service returned status %d with undecodable body: %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 400 || !env.OK {
		if env.Error != nil {
			return fmt.Errorf("billing service returned status %d: %s: %s", resp.StatusCode, env.Error.Code, env.Error.Message)
		}
		return fmt.Errorf("billing service returned status %d", resp.StatusCode)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
