// Package status renders a dashboard of the hosts' backup health from the
// metrics their exporters publish to Prometheus.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Sample is one element of a Prometheus instant-query result vector.
type Sample struct {
	Metric map[string]string
	Value  float64
}

// Client queries the Prometheus HTTP API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a Prometheus API client. apiKey may be empty; when set
// it is sent as an X-Api-Key header.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type apiResponse struct {
	Status string `json:"status"`
	Data   struct {
		ResultType string `json:"resultType"`
		Result     []struct {
			Metric map[string]string `json:"metric"`
			Value  []json.RawMessage `json:"value"`
		} `json:"result"`
	} `json:"data"`
}

// Query runs an instant query and returns the result vector.
func (c *Client) Query(ctx context.Context, query string) ([]Sample, error) {
	endpoint := fmt.Sprintf("%s/api/v1/query?query=%s", c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query prometheus: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("prometheus returned %s", resp.Status)
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode prometheus response: %w", err)
	}

	if parsed.Status != "success" || parsed.Data.ResultType != "vector" {
		return nil, nil
	}

	samples := make([]Sample, 0, len(parsed.Data.Result))
	for _, res := range parsed.Data.Result {
		// Instant vectors encode the value as [timestamp, "number"].
		if len(res.Value) != 2 {
			continue
		}
		var raw string
		if err := json.Unmarshal(res.Value[1], &raw); err != nil {
			continue
		}
		val, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		samples = append(samples, Sample{Metric: res.Metric, Value: val})
	}
	return samples, nil
}
