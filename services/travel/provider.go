package travel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"walkly/models"
)

// Provider estimates point-to-point travel. Implementations must honor the
// context deadline; the oracle bounds every call.
type Provider interface {
	Estimate(ctx context.Context, origin, dest models.Location, departAt time.Time) (seconds int, meters int, err error)
}

// distanceMatrixResponse represents the structure of the response from the
// Google Distance Matrix API.
type distanceMatrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Duration struct {
				Value int `json:"value"` // seconds
			} `json:"duration"`
			Distance struct {
				Value int `json:"value"` // meters
			} `json:"distance"`
		} `json:"elements"`
	} `json:"rows"`
}

// GoogleProvider calls the Google Distance Matrix API.
type GoogleProvider struct {
	APIKey string
	Client *http.Client
}

// NewGoogleProvider builds a provider with the given API key and call timeout.
func NewGoogleProvider(apiKey string, timeout time.Duration) *GoogleProvider {
	return &GoogleProvider{
		APIKey: apiKey,
		Client: &http.Client{Timeout: timeout},
	}
}

func (p *GoogleProvider) Estimate(ctx context.Context, origin, dest models.Location, departAt time.Time) (int, int, error) {
	if p.APIKey == "" {
		return 0, 0, fmt.Errorf("travel provider: missing API key")
	}

	q := url.Values{}
	q.Set("origins", fmt.Sprintf("%f,%f", origin.Latitude, origin.Longitude))
	q.Set("destinations", fmt.Sprintf("%f,%f", dest.Latitude, dest.Longitude))
	if departAt.After(time.Now()) {
		q.Set("departure_time", fmt.Sprintf("%d", departAt.Unix()))
	}
	q.Set("key", p.APIKey)
	reqURL := "https://maps.googleapis.com/maps/api/distancematrix/json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("travel provider: build request: %w", err)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("travel provider: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("travel provider: unexpected status %d", resp.StatusCode)
	}

	var matrix distanceMatrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&matrix); err != nil {
		return 0, 0, fmt.Errorf("travel provider: decode response: %w", err)
	}
	if matrix.Status != "OK" || len(matrix.Rows) == 0 || len(matrix.Rows[0].Elements) == 0 {
		return 0, 0, fmt.Errorf("travel provider: no route in response (status %s)", matrix.Status)
	}
	el := matrix.Rows[0].Elements[0]
	if el.Status != "OK" {
		return 0, 0, fmt.Errorf("travel provider: element status %s", el.Status)
	}

	return el.Duration.Value, el.Distance.Value, nil
}
