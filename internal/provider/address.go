package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// GeocodeResult is a resolved street address
type GeocodeResult struct {
	Lat              float64 `json:"lat"`
	Lon              float64 `json:"lon"`
	Timezone         string  `json:"timezone"`
	FormattedAddress string  `json:"formatted_address"`
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// AddressClient geocodes street addresses via Nominatim
type AddressClient struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

func NewAddressClient(baseURL string, timeout time.Duration, log *zap.Logger) *AddressClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &AddressClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

// GeocodeAddress resolves a free-form address to coordinates, an
// estimated timezone and a formatted address string.
func (c *AddressClient) GeocodeAddress(ctx context.Context, address string) (*GeocodeResult, error) {
	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("countrycodes", "us")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	// Nominatim's usage policy requires an identifying User-Agent
	req.Header.Set("User-Agent", "WeatherDisplayApp/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Error("address geocoding request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Error("address geocoding returned non-200", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("address geocoding status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		c.log.Error("failed to parse address geocoding response", zap.Error(err))
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no results for address %q", address)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude in geocoding response: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude in geocoding response: %w", err)
	}

	return &GeocodeResult{
		Lat:              lat,
		Lon:              lon,
		Timezone:         EstimateTimezone(lon),
		FormattedAddress: results[0].DisplayName,
	}, nil
}

// EstimateTimezone picks a continental US timezone from longitude.
// Coarse, but good enough for display scheduling when the geocoder
// returns no timezone.
func EstimateTimezone(lon float64) string {
	switch {
	case lon > -85:
		return "America/New_York"
	case lon > -100:
		return "America/Chicago"
	case lon > -115:
		return "America/Denver"
	default:
		return "America/Los_Angeles"
	}
}
