package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// usStateAbbreviations resolves two-letter state codes so a search for
// "Portland, OR" matches the geocoder's "Oregon" admin1 field.
var usStateAbbreviations = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
	"CA": "California", "CO": "Colorado", "CT": "Connecticut", "DE": "Delaware",
	"FL": "Florida", "GA": "Georgia", "HI": "Hawaii", "ID": "Idaho",
	"IL": "Illinois", "IN": "Indiana", "IA": "Iowa", "KS": "Kansas",
	"KY": "Kentucky", "LA": "Louisiana", "ME": "Maine", "MD": "Maryland",
	"MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota", "MS": "Mississippi",
	"MO": "Missouri", "MT": "Montana", "NE": "Nebraska", "NV": "Nevada",
	"NH": "New Hampshire", "NJ": "New Jersey", "NM": "New Mexico", "NY": "New York",
	"NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio", "OK": "Oklahoma",
	"OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina",
	"SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah",
	"VT": "Vermont", "VA": "Virginia", "WA": "Washington", "WV": "West Virginia",
	"WI": "Wisconsin", "WY": "Wyoming", "DC": "District of Columbia",
}

// CityMatch is one candidate location from a city search
type CityMatch struct {
	Name      string  `json:"name"`
	Admin1    string  `json:"admin1"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
}

type geocodingResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Admin1    string  `json:"admin1"`
		Country   string  `json:"country"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Timezone  string  `json:"timezone"`
	} `json:"results"`
}

// GeoClient looks up city coordinates via the Open-Meteo geocoding API
type GeoClient struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

func NewGeoClient(baseURL string, timeout time.Duration, log *zap.Logger) *GeoClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &GeoClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

// SearchCity resolves a "City" or "City, State" query to a location.
// When a state is given, only a match within that state is accepted.
func (c *GeoClient) SearchCity(ctx context.Context, query string) (*CityMatch, error) {
	city := strings.TrimSpace(query)
	state := ""
	if before, after, found := strings.Cut(query, ","); found {
		city = strings.TrimSpace(before)
		state = strings.TrimSpace(after)
		if full, ok := usStateAbbreviations[strings.ToUpper(state)]; ok {
			state = full
		}
	}

	params := url.Values{}
	params.Set("name", city)
	params.Set("count", "10")
	params.Set("language", "en")
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Error("geocoding API request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Error("geocoding API returned non-200", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("geocoding API status %d", resp.StatusCode)
	}

	var payload geocodingResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.log.Error("failed to parse geocoding response", zap.Error(err))
		return nil, err
	}

	for _, result := range payload.Results {
		if state != "" && !strings.EqualFold(result.Admin1, state) {
			continue
		}
		return &CityMatch{
			Name:      result.Name,
			Admin1:    result.Admin1,
			Country:   result.Country,
			Latitude:  result.Latitude,
			Longitude: result.Longitude,
			Timezone:  result.Timezone,
		}, nil
	}

	return nil, fmt.Errorf("no location found for %q", query)
}
