package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocodeAddress(t *testing.T) {
	fixture := `[{
		"lat": "45.5152370",
		"lon": "-122.6784470",
		"display_name": "Portland, Multnomah County, Oregon, United States"
	}]`

	var gotUserAgent string
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotQuery = map[string]string{}
		for key, values := range r.URL.Query() {
			gotQuery[key] = values[0]
		}
		w.Write([]byte(fixture))
	}))
	defer server.Close()

	client := NewAddressClient(server.URL, 5*time.Second, nil)
	result, err := client.GeocodeAddress(context.Background(), "1234 SE Main St, Portland, OR")
	require.NoError(t, err)

	t.Run("identifies itself per the Nominatim usage policy", func(t *testing.T) {
		assert.Equal(t, "WeatherDisplayApp/1.0", gotUserAgent)
	})

	t.Run("sends the expected query", func(t *testing.T) {
		assert.Equal(t, "1234 SE Main St, Portland, OR", gotQuery["q"])
		assert.Equal(t, "json", gotQuery["format"])
		assert.Equal(t, "1", gotQuery["limit"])
		assert.Equal(t, "us", gotQuery["countrycodes"])
	})

	t.Run("parses coordinates and estimates a timezone", func(t *testing.T) {
		assert.InDelta(t, 45.515237, result.Lat, 1e-6)
		assert.InDelta(t, -122.678447, result.Lon, 1e-6)
		assert.Equal(t, "America/Los_Angeles", result.Timezone)
		assert.Equal(t, "Portland, Multnomah County, Oregon, United States", result.FormattedAddress)
	})
}

func TestGeocodeAddressNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewAddressClient(server.URL, 5*time.Second, nil)
	_, err := client.GeocodeAddress(context.Background(), "nowhere at all")
	assert.Error(t, err)
}

func TestEstimateTimezone(t *testing.T) {
	cases := []struct {
		lon      float64
		timezone string
	}{
		{-71.06, "America/New_York"},   // Boston
		{-87.63, "America/Chicago"},    // Chicago
		{-104.99, "America/Denver"},    // Denver
		{-122.68, "America/Los_Angeles"}, // Portland
	}
	for _, tc := range cases {
		assert.Equal(t, tc.timezone, EstimateTimezone(tc.lon), "lon %f", tc.lon)
	}
}
