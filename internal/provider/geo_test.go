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

const geocodingFixture = `{
	"results": [
		{"name": "Portland", "admin1": "Maine", "country": "United States",
		 "latitude": 43.6591, "longitude": -70.2568, "timezone": "America/New_York"},
		{"name": "Portland", "admin1": "Oregon", "country": "United States",
		 "latitude": 45.5152, "longitude": -122.6784, "timezone": "America/Los_Angeles"}
	]
}`

func newGeoTestServer(t *testing.T, fixture string) (*GeoClient, *map[string]string) {
	t.Helper()
	gotQuery := map[string]string{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for key, values := range r.URL.Query() {
			gotQuery[key] = values[0]
		}
		w.Write([]byte(fixture))
	}))
	t.Cleanup(server.Close)
	return NewGeoClient(server.URL, 5*time.Second, nil), &gotQuery
}

func TestSearchCity(t *testing.T) {
	t.Run("bare city returns the first result", func(t *testing.T) {
		client, gotQuery := newGeoTestServer(t, geocodingFixture)

		match, err := client.SearchCity(context.Background(), "Portland")
		require.NoError(t, err)
		assert.Equal(t, "Maine", match.Admin1)
		assert.Equal(t, "Portland", (*gotQuery)["name"])
	})

	t.Run("state abbreviation narrows the match", func(t *testing.T) {
		client, gotQuery := newGeoTestServer(t, geocodingFixture)

		match, err := client.SearchCity(context.Background(), "Portland, OR")
		require.NoError(t, err)
		assert.Equal(t, "Oregon", match.Admin1)
		assert.Equal(t, 45.5152, match.Latitude)
		assert.Equal(t, "America/Los_Angeles", match.Timezone)
		// Only the city goes to the geocoder; the state filters locally
		assert.Equal(t, "Portland", (*gotQuery)["name"])
	})

	t.Run("full state name also narrows the match", func(t *testing.T) {
		client, _ := newGeoTestServer(t, geocodingFixture)

		match, err := client.SearchCity(context.Background(), "Portland, oregon")
		require.NoError(t, err)
		assert.Equal(t, "Oregon", match.Admin1)
	})

	t.Run("no match in the requested state is an error", func(t *testing.T) {
		client, _ := newGeoTestServer(t, geocodingFixture)

		_, err := client.SearchCity(context.Background(), "Portland, TX")
		assert.Error(t, err)
	})

	t.Run("empty results is an error", func(t *testing.T) {
		client, _ := newGeoTestServer(t, `{"results": []}`)

		_, err := client.SearchCity(context.Background(), "Nowheresville")
		assert.Error(t, err)
	})
}
