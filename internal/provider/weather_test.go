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

const forecastFixture = `{
	"current": {
		"time": "2025-06-01T14:00",
		"temperature_2m": 68.4,
		"relative_humidity_2m": 55,
		"apparent_temperature": 66.9,
		"precipitation": 0.0,
		"rain": 0.0,
		"snowfall": 0.0,
		"weather_code": 2,
		"cloud_cover": 40,
		"pressure_msl": 1015.2,
		"wind_speed_10m": 7.3,
		"wind_direction_10m": 250.0,
		"wind_gusts_10m": 12.1,
		"visibility": 32808.4,
		"uv_index": 5.2
	},
	"hourly": {
		"time": ["2025-06-01T14:00", "2025-06-01T15:00"],
		"temperature_2m": [68.4, null],
		"apparent_temperature": [66.9, 67.0],
		"relative_humidity_2m": [55, 54],
		"precipitation_probability": [5, 10],
		"precipitation": [0.0, 0.0],
		"weather_code": [2, 3],
		"wind_speed_10m": [7.3, 8.0],
		"wind_direction_10m": [250.0, 255.0],
		"uv_index": [5.2, 4.8]
	},
	"daily": {
		"time": ["2025-06-01", "2025-06-02"],
		"weather_code": [2, 61],
		"temperature_2m_max": [72.1, 65.0],
		"temperature_2m_min": [54.3, 52.0],
		"sunrise": ["2025-06-01T05:28", "2025-06-02T05:27"],
		"sunset": ["2025-06-01T20:52", "2025-06-02T20:53"],
		"daylight_duration": [55440.0, 55560.0],
		"precipitation_sum": [0.0, 0.3],
		"precipitation_probability_max": [10, 70],
		"wind_speed_10m_max": [9.1, 14.2],
		"wind_gusts_10m_max": [15.0, 22.5],
		"uv_index_max": [6.1, 4.0]
	}
}`

func TestGetCurrentWeather(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for key, values := range r.URL.Query() {
			gotQuery[key] = values[0]
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(forecastFixture))
	}))
	defer server.Close()

	client := NewWeatherClient(server.URL, 5*time.Second, nil)
	weather, err := client.GetCurrentWeather(context.Background(), 45.5152, -122.6784, "America/Los_Angeles")
	require.NoError(t, err)

	t.Run("requests imperial units for 7 days", func(t *testing.T) {
		assert.Equal(t, "45.5152", gotQuery["latitude"])
		assert.Equal(t, "-122.6784", gotQuery["longitude"])
		assert.Equal(t, "fahrenheit", gotQuery["temperature_unit"])
		assert.Equal(t, "mph", gotQuery["windspeed_unit"])
		assert.Equal(t, "inch", gotQuery["precipitation_unit"])
		assert.Equal(t, "7", gotQuery["forecast_days"])
		assert.Equal(t, "America/Los_Angeles", gotQuery["timezone"])
		assert.Contains(t, gotQuery["current"], "apparent_temperature")
		assert.Contains(t, gotQuery["hourly"], "precipitation_probability")
		assert.Contains(t, gotQuery["daily"], "daylight_duration")
	})

	t.Run("parses current conditions", func(t *testing.T) {
		assert.Equal(t, 68.4, weather.Temperature)
		assert.Equal(t, 66.9, weather.FeelsLike)
		assert.Equal(t, 55, weather.Humidity)
		assert.Equal(t, 2, weather.WeatherCode)
		assert.Equal(t, "Partly cloudy", weather.WeatherDescription)
		assert.Equal(t, "2025-06-01T14:00", weather.Timestamp)
	})

	t.Run("today's extremes and sun times come from the first daily entry", func(t *testing.T) {
		assert.Equal(t, 54.3, weather.TempMin)
		assert.Equal(t, 72.1, weather.TempMax)
		assert.Equal(t, "2025-06-01T05:28", weather.Sunrise)
		assert.Equal(t, "2025-06-01T20:52", weather.Sunset)
	})

	t.Run("hourly nulls survive as nil", func(t *testing.T) {
		require.Len(t, weather.HourlyForecast, 2)
		require.NotNil(t, weather.HourlyForecast[0].Temperature)
		assert.Equal(t, 68.4, *weather.HourlyForecast[0].Temperature)
		assert.Nil(t, weather.HourlyForecast[1].Temperature)
		assert.Equal(t, "Overcast", weather.HourlyForecast[1].WeatherDescription)
	})

	t.Run("daylight seconds convert to hours", func(t *testing.T) {
		require.Len(t, weather.DailyForecast, 2)
		require.NotNil(t, weather.DailyForecast[0].DaylightDuration)
		assert.Equal(t, 15.4, *weather.DailyForecast[0].DaylightDuration)
		assert.Equal(t, "Slight rain", weather.DailyForecast[1].WeatherDescription)
	})
}

func TestGetCurrentWeatherUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewWeatherClient(server.URL, 5*time.Second, nil)
	_, err := client.GetCurrentWeather(context.Background(), 1, 2, "UTC")
	assert.Error(t, err)
}

func TestWeatherCodeDescription(t *testing.T) {
	assert.Equal(t, "Clear sky", WeatherCodeDescription(0))
	assert.Equal(t, "Thunderstorm", WeatherCodeDescription(95))
	assert.Equal(t, "Unknown", WeatherCodeDescription(42))
}
