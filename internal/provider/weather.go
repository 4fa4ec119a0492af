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

// wmoWeatherCodes maps WMO weather interpretation codes to readable
// condition descriptions.
var wmoWeatherCodes = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snow",
	73: "Moderate snow",
	75: "Heavy snow",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// WeatherCodeDescription returns the human-readable condition for a
// WMO weather code.
func WeatherCodeDescription(code int) string {
	if description, ok := wmoWeatherCodes[code]; ok {
		return description
	}
	return "Unknown"
}

// Weather holds the full aggregated forecast for one location
type Weather struct {
	// Current conditions
	Temperature        float64 `json:"temperature"`
	FeelsLike          float64 `json:"feels_like"`
	WindSpeed          float64 `json:"windspeed"`
	WindDirection      float64 `json:"winddirection"`
	WindGusts          float64 `json:"wind_gusts"`
	Humidity           int     `json:"humidity"`
	WeatherCode        int     `json:"weathercode"`
	WeatherDescription string  `json:"weather_description"`
	Timestamp          string  `json:"timestamp"`

	// Daily data (today)
	TempMin float64 `json:"temp_min"`
	TempMax float64 `json:"temp_max"`
	Sunrise string  `json:"sunrise"`
	Sunset  string  `json:"sunset"`

	// Additional current data
	Pressure   float64 `json:"pressure"`
	Visibility float64 `json:"visibility"`
	UVIndex    float64 `json:"uv_index"`
	CloudCover int     `json:"cloud_cover"`

	// Precipitation
	Precipitation float64 `json:"precipitation"`
	Rain          float64 `json:"rain"`
	Snowfall      float64 `json:"snowfall"`

	// Forecasts
	HourlyForecast []HourlyForecast `json:"hourly_forecast"`
	DailyForecast  []DailyForecast  `json:"daily_forecast"`
}

// HourlyForecast is one hour of forecast data. Pointer fields pass
// upstream nulls through unchanged.
type HourlyForecast struct {
	Time                     string   `json:"time"`
	Temperature              *float64 `json:"temperature"`
	FeelsLike                *float64 `json:"feels_like"`
	Humidity                 *int     `json:"humidity"`
	PrecipitationProbability *int     `json:"precipitation_probability"`
	Precipitation            *float64 `json:"precipitation"`
	WeatherCode              *int     `json:"weather_code"`
	WeatherDescription       string   `json:"weather_description,omitempty"`
	WindSpeed                *float64 `json:"wind_speed"`
	WindDirection            *float64 `json:"wind_direction"`
	UVIndex                  *float64 `json:"uv_index"`
}

// DailyForecast is one day of forecast data
type DailyForecast struct {
	Date                        string   `json:"date"`
	TempMax                     *float64 `json:"temp_max"`
	TempMin                     *float64 `json:"temp_min"`
	WeatherCode                 *int     `json:"weather_code"`
	WeatherDescription          string   `json:"weather_description,omitempty"`
	Sunrise                     *string  `json:"sunrise"`
	Sunset                      *string  `json:"sunset"`
	DaylightDuration            *float64 `json:"daylight_duration"`
	PrecipitationSum            *float64 `json:"precipitation_sum"`
	PrecipitationProbabilityMax *int     `json:"precipitation_probability_max"`
	WindSpeedMax                *float64 `json:"wind_speed_max"`
	WindGustsMax                *float64 `json:"wind_gusts_max"`
	UVIndexMax                  *float64 `json:"uv_index_max"`
}

var currentParams = []string{
	"temperature_2m",
	"relative_humidity_2m",
	"apparent_temperature",
	"precipitation",
	"rain",
	"snowfall",
	"weather_code",
	"cloud_cover",
	"pressure_msl",
	"surface_pressure",
	"wind_speed_10m",
	"wind_direction_10m",
	"wind_gusts_10m",
	"visibility",
	"uv_index",
}

var hourlyParams = []string{
	"temperature_2m",
	"apparent_temperature",
	"relative_humidity_2m",
	"precipitation_probability",
	"precipitation",
	"rain",
	"snowfall",
	"weather_code",
	"pressure_msl",
	"cloud_cover",
	"visibility",
	"wind_speed_10m",
	"wind_direction_10m",
	"wind_gusts_10m",
	"uv_index",
}

var dailyParams = []string{
	"weather_code",
	"temperature_2m_max",
	"temperature_2m_min",
	"apparent_temperature_max",
	"apparent_temperature_min",
	"sunrise",
	"sunset",
	"daylight_duration",
	"precipitation_sum",
	"rain_sum",
	"snowfall_sum",
	"precipitation_probability_max",
	"wind_speed_10m_max",
	"wind_gusts_10m_max",
	"wind_direction_10m_dominant",
	"uv_index_max",
}

// forecastResponse mirrors the Open-Meteo forecast payload
type forecastResponse struct {
	Current struct {
		Time               string  `json:"time"`
		Temperature2m      float64 `json:"temperature_2m"`
		RelativeHumidity2m int     `json:"relative_humidity_2m"`
		ApparentTemp       float64 `json:"apparent_temperature"`
		Precipitation      float64 `json:"precipitation"`
		Rain               float64 `json:"rain"`
		Snowfall           float64 `json:"snowfall"`
		WeatherCode        int     `json:"weather_code"`
		CloudCover         int     `json:"cloud_cover"`
		PressureMSL        float64 `json:"pressure_msl"`
		WindSpeed10m       float64 `json:"wind_speed_10m"`
		WindDirection10m   float64 `json:"wind_direction_10m"`
		WindGusts10m       float64 `json:"wind_gusts_10m"`
		Visibility         float64 `json:"visibility"`
		UVIndex            float64 `json:"uv_index"`
	} `json:"current"`
	Hourly struct {
		Time                     []string   `json:"time"`
		Temperature2m            []*float64 `json:"temperature_2m"`
		ApparentTemp             []*float64 `json:"apparent_temperature"`
		RelativeHumidity2m       []*int     `json:"relative_humidity_2m"`
		PrecipitationProbability []*int     `json:"precipitation_probability"`
		Precipitation            []*float64 `json:"precipitation"`
		WeatherCode              []*int     `json:"weather_code"`
		WindSpeed10m             []*float64 `json:"wind_speed_10m"`
		WindDirection10m         []*float64 `json:"wind_direction_10m"`
		UVIndex                  []*float64 `json:"uv_index"`
	} `json:"hourly"`
	Daily struct {
		Time                        []string   `json:"time"`
		WeatherCode                 []*int     `json:"weather_code"`
		Temperature2mMax            []*float64 `json:"temperature_2m_max"`
		Temperature2mMin            []*float64 `json:"temperature_2m_min"`
		Sunrise                     []*string  `json:"sunrise"`
		Sunset                      []*string  `json:"sunset"`
		DaylightDuration            []*float64 `json:"daylight_duration"`
		PrecipitationSum            []*float64 `json:"precipitation_sum"`
		PrecipitationProbabilityMax []*int     `json:"precipitation_probability_max"`
		WindSpeed10mMax             []*float64 `json:"wind_speed_10m_max"`
		WindGusts10mMax             []*float64 `json:"wind_gusts_10m_max"`
		UVIndexMax                  []*float64 `json:"uv_index_max"`
	} `json:"daily"`
}

// WeatherClient fetches forecast data from the Open-Meteo API
type WeatherClient struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

func NewWeatherClient(baseURL string, timeout time.Duration, log *zap.Logger) *WeatherClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &WeatherClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

// GetCurrentWeather fetches the full forecast for the given coordinates
func (c *WeatherClient) GetCurrentWeather(ctx context.Context, lat, lon float64, timezone string) (*Weather, error) {
	query := url.Values{}
	query.Set("latitude", fmt.Sprintf("%.4f", lat))
	query.Set("longitude", fmt.Sprintf("%.4f", lon))
	query.Set("current", strings.Join(currentParams, ","))
	query.Set("hourly", strings.Join(hourlyParams, ","))
	query.Set("daily", strings.Join(dailyParams, ","))
	query.Set("temperature_unit", "fahrenheit")
	query.Set("windspeed_unit", "mph")
	query.Set("precipitation_unit", "inch")
	query.Set("timezone", timezone)
	query.Set("forecast_days", "7")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Error("weather API request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Error("weather API returned non-200", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("weather API status %d", resp.StatusCode)
	}

	var payload forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.log.Error("failed to parse weather response", zap.Error(err))
		return nil, err
	}

	return buildWeather(&payload), nil
}

func buildWeather(payload *forecastResponse) *Weather {
	weather := &Weather{
		Temperature:        payload.Current.Temperature2m,
		FeelsLike:          payload.Current.ApparentTemp,
		WindSpeed:          payload.Current.WindSpeed10m,
		WindDirection:      payload.Current.WindDirection10m,
		WindGusts:          payload.Current.WindGusts10m,
		Humidity:           payload.Current.RelativeHumidity2m,
		WeatherCode:        payload.Current.WeatherCode,
		WeatherDescription: WeatherCodeDescription(payload.Current.WeatherCode),
		Timestamp:          payload.Current.Time,
		Pressure:           payload.Current.PressureMSL,
		Visibility:         payload.Current.Visibility,
		UVIndex:            payload.Current.UVIndex,
		CloudCover:         payload.Current.CloudCover,
		Precipitation:      payload.Current.Precipitation,
		Rain:               payload.Current.Rain,
		Snowfall:           payload.Current.Snowfall,
		HourlyForecast:     []HourlyForecast{},
		DailyForecast:      []DailyForecast{},
	}

	// Today's min/max and sun times come from the first daily entry
	if len(payload.Daily.Temperature2mMin) > 0 && payload.Daily.Temperature2mMin[0] != nil {
		weather.TempMin = *payload.Daily.Temperature2mMin[0]
	}
	if len(payload.Daily.Temperature2mMax) > 0 && payload.Daily.Temperature2mMax[0] != nil {
		weather.TempMax = *payload.Daily.Temperature2mMax[0]
	}
	if len(payload.Daily.Sunrise) > 0 && payload.Daily.Sunrise[0] != nil {
		weather.Sunrise = *payload.Daily.Sunrise[0]
	}
	if len(payload.Daily.Sunset) > 0 && payload.Daily.Sunset[0] != nil {
		weather.Sunset = *payload.Daily.Sunset[0]
	}

	for i, t := range payload.Hourly.Time {
		item := HourlyForecast{
			Time:                     t,
			Temperature:              hourlyAt(payload.Hourly.Temperature2m, i),
			FeelsLike:                hourlyAt(payload.Hourly.ApparentTemp, i),
			Humidity:                 hourlyAt(payload.Hourly.RelativeHumidity2m, i),
			PrecipitationProbability: hourlyAt(payload.Hourly.PrecipitationProbability, i),
			Precipitation:            hourlyAt(payload.Hourly.Precipitation, i),
			WeatherCode:              hourlyAt(payload.Hourly.WeatherCode, i),
			WindSpeed:                hourlyAt(payload.Hourly.WindSpeed10m, i),
			WindDirection:            hourlyAt(payload.Hourly.WindDirection10m, i),
			UVIndex:                  hourlyAt(payload.Hourly.UVIndex, i),
		}
		if item.WeatherCode != nil {
			item.WeatherDescription = WeatherCodeDescription(*item.WeatherCode)
		}
		weather.HourlyForecast = append(weather.HourlyForecast, item)
	}

	for i, date := range payload.Daily.Time {
		item := DailyForecast{
			Date:                        date,
			TempMax:                     hourlyAt(payload.Daily.Temperature2mMax, i),
			TempMin:                     hourlyAt(payload.Daily.Temperature2mMin, i),
			WeatherCode:                 hourlyAt(payload.Daily.WeatherCode, i),
			Sunrise:                     hourlyAt(payload.Daily.Sunrise, i),
			Sunset:                      hourlyAt(payload.Daily.Sunset, i),
			PrecipitationSum:            hourlyAt(payload.Daily.PrecipitationSum, i),
			PrecipitationProbabilityMax: hourlyAt(payload.Daily.PrecipitationProbabilityMax, i),
			WindSpeedMax:                hourlyAt(payload.Daily.WindSpeed10mMax, i),
			WindGustsMax:                hourlyAt(payload.Daily.WindGusts10mMax, i),
			UVIndexMax:                  hourlyAt(payload.Daily.UVIndexMax, i),
		}
		if item.WeatherCode != nil {
			item.WeatherDescription = WeatherCodeDescription(*item.WeatherCode)
		}
		// Daylight is reported in seconds; displays want hours
		if seconds := hourlyAt(payload.Daily.DaylightDuration, i); seconds != nil {
			hours := float64(int(*seconds/3600*10+0.5)) / 10
			item.DaylightDuration = &hours
		}
		weather.DailyForecast = append(weather.DailyForecast, item)
	}

	return weather
}

// hourlyAt returns the i-th element of a forecast series, or nil when
// the series is shorter than the time axis.
func hourlyAt[T any](series []*T, i int) *T {
	if i < len(series) {
		return series[i]
	}
	return nil
}
