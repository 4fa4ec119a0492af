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

// aqiCategory pairs an EPA AQI category with the health guidance shown
// on the display.
type aqiCategory struct {
	Upper         int
	Name          string
	HealthMessage string
}

// EPA AQI categories, checked in order
var aqiCategories = []aqiCategory{
	{50, "Good", "Air quality is satisfactory, and air pollution poses little or no risk."},
	{100, "Moderate", "Air quality is acceptable. However, there may be a risk for some people, particularly those who are unusually sensitive to air pollution."},
	{150, "Unhealthy for Sensitive Groups", "Members of sensitive groups may experience health effects. The general public is less likely to be affected."},
	{200, "Unhealthy", "Some members of the general public may experience health effects; members of sensitive groups may experience more serious health effects."},
	{300, "Very Unhealthy", "Health alert: The risk of health effects is increased for everyone."},
	{500, "Hazardous", "Health warning of emergency conditions: everyone is more likely to be affected."},
}

// AQICategory returns the EPA category name and health message for an
// AQI value.
func AQICategory(aqi int) (string, string) {
	for _, category := range aqiCategories {
		if aqi <= category.Upper {
			return category.Name, category.HealthMessage
		}
	}
	last := aqiCategories[len(aqiCategories)-1]
	return last.Name, last.HealthMessage
}

// AirQuality holds current air quality conditions for one location
type AirQuality struct {
	AQI           int            `json:"aqi"`
	Category      string         `json:"category"`
	HealthMessage string         `json:"health_message"`
	Dominant      string         `json:"dominant_pollutant"`
	Pollutants    map[string]int `json:"pollutants"`
	PM25          *float64       `json:"pm2_5"`
	PM10          *float64       `json:"pm10"`
	Ozone         *float64       `json:"ozone"`
	CarbonMonox   *float64       `json:"carbon_monoxide"`
	NitrogenDiox  *float64       `json:"nitrogen_dioxide"`
	SulphurDiox   *float64       `json:"sulphur_dioxide"`
	Timestamp     string         `json:"timestamp"`

	HourlyForecast []HourlyAirQuality `json:"hourly_forecast"`
}

// HourlyAirQuality is one hour of forecast AQI
type HourlyAirQuality struct {
	Time     string `json:"time"`
	AQI      *int   `json:"aqi"`
	Category string `json:"category,omitempty"`
}

var airQualityCurrentParams = []string{
	"us_aqi",
	"us_aqi_pm2_5",
	"us_aqi_pm10",
	"us_aqi_ozone",
	"us_aqi_carbon_monoxide",
	"us_aqi_nitrogen_dioxide",
	"us_aqi_sulphur_dioxide",
	"pm2_5",
	"pm10",
	"ozone",
	"carbon_monoxide",
	"nitrogen_dioxide",
	"sulphur_dioxide",
}

type airQualityResponse struct {
	Current struct {
		Time                string   `json:"time"`
		USAQI               *int     `json:"us_aqi"`
		USAQIPM25           *int     `json:"us_aqi_pm2_5"`
		USAQIPM10           *int     `json:"us_aqi_pm10"`
		USAQIOzone          *int     `json:"us_aqi_ozone"`
		USAQICarbonMonoxide *int     `json:"us_aqi_carbon_monoxide"`
		USAQINitrogenDiox   *int     `json:"us_aqi_nitrogen_dioxide"`
		USAQISulphurDiox    *int     `json:"us_aqi_sulphur_dioxide"`
		PM25                *float64 `json:"pm2_5"`
		PM10                *float64 `json:"pm10"`
		Ozone               *float64 `json:"ozone"`
		CarbonMonoxide      *float64 `json:"carbon_monoxide"`
		NitrogenDioxide     *float64 `json:"nitrogen_dioxide"`
		SulphurDioxide      *float64 `json:"sulphur_dioxide"`
	} `json:"current"`
	Hourly struct {
		Time  []string `json:"time"`
		USAQI []*int   `json:"us_aqi"`
	} `json:"hourly"`
}

// AirQualityClient fetches air quality data from the Open-Meteo air
// quality API.
type AirQualityClient struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

func NewAirQualityClient(baseURL string, timeout time.Duration, log *zap.Logger) *AirQualityClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &AirQualityClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

// GetAirQuality fetches current and hourly air quality for the given
// coordinates.
func (c *AirQualityClient) GetAirQuality(ctx context.Context, lat, lon float64, timezone string) (*AirQuality, error) {
	query := url.Values{}
	query.Set("latitude", fmt.Sprintf("%.4f", lat))
	query.Set("longitude", fmt.Sprintf("%.4f", lon))
	query.Set("current", strings.Join(airQualityCurrentParams, ","))
	query.Set("hourly", "us_aqi")
	query.Set("timezone", timezone)
	query.Set("forecast_days", "5")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Error("air quality API request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Error("air quality API returned non-200", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("air quality API status %d", resp.StatusCode)
	}

	var payload airQualityResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.log.Error("failed to parse air quality response", zap.Error(err))
		return nil, err
	}

	return buildAirQuality(&payload), nil
}

func buildAirQuality(payload *airQualityResponse) *AirQuality {
	pollutants := map[string]int{}
	pollutantAQIs := []struct {
		name  string
		value *int
	}{
		{"pm2_5", payload.Current.USAQIPM25},
		{"pm10", payload.Current.USAQIPM10},
		{"ozone", payload.Current.USAQIOzone},
		{"carbon_monoxide", payload.Current.USAQICarbonMonoxide},
		{"nitrogen_dioxide", payload.Current.USAQINitrogenDiox},
		{"sulphur_dioxide", payload.Current.USAQISulphurDiox},
	}

	overall := 0
	dominant := ""
	maxValue := -1
	for _, p := range pollutantAQIs {
		if p.value == nil {
			continue
		}
		pollutants[p.name] = *p.value
		if *p.value > maxValue {
			maxValue = *p.value
			dominant = p.name
		}
	}
	if maxValue >= 0 {
		overall = maxValue
	}

	// Prefer the overall index when the API provides one; the per-
	// pollutant maximum is the fallback.
	if payload.Current.USAQI != nil {
		overall = *payload.Current.USAQI
	}

	category, healthMessage := AQICategory(overall)

	aq := &AirQuality{
		AQI:            overall,
		Category:       category,
		HealthMessage:  healthMessage,
		Dominant:       dominant,
		Pollutants:     pollutants,
		PM25:           payload.Current.PM25,
		PM10:           payload.Current.PM10,
		Ozone:          payload.Current.Ozone,
		CarbonMonox:    payload.Current.CarbonMonoxide,
		NitrogenDiox:   payload.Current.NitrogenDioxide,
		SulphurDiox:    payload.Current.SulphurDioxide,
		Timestamp:      payload.Current.Time,
		HourlyForecast: []HourlyAirQuality{},
	}

	for i, t := range payload.Hourly.Time {
		item := HourlyAirQuality{Time: t, AQI: hourlyAt(payload.Hourly.USAQI, i)}
		if item.AQI != nil {
			item.Category, _ = AQICategory(*item.AQI)
		}
		aq.HourlyForecast = append(aq.HourlyForecast, item)
	}

	return aq
}
