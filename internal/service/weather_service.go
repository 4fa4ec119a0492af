package service

import (
	"context"

	"weather-display-backend/internal/models"
	"weather-display-backend/internal/provider"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// WeatherProvider fetches forecast data
type WeatherProvider interface {
	GetCurrentWeather(ctx context.Context, lat, lon float64, timezone string) (*provider.Weather, error)
}

// AirQualityProvider fetches air quality data
type AirQualityProvider interface {
	GetAirQuality(ctx context.Context, lat, lon float64, timezone string) (*provider.AirQuality, error)
}

// AstronomyProvider fetches lunar data
type AstronomyProvider interface {
	GetMoonPhase(ctx context.Context, lat, lon float64) (*provider.MoonPhase, error)
}

// DeviceConditions is everything a display needs for one refresh.
// Moon and AirQuality are nil when their upstreams are unavailable;
// Weather is mandatory.
type DeviceConditions struct {
	Weather    *provider.Weather    `json:"weather"`
	Moon       *provider.MoonPhase  `json:"moon,omitempty"`
	AirQuality *provider.AirQuality `json:"air_quality,omitempty"`
}

// WeatherService aggregates the upstream providers for a device
type WeatherService struct {
	weather    WeatherProvider
	airQuality AirQualityProvider
	astronomy  AstronomyProvider
	log        *zap.Logger
}

func NewWeatherService(weather WeatherProvider, airQuality AirQualityProvider, astronomy AstronomyProvider, log *zap.Logger) *WeatherService {
	if log == nil {
		log = zap.NewNop()
	}
	return &WeatherService{
		weather:    weather,
		airQuality: airQuality,
		astronomy:  astronomy,
		log:        log,
	}
}

// ConditionsFor fetches all upstream data for a device concurrently.
// The forecast is required; moon phase and air quality degrade to nil
// so one flaky upstream cannot blank the whole display.
func (s *WeatherService) ConditionsFor(ctx context.Context, device *models.Device) (*DeviceConditions, error) {
	lat, lon := *device.Lat, *device.Lon
	timezone := device.Timezone

	conditions := &DeviceConditions{}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		weather, err := s.weather.GetCurrentWeather(groupCtx, lat, lon, timezone)
		if err != nil {
			return err
		}
		conditions.Weather = weather
		return nil
	})

	group.Go(func() error {
		if s.astronomy == nil {
			return nil
		}
		moon, err := s.astronomy.GetMoonPhase(groupCtx, lat, lon)
		if err != nil {
			s.log.Warn("moon phase unavailable",
				zap.String("device_id", device.DeviceID),
				zap.Error(err))
			return nil
		}
		conditions.Moon = moon
		return nil
	})

	group.Go(func() error {
		if s.airQuality == nil {
			return nil
		}
		airQuality, err := s.airQuality.GetAirQuality(groupCtx, lat, lon, timezone)
		if err != nil {
			s.log.Warn("air quality unavailable",
				zap.String("device_id", device.DeviceID),
				zap.Error(err))
			return nil
		}
		conditions.AirQuality = airQuality
		return nil
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return conditions, nil
}
