package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	CORS      CORSConfig
	Auth      AuthConfig
	Providers ProvidersConfig
	Worker    WorkerConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

type ServerConfig struct {
	Port    string
	GinMode string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type AuthConfig struct {
	BcryptCost  int
	BasicRealm  string
	BearerRealm string
}

type ProvidersConfig struct {
	WeatherBaseURL     string
	AirQualityBaseURL  string
	GeocodingBaseURL   string
	NominatimBaseURL   string
	AstronomyBaseURL   string
	AstronomyAppID     string
	AstronomyAppSecret string
	Timeout            time.Duration
}

type WorkerConfig struct {
	Interval       time.Duration
	StaleThreshold time.Duration
}

func LoadConfig() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "weather_display"),
		},
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		},
		Auth: AuthConfig{
			BcryptCost:  parseInt(getEnv("BCRYPT_COST", "12"), 12),
			BasicRealm:  getEnv("AUTH_BASIC_REALM", "Weather Display"),
			BearerRealm: getEnv("AUTH_BEARER_REALM", "Weather Display API"),
		},
		Providers: ProvidersConfig{
			WeatherBaseURL:     getEnv("WEATHER_BASE_URL", "https://api.open-meteo.com/v1/forecast"),
			AirQualityBaseURL:  getEnv("AIR_QUALITY_BASE_URL", "https://air-quality-api.open-meteo.com/v1/air-quality"),
			GeocodingBaseURL:   getEnv("GEOCODING_BASE_URL", "https://geocoding-api.open-meteo.com/v1/search"),
			NominatimBaseURL:   getEnv("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org/search"),
			AstronomyBaseURL:   getEnv("ASTRONOMY_BASE_URL", "https://api.astronomyapi.com/api/v2"),
			AstronomyAppID:     getEnv("ASTRONOMY_API_ID", ""),
			AstronomyAppSecret: getEnv("ASTRONOMY_API_SECRET", ""),
			Timeout:            parseDuration(getEnv("PROVIDER_TIMEOUT", "10s"), 10*time.Second),
		},
		Worker: WorkerConfig{
			Interval:       parseDuration(getEnv("WORKER_INTERVAL", "5m"), 5*time.Minute),
			StaleThreshold: parseDuration(getEnv("DEVICE_STALE_THRESHOLD", "1h"), time.Hour),
		},
	}

	return config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		fmt.Printf("Warning: Invalid duration format '%s', using default\n", s)
		return defaultValue
	}
	return duration
}

func parseInt(s string, defaultValue int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		fmt.Printf("Warning: Invalid integer '%s', using default\n", s)
		return defaultValue
	}
	return n
}

func parseOrigins(s string) []string {
	if s == "" {
		return []string{}
	}

	origins := []string{}
	for _, origin := range strings.Split(s, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}

	return origins
}
