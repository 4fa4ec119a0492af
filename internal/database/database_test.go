package database

import (
	"testing"

	"weather-display-backend/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestBuildDSN(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Host:     "db",
			Port:     "3306",
			User:     "app",
			Password: "pw",
			Database: "weather_display",
		},
	}

	dsn := buildDSN(cfg)

	assert.Contains(t, dsn, "app:pw@tcp(db:3306)/weather_display")
	assert.Contains(t, dsn, "parseTime=True")

	// The repositories treat RowsAffected == 0 as not-found. Without
	// clientFoundRows the driver reports changed rows, so a repeated
	// no-op UPDATE (re-marking a viewed key, re-applying the current
	// role) would look like a missing record.
	assert.Contains(t, dsn, "clientFoundRows=true")
}
