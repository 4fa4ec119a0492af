package handler

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"weather-display-backend/internal/auth"
	"weather-display-backend/internal/middleware"
	"weather-display-backend/internal/models"
	"weather-display-backend/internal/service"
	"weather-display-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type DeviceHandler struct {
	devices *service.DeviceService
	weather *service.WeatherService
}

func NewDeviceHandler(devices *service.DeviceService, weather *service.WeatherService) *DeviceHandler {
	return &DeviceHandler{devices: devices, weather: weather}
}

type createDeviceRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=100"`
	Address string `json:"address" binding:"required,min=1,max=255"`
}

// List handles GET /api/devices
func (h *DeviceHandler) List(c *gin.Context) {
	principal := middleware.CurrentUser(c)

	devices, err := h.devices.ListFor(c.Request.Context(), principal)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list devices")
		return
	}

	utils.SuccessResponse(c, devices)
}

// Create handles POST /api/devices
func (h *DeviceHandler) Create(c *gin.Context) {
	principal := middleware.CurrentUser(c)

	var req createDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	device, err := h.devices.Create(c.Request.Context(), principal, req.Name, req.Address)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to create device")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    device,
	})
}

// Get handles GET /api/devices/:device_id
func (h *DeviceHandler) Get(c *gin.Context) {
	device, ok := h.authorizedDevice(c)
	if !ok {
		return
	}
	utils.SuccessResponse(c, device)
}

// Update handles PATCH /api/devices/:device_id. The body must contain
// only known device fields; anything else is rejected.
func (h *DeviceHandler) Update(c *gin.Context) {
	current, ok := h.authorizedDevice(c)
	if !ok {
		return
	}

	var patch models.DevicePatch
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&patch); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if patch.Timezone != nil && *patch.Timezone == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Timezone cannot be empty")
		return
	}

	principal := middleware.CurrentUser(c)
	device, err := h.devices.Update(c.Request.Context(), principal, current.DeviceID, patch)
	if err != nil {
		if errors.Is(err, service.ErrDeviceNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "Device not found")
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to update device")
		return
	}

	utils.SuccessResponse(c, device)
}

// Delete handles DELETE /api/devices/:device_id
func (h *DeviceHandler) Delete(c *gin.Context) {
	device, ok := h.authorizedDevice(c)
	if !ok {
		return
	}

	principal := middleware.CurrentUser(c)
	if err := h.devices.Delete(c.Request.Context(), principal, device.DeviceID); err != nil {
		if errors.Is(err, service.ErrDeviceNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "Device not found")
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to delete device")
		return
	}

	utils.MessageResponse(c, "Device deleted")
}

// Weather handles GET /api/device/:device_id/weather. The endpoint is
// public so a display only needs its device_id; the request doubles as
// the device heartbeat.
func (h *DeviceHandler) Weather(c *gin.Context) {
	deviceID := c.Param("device_id")
	device, err := h.devices.Get(c.Request.Context(), deviceID)
	if err != nil {
		if errors.Is(err, service.ErrDeviceNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "Device not found")
		} else {
			utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to load device")
		}
		return
	}

	conditions, ok := h.fetchConditions(c, device)
	if !ok {
		return
	}

	utils.SuccessResponse(c, gin.H{
		"device": gin.H{
			"device_id": device.DeviceID,
			"name":      device.Name,
			"address":   device.Address,
			"timezone":  device.Timezone,
		},
		"weather":     conditions.Weather,
		"moon":        conditions.Moon,
		"air_quality": conditions.AirQuality,
	})
}

// Data handles GET /api/device/:device_id/data: the weather payload
// filtered to the categories the display asked for. Supported
// categories: weather, hourly, daily, astronomy, lunar, air_quality.
func (h *DeviceHandler) Data(c *gin.Context) {
	device, ok := h.authorizedDevice(c)
	if !ok {
		return
	}
	conditions, ok := h.fetchConditions(c, device)
	if !ok {
		return
	}

	selected := selectCategories(c.Query("include"), c.Query("exclude"))
	hourlyLimit := parseLimit(c.Query("hourly_limit"), 168)
	dailyLimit := parseLimit(c.Query("daily_limit"), 7)

	data := gin.H{
		"device_id": device.DeviceID,
		"timezone":  device.Timezone,
	}

	weather := conditions.Weather
	if selected["weather"] {
		current := *weather
		current.HourlyForecast = nil
		current.DailyForecast = nil
		data["weather"] = current
	}
	if selected["hourly"] {
		hourly := weather.HourlyForecast
		if len(hourly) > hourlyLimit {
			hourly = hourly[:hourlyLimit]
		}
		data["hourly"] = hourly
	}
	if selected["daily"] {
		daily := weather.DailyForecast
		if len(daily) > dailyLimit {
			daily = daily[:dailyLimit]
		}
		data["daily"] = daily
	}
	if selected["astronomy"] {
		data["astronomy"] = gin.H{
			"sunrise": weather.Sunrise,
			"sunset":  weather.Sunset,
		}
	}
	if selected["lunar"] {
		data["lunar"] = conditions.Moon
	}
	if selected["air_quality"] {
		data["air_quality"] = conditions.AirQuality
	}

	utils.SuccessResponse(c, data)
}

// ESP handles GET /api/device/:device_id/esp: a flat, minimal payload
// sized for microcontroller displays with small JSON buffers.
func (h *DeviceHandler) ESP(c *gin.Context) {
	device, ok := h.authorizedDevice(c)
	if !ok {
		return
	}
	conditions, ok := h.fetchConditions(c, device)
	if !ok {
		return
	}

	weather := conditions.Weather
	payload := gin.H{
		"temp":       int(math.Round(weather.Temperature)),
		"feels":      int(math.Round(weather.FeelsLike)),
		"humid":      weather.Humidity,
		"condition":  weather.WeatherDescription,
		"wind_speed": int(math.Round(weather.WindSpeed)),
		"wind_dir":   windDirection(weather.WindDirection),
		"temp_min":   int(math.Round(weather.TempMin)),
		"temp_max":   int(math.Round(weather.TempMax)),
		"sunrise":    formatClock(weather.Sunrise),
		"sunset":     formatClock(weather.Sunset),
	}
	if conditions.Moon != nil {
		payload["moon_phase"] = conditions.Moon.Phase
		payload["moon_illum"] = int(math.Round(conditions.Moon.Illumination))
	}
	if conditions.AirQuality != nil {
		payload["aqi"] = conditions.AirQuality.AQI
		payload["aqi_category"] = conditions.AirQuality.Category
	}

	// Microcontroller parsers want the flat object, not the envelope
	c.JSON(http.StatusOK, payload)
}

// fetchConditions records the device heartbeat and fetches the
// aggregated upstream data shared by the display endpoints.
func (h *DeviceHandler) fetchConditions(c *gin.Context, device *models.Device) (*service.DeviceConditions, bool) {
	if !device.HasLocation() {
		utils.ErrorResponse(c, http.StatusBadRequest, "Device has no location configured. Update its address first.")
		return nil, false
	}

	h.devices.Heartbeat(c.Request.Context(), device.DeviceID)

	conditions, err := h.weather.ConditionsFor(c.Request.Context(), device)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadGateway, "Weather data unavailable")
		return nil, false
	}

	return conditions, true
}

// authorizedDevice loads the device from the route and enforces the
// ownership rule: the owner or an admin may manage it.
func (h *DeviceHandler) authorizedDevice(c *gin.Context) (*models.Device, bool) {
	principal := middleware.CurrentUser(c)
	deviceID := c.Param("device_id")

	device, err := h.devices.Get(c.Request.Context(), deviceID)
	if err != nil {
		if errors.Is(err, service.ErrDeviceNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "Device not found")
		} else {
			utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to load device")
		}
		return nil, false
	}

	if !auth.AuthorizeOwnership(principal, device.UserID) {
		utils.ErrorResponse(c, http.StatusForbidden, "You do not own this device")
		return nil, false
	}

	return device, true
}

var compassPoints = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// windDirection converts degrees to a 16-point compass label
func windDirection(degrees float64) string {
	index := int(math.Round(math.Mod(degrees, 360)/22.5)) % 16
	if index < 0 {
		index += 16
	}
	return compassPoints[index]
}

// formatClock extracts HH:MM from an ISO 8601 timestamp
func formatClock(timestamp string) string {
	if _, after, found := strings.Cut(timestamp, "T"); found && len(after) >= 5 {
		return after[:5]
	}
	return timestamp
}

func selectCategories(include, exclude string) map[string]bool {
	all := []string{"weather", "hourly", "daily", "astronomy", "lunar", "air_quality"}

	selected := map[string]bool{}
	if include != "" {
		for _, name := range strings.Split(include, ",") {
			selected[strings.TrimSpace(name)] = true
		}
	} else {
		for _, name := range all {
			selected[name] = true
		}
	}

	if exclude != "" {
		for _, name := range strings.Split(exclude, ",") {
			delete(selected, strings.TrimSpace(name))
		}
	}

	return selected
}

func parseLimit(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return defaultValue
	}
	return n
}
