package handler

import (
	"context"
	"net/http"

	"weather-display-backend/internal/provider"
	"weather-display-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CitySearcher resolves a "City" or "City, State" query to coordinates
type CitySearcher interface {
	SearchCity(ctx context.Context, query string) (*provider.CityMatch, error)
}

// GeoHandler serves location lookups for the device setup flow
type GeoHandler struct {
	cities CitySearcher
}

func NewGeoHandler(cities CitySearcher) *GeoHandler {
	return &GeoHandler{cities: cities}
}

// Search handles GET /api/geocode?q=City,ST
func (h *GeoHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}

	match, err := h.cities.SearchCity(c.Request.Context(), query)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "No location found for that query")
		return
	}

	utils.SuccessResponse(c, match)
}
