package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/city-issue-service/internal/api/dto"
	"github.com/spec-kit/city-issue-service/internal/service"
	apperrors "github.com/spec-kit/city-issue-service/pkg/util/errorutil"
)

// LocationsHandler exposes reverse geocoding.
type LocationsHandler struct {
	geocoder service.Geocoder
}

// NewLocationsHandler constructs handler.
func NewLocationsHandler(geocoder service.Geocoder) *LocationsHandler {
	return &LocationsHandler{geocoder: geocoder}
}

// ReverseGeocode GET /api/locations/reverse?lat=..&lon=..
func (h *LocationsHandler) ReverseGeocode(c *fiber.Ctx) error {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		return apperrors.NewValidationError("lat must be a number", nil)
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		return apperrors.NewValidationError("lon must be a number", nil)
	}

	result, err := h.geocoder.ReverseGeocode(c.UserContext(), lat, lon)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": dto.AddressResponse{
		DisplayName: result.DisplayName,
		Street:      result.Street,
		HouseNumber: result.HouseNumber,
		City:        result.City,
		State:       result.State,
		Country:     result.Country,
		PostalCode:  result.PostalCode,
	}})
}
