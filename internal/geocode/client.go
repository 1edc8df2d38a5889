package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spec-kit/city-issue-service/internal/config"
)

// UnknownLocation is the sentinel display name cached when the upstream
// response carries no usable feature.
const UnknownLocation = "Unknown location"

// Result holds resolved address fields for a coordinate.
type Result struct {
	DisplayName string  `json:"display_name"`
	Street      string  `json:"street,omitempty"`
	HouseNumber string  `json:"house_number,omitempty"`
	City        string  `json:"city,omitempty"`
	State       string  `json:"state,omitempty"`
	Country     string  `json:"country,omitempty"`
	PostalCode  string  `json:"postal_code,omitempty"`
	Latitude    float64 `json:"latitude,omitempty"`
	Longitude   float64 `json:"longitude,omitempty"`
}

// Unknown reports whether the result is the no-feature sentinel.
func (r *Result) Unknown() bool {
	return r != nil && r.DisplayName == UnknownLocation
}

// Client resolves coordinates into addresses.
type Client interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (*Result, error)
}

// HTTPClient calls the external reverse-geocoding API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient builds a client for the configured geocoding endpoint.
func NewHTTPClient(cfg config.GeocoderConfig) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// featureResponse mirrors the upstream GeoJSON feature collection.
type featureResponse struct {
	Features []struct {
		Properties struct {
			Name        string `json:"name"`
			Street      string `json:"street"`
			HouseNumber string `json:"housenumber"`
			City        string `json:"city"`
			State       string `json:"state"`
			Country     string `json:"country"`
			PostCode    string `json:"postcode"`
		} `json:"properties"`
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// ReverseGeocode fetches the nearest address feature for the coordinate.
func (c *HTTPClient) ReverseGeocode(ctx context.Context, lat, lon float64) (*Result, error) {
	url := fmt.Sprintf("%s/geocoding/reverse?lat=%g&lon=%g", c.baseURL, lat, lon)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var payload featureResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode geocoder response: %w", err)
	}

	return mapFeature(payload), nil
}

func mapFeature(payload featureResponse) *Result {
	if len(payload.Features) == 0 {
		return &Result{DisplayName: UnknownLocation}
	}

	feature := payload.Features[0]
	props := feature.Properties

	result := &Result{
		Street:      props.Street,
		HouseNumber: props.HouseNumber,
		City:        props.City,
		State:       props.State,
		Country:     props.Country,
		PostalCode:  props.PostCode,
	}
	if coords := feature.Geometry.Coordinates; len(coords) > 1 {
		result.Longitude = coords[0]
		result.Latitude = coords[1]
	}

	var parts []string
	streetLine := strings.TrimSpace(props.HouseNumber + " " + props.Street)
	if streetLine != "" {
		parts = append(parts, streetLine)
	}
	for _, part := range []string{props.City, props.State, props.Country} {
		if part != "" {
			parts = append(parts, part)
		}
	}

	result.DisplayName = strings.Join(parts, ", ")
	if result.DisplayName == "" {
		result.DisplayName = props.Name
	}
	if result.DisplayName == "" {
		result.DisplayName = UnknownLocation
	}
	return result
}
