// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// GoogleMapsURL is the Geocoding API endpoint.
const GoogleMapsURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleMaps uses Google Maps Geocoding API.
type GoogleMaps struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	// Region biases results towards a ccTLD, e.g. "uy". Empty means no bias.
	Region string
}

// NewGoogleMaps creates a new Google Maps geocoder.
func NewGoogleMaps(apiKey string, httpClient *http.Client) *GoogleMaps {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &GoogleMaps{
		apiKey:     apiKey,
		baseURL:    GoogleMapsURL,
		httpClient: httpClient,
	}
}

type googleMapsResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"` // ROOFTOP, RANGE_INTERPOLATED, GEOMETRIC_CENTER, APPROXIMATE
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	Status       string `json:"status"` // OK, ZERO_RESULTS, etc.
	ErrorMessage string `json:"error_message"`
}

// Name implements Geocoder.
func (g *GoogleMaps) Name() string { return "google_maps" }

func (g *GoogleMaps) statusError(status, message string, query string) error {
	geoErr := &GeocodingError{Message: fmt.Sprintf("google maps status: %s", status)}
	if message != "" {
		geoErr.Message += " (" + message + ")"
	}

	switch status {
	case "ZERO_RESULTS":
		return notFound(query)
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT", "REQUEST_DENIED":
		geoErr.Type = ErrorTypeQuotaExceeded
	case "INVALID_REQUEST":
		geoErr.Type = ErrorTypeInvalidRequest
	case "UNKNOWN_ERROR":
		geoErr.Type = ErrorTypeNetworkError
	default:
		geoErr.Type = ErrorTypeUnknown
	}

	return geoErr
}

// Geocode implements Geocoder.
func (g *GoogleMaps) Geocode(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "google maps: empty query"}
	}

	if g.apiKey == "" {
		return nil, &GeocodingError{Type: ErrorTypeQuotaExceeded, Message: "google maps: missing API key"}
	}

	params := url.Values{}
	params.Set("address", query)
	params.Set("key", g.apiKey)

	if g.Region != "" {
		params.Set("region", g.Region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building google maps request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, transportError(g.Name(), err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(resp.StatusCode, g.Name())
	}

	var gmResp googleMapsResponse
	if err := json.NewDecoder(resp.Body).Decode(&gmResp); err != nil {
		return nil, &GeocodingError{Type: ErrorTypeUnknown, Message: "google maps: decoding response", Err: err}
	}

	if gmResp.Status != "OK" {
		return nil, g.statusError(gmResp.Status, gmResp.ErrorMessage, query)
	}

	if len(gmResp.Results) == 0 {
		return nil, notFound(query)
	}

	result := gmResp.Results[0]

	confidence := ConfidenceLow

	switch result.Geometry.LocationType {
	case "ROOFTOP", "RANGE_INTERPOLATED":
		confidence = ConfidenceHigh
	case "GEOMETRIC_CENTER":
		confidence = ConfidenceMedium
	}

	return &Result{
		Latitude:    result.Geometry.Location.Lat,
		Longitude:   result.Geometry.Location.Lng,
		Confidence:  confidence,
		Provider:    g.Name(),
		DisplayName: result.FormattedAddress,
	}, nil
}
