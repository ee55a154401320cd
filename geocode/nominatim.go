// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// NominatimURL is the public OpenStreetMap Nominatim endpoint. Its usage policy
// asks for at most one request per second and an identifying User-Agent.
const NominatimURL = "https://nominatim.openstreetmap.org"

// Nominatim uses the OpenStreetMap search API.
type Nominatim struct {
	baseURL    string
	httpClient *http.Client
	// Language sets accept-language, e.g. "en".
	Language string
}

// NewNominatim creates a Nominatim geocoder. An empty baseURL means NominatimURL.
func NewNominatim(baseURL string, httpClient *http.Client) *Nominatim {
	if baseURL == "" {
		baseURL = NominatimURL
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Nominatim{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type nominatimPlace struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
}

// Name implements Geocoder.
func (g *Nominatim) Name() string { return "nominatim" }

// Geocode implements Geocoder.
func (g *Nominatim) Geocode(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "nominatim: empty query"}
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")

	if g.Language != "" {
		params.Set("accept-language", g.Language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building nominatim request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, transportError(g.Name(), err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(resp.StatusCode, g.Name())
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, &GeocodingError{Type: ErrorTypeUnknown, Message: "nominatim: decoding response", Err: err}
	}

	if len(places) == 0 {
		return nil, notFound(query)
	}

	place := places[0]

	lat, err := strconv.ParseFloat(place.Lat, 64)
	if err != nil {
		return nil, &GeocodingError{Type: ErrorTypeUnknown, Message: "nominatim: invalid latitude", Err: err}
	}

	lng, err := strconv.ParseFloat(place.Lon, 64)
	if err != nil {
		return nil, &GeocodingError{Type: ErrorTypeUnknown, Message: "nominatim: invalid longitude", Err: err}
	}

	// importance ranks how prominent the match is, not how close it is to the
	// query, but it is the only signal the search API gives.
	confidence := ConfidenceLow

	switch {
	case place.Importance >= 0.6:
		confidence = ConfidenceHigh
	case place.Importance >= 0.3:
		confidence = ConfidenceMedium
	}

	return &Result{
		DisplayName: place.DisplayName,
		Latitude:    lat,
		Longitude:   lng,
		Confidence:  confidence,
		Provider:    g.Name(),
	}, nil
}
