// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNominatimGeocode(t *testing.T) {
	var gotQuery, gotFormat, gotLang string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)

		gotQuery = r.URL.Query().Get("q")
		gotFormat = r.URL.Query().Get("format")
		gotLang = r.URL.Query().Get("accept-language")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"48.8566","lon":"2.3522","display_name":"Paris, Île-de-France, France","importance":0.82}]`))
	}))
	defer srv.Close()

	g := NewNominatim(srv.URL+"/", srv.Client())
	g.Language = "en"

	result, err := g.Geocode(context.Background(), " Paris ")
	require.NoError(t, err)

	assert.Equal(t, "Paris", gotQuery)
	assert.Equal(t, "jsonv2", gotFormat)
	assert.Equal(t, "en", gotLang)
	assert.InDelta(t, 48.8566, result.Latitude, 1e-9)
	assert.InDelta(t, 2.3522, result.Longitude, 1e-9)
	assert.Equal(t, ConfidenceHigh, result.Confidence)
	assert.Equal(t, "nominatim", result.Provider)
	assert.Equal(t, "Paris, Île-de-France, France", result.DisplayName)
}

func TestNominatimErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   ErrorType
	}{
		{name: "no match", status: http.StatusOK, body: `[]`, want: ErrorTypeNotFound},
		{name: "throttled", status: http.StatusTooManyRequests, want: ErrorTypeRateLimit},
		{name: "blocked", status: http.StatusForbidden, want: ErrorTypeQuotaExceeded},
		{name: "down", status: http.StatusServiceUnavailable, want: ErrorTypeNetworkError},
		{name: "garbage", status: http.StatusOK, body: `<html>`, want: ErrorTypeUnknown},
		{name: "bad latitude", status: http.StatusOK, body: `[{"lat":"north","lon":"2"}]`, want: ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewNominatim(srv.URL, srv.Client()).Geocode(context.Background(), "Qwxyzstan123")
			require.Error(t, err)
			assert.Equal(t, tt.want, Classify(err), "Classify(%v)", err)
		})
	}
}

func TestNominatimEmptyQuery(t *testing.T) {
	_, err := NewNominatim("http://127.0.0.1:0", nil).Geocode(context.Background(), "  ")
	assert.Equal(t, ErrorTypeInvalidRequest, Classify(err))
}

func TestNominatimTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewNominatim(url, nil).Geocode(context.Background(), "Paris")
	require.Error(t, err)
	assert.True(t, Classify(err).ServiceFailure(), "Classify(%v) = %v", err, Classify(err))

	var geoErr *GeocodingError
	assert.True(t, errors.As(err, &geoErr))
}
