// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jcodagnone/nermap/geocode"
	"github.com/jcodagnone/nermap/geocode/geocodetest"
	"github.com/jcodagnone/nermap/ner"
	"github.com/jcodagnone/nermap/spatial"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countWarnings(buf *bytes.Buffer) int {
	return strings.Count(buf.String(), `"level":"warn"`)
}

func TestResolveSkipsUnresolvable(t *testing.T) {
	var logs bytes.Buffer

	stub := geocodetest.NewStub(map[string][2]float64{"Paris": {48.8566, 2.3522}})
	r := NewResolver(stub, zerolog.New(&logs))

	report, err := r.Resolve(context.Background(), slices.Values([]string{"Paris", "Qwxyzstan123"}))
	require.NoError(t, err)

	want := []spatial.Coordinate{{Lng: 2.3522, Lat: 48.8566}}
	if diff := cmp.Diff(want, report.Coordinates); diff != "" {
		t.Errorf("Coordinates mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 1, countWarnings(&logs))
	assert.Contains(t, logs.String(), "Qwxyzstan123")

	require.Len(t, report.Failures, 1)
	assert.Equal(t, "Qwxyzstan123", report.Failures[0].Name)
	assert.Equal(t, geocode.ErrorTypeNotFound, report.Failures[0].Type)
	assert.Equal(t, []string{"Paris", "Qwxyzstan123"}, stub.Calls)
}

func TestResolveForwardProgress(t *testing.T) {
	stub := geocodetest.NewStub(map[string][2]float64{
		"Paris":      {48.8566, 2.3522},
		"Montevideo": {-34.9011, -56.1645},
		"Tokyo":      {35.6762, 139.6503},
	})
	stub.Errors["Mordor"] = &geocode.GeocodingError{Type: geocode.ErrorTypeInvalidRequest, Message: "ambiguous"}
	stub.Errors["Atlantis"] = errors.New("something odd")

	names := []string{"Paris", "Mordor", "Montevideo", "Atlantis", "Nowhere", "Tokyo", "Paris"}

	r := NewResolver(stub, zerolog.Nop())
	r.Strict = true

	report, err := r.Resolve(context.Background(), slices.Values(names))
	require.NoError(t, err)

	assert.Equal(t, names, stub.Calls, "one call per name, in order")
	assert.Len(t, report.Coordinates, 4)
	assert.Len(t, report.Resolved, 4)
	assert.Len(t, report.Failures, 3)
	assert.Equal(t, len(names), report.Attempted())

	for _, c := range report.Coordinates {
		require.NoError(t, c.Validate())
	}

	for i, res := range report.Resolved {
		assert.Equal(t, res.Coordinate, report.Coordinates[i])
	}

	assert.Equal(t, map[geocode.ErrorType]int{
		geocode.ErrorTypeInvalidRequest: 1,
		geocode.ErrorTypeUnknown:        1,
		geocode.ErrorTypeNotFound:       1,
	}, report.FailuresByType())
}

func TestResolveStrictAbortsOnServiceFailure(t *testing.T) {
	quota := &geocode.GeocodingError{Type: geocode.ErrorTypeQuotaExceeded, Message: "google: REQUEST_DENIED"}

	tests := []struct {
		name      string
		strict    bool
		wantErr   bool
		wantCalls []string
		wantCoord int
	}{
		{
			name:      "strict",
			strict:    true,
			wantErr:   true,
			wantCalls: []string{"Paris", "Lima"},
			wantCoord: 1,
		},
		{
			name:      "lenient",
			strict:    false,
			wantCalls: []string{"Paris", "Lima", "Tokyo"},
			wantCoord: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := geocodetest.NewStub(map[string][2]float64{
				"Paris": {48.8566, 2.3522},
				"Tokyo": {35.6762, 139.6503},
			})
			stub.Errors["Lima"] = quota

			r := NewResolver(stub, zerolog.Nop())
			r.Strict = tt.strict

			report, err := r.Resolve(context.Background(), slices.Values([]string{"Paris", "Lima", "Tokyo"}))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, geocode.IsQuotaExceededError(err))
			} else {
				require.NoError(t, err)
			}

			require.NotNil(t, report)
			assert.Equal(t, tt.wantCalls, stub.Calls)
			assert.Len(t, report.Coordinates, tt.wantCoord)
			assert.Len(t, report.Failures, 1)
		})
	}
}

func TestResolveDelayBetweenCalls(t *testing.T) {
	stub := geocodetest.NewStub(map[string][2]float64{"a": {1, 1}, "b": {2, 2}, "c": {3, 3}})

	var slept []time.Duration

	r := NewResolver(stub, zerolog.Nop())
	r.Delay = 1500 * time.Millisecond
	r.sleep = func(_ context.Context, d time.Duration) error {
		assert.NotEmpty(t, stub.Calls, "no pause before the first call")
		slept = append(slept, d)

		return nil
	}

	_, err := r.Resolve(context.Background(), slices.Values([]string{"a", "b", "c"}))
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{1500 * time.Millisecond, 1500 * time.Millisecond}, slept)
}

func TestResolveNoDelayByDefault(t *testing.T) {
	stub := geocodetest.NewStub(map[string][2]float64{"a": {1, 1}, "b": {2, 2}})

	r := NewResolver(stub, zerolog.Nop())
	r.sleep = func(context.Context, time.Duration) error {
		t.Fatal("unexpected sleep")

		return nil
	}

	_, err := r.Resolve(context.Background(), slices.Values([]string{"a", "b"}))
	require.NoError(t, err)
}

func TestResolveCancelled(t *testing.T) {
	stub := geocodetest.NewStub(map[string][2]float64{"a": {1, 1}, "b": {2, 2}})

	ctx, cancel := context.WithCancel(context.Background())

	r := NewResolver(stub, zerolog.Nop())
	r.OnProgress = func(int, string) { cancel() }

	report, err := r.Resolve(ctx, slices.Values([]string{"a", "b"}))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a"}, stub.Calls)
	assert.Len(t, report.Coordinates, 1)
}

func TestResolveRejectsOutOfRangeAnswer(t *testing.T) {
	stub := geocodetest.NewStub(map[string][2]float64{"Paris": {48.8566, 2.3522}})
	stub.Results["Broken"] = &geocode.Result{DisplayName: "Broken", Latitude: 200, Longitude: 10}

	r := NewResolver(stub, zerolog.Nop())

	report, err := r.Resolve(context.Background(), slices.Values([]string{"Broken", "Paris"}))
	require.NoError(t, err)

	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0].Err, spatial.ErrOutOfRange)
	assert.Equal(t, []spatial.Coordinate{{Lng: 2.3522, Lat: 48.8566}}, report.Coordinates)
}

func TestResolveProgressAndMetrics(t *testing.T) {
	stub := geocodetest.NewStub(map[string][2]float64{"Paris": {48.8566, 2.3522}})

	reg := prometheus.NewRegistry()

	var seen []int

	r := NewResolver(stub, zerolog.Nop())
	r.Metrics = NewMetrics(reg)
	r.OnProgress = func(done int, _ string) { seen = append(seen, done) }

	_, err := r.Resolve(context.Background(), slices.Values([]string{"Paris", "Qwxyzstan123", "Paris"}))
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, seen)
	assert.InDelta(t, 2, testutil.ToFloat64(r.Metrics.Requests.WithLabelValues("stub", OutcomeResolved)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.Metrics.Requests.WithLabelValues("stub", "not_found")), 0)
}

func TestRun(t *testing.T) {
	records := []ner.EntityRecord{
		{Name: "Springfield", Type: "LOCATION"},
		{Name: "Acme Corp", Type: "ORGANIZATION"},
		{Name: "Paris", Type: "LOCATION"},
	}

	stub := geocodetest.NewStub(map[string][2]float64{
		"Springfield": {39.7817, -89.6501},
		"Paris":       {48.8566, 2.3522},
	})

	report, err := Run(context.Background(), slices.Values(records), ner.NewTagSet("LOCATION"), NewResolver(stub, zerolog.Nop()))
	require.NoError(t, err)

	assert.Equal(t, []string{"Springfield", "Paris"}, stub.Calls)

	want := []spatial.Coordinate{{Lng: -89.6501, Lat: 39.7817}, {Lng: 2.3522, Lat: 48.8566}}
	if diff := cmp.Diff(want, report.Coordinates); diff != "" {
		t.Errorf("Coordinates mismatch (-want +got):\n%s", diff)
	}
}
