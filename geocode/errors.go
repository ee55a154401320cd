// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrNotFound is wrapped by every "no match" failure.
var ErrNotFound = errors.New("location not found")

// GeocodingError describes a failed lookup.
type GeocodingError struct {
	Type    ErrorType
	Message string
	Err     error
}

// ErrorType classifies geocoding failures.
type ErrorType int

const (
	// ErrorTypeUnknown unclassified failure.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeRateLimit the provider throttled us.
	ErrorTypeRateLimit
	// ErrorTypeQuotaExceeded quota exhausted or credentials rejected.
	ErrorTypeQuotaExceeded
	// ErrorTypeTimeout the request timed out.
	ErrorTypeTimeout
	// ErrorTypeNotFound the query has no match.
	ErrorTypeNotFound
	// ErrorTypeInvalidRequest the query was rejected as malformed or ambiguous.
	ErrorTypeInvalidRequest
	// ErrorTypeNetworkError transport failure or provider unavailable.
	ErrorTypeNetworkError
)

var errorTypeNames = map[ErrorType]string{
	ErrorTypeUnknown:        "unknown",
	ErrorTypeRateLimit:      "rate_limit",
	ErrorTypeQuotaExceeded:  "quota_exceeded",
	ErrorTypeTimeout:        "timeout",
	ErrorTypeNotFound:       "not_found",
	ErrorTypeInvalidRequest: "invalid_request",
	ErrorTypeNetworkError:   "network_error",
}

func (t ErrorType) String() string {
	if s, ok := errorTypeNames[t]; ok {
		return s
	}

	return fmt.Sprintf("ErrorType(%d)", int(t))
}

// ServiceFailure reports whether the failure is about the service or our access
// to it rather than about the query itself. Such failures will likely repeat for
// every following query.
func (t ErrorType) ServiceFailure() bool {
	switch t {
	case ErrorTypeRateLimit, ErrorTypeQuotaExceeded, ErrorTypeTimeout, ErrorTypeNetworkError:
		return true
	default:
		return false
	}
}

func (e *GeocodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *GeocodingError) Unwrap() error {
	return e.Err
}

func notFound(query string) *GeocodingError {
	return &GeocodingError{
		Type:    ErrorTypeNotFound,
		Message: fmt.Sprintf("no results for %q", query),
		Err:     ErrNotFound,
	}
}

// Classify returns the ErrorType of err.
func Classify(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}

	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return ErrorTypeNotFound
	case IsTimeoutError(err):
		return ErrorTypeTimeout
	case IsRateLimitError(err):
		return ErrorTypeRateLimit
	case IsQuotaExceededError(err):
		return ErrorTypeQuotaExceeded
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorTypeNetworkError
	}

	return ErrorTypeUnknown
}

// IsNotFoundError reports whether the query simply has no match.
func IsNotFoundError(err error) bool {
	return Classify(err) == ErrorTypeNotFound
}

// IsRateLimitError reports whether err is a rate limit failure.
func IsRateLimitError(err error) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeRateLimit
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429")
}

// IsQuotaExceededError reports whether err is a quota or credentials failure.
func IsQuotaExceededError(err error) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeQuotaExceeded
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "over_query_limit") ||
		strings.Contains(errStr, "quota exceeded")
}

// IsTimeoutError reports whether err is a timeout.
func IsTimeoutError(err error) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeTimeout
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// ClassifyHTTPError maps an unexpected HTTP status to a GeocodingError.
func ClassifyHTTPError(statusCode int, provider string) *GeocodingError {
	switch statusCode {
	case http.StatusTooManyRequests:
		return &GeocodingError{
			Type:    ErrorTypeRateLimit,
			Message: provider + ": rate limit reached",
		}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &GeocodingError{
			Type:    ErrorTypeQuotaExceeded,
			Message: provider + ": quota exceeded or access denied",
		}
	case http.StatusBadRequest:
		return &GeocodingError{
			Type:    ErrorTypeInvalidRequest,
			Message: provider + ": invalid request",
		}
	case http.StatusNotFound:
		return &GeocodingError{
			Type:    ErrorTypeNotFound,
			Message: provider + ": location not found",
			Err:     ErrNotFound,
		}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &GeocodingError{
			Type:    ErrorTypeNetworkError,
			Message: fmt.Sprintf("%s: service unavailable (status %d)", provider, statusCode),
		}
	default:
		return &GeocodingError{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("%s: HTTP error %d", provider, statusCode),
		}
	}
}

// transportError wraps a failed HTTP round trip.
func transportError(provider string, err error) *GeocodingError {
	t := ErrorTypeNetworkError
	if IsTimeoutError(err) {
		t = ErrorTypeTimeout
	}

	return &GeocodingError{
		Type:    t,
		Message: provider + ": request failed",
		Err:     err,
	}
}
