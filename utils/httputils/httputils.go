// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package httputils builds the HTTP clients used to talk to geocoding services.
package httputils

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"strings"
	"time"
)

// ClientOptions configures NewClient.
type ClientOptions struct {
	// UserAgent is sent on every request. Nominatim rejects requests without one.
	UserAgent string

	// Timeout for the whole request, 0 means 10 seconds.
	Timeout time.Duration

	// Trace, when not nil, receives a dump of every request and response.
	Trace io.Writer

	// TraceBody includes response bodies in the trace.
	TraceBody bool
}

// NewClient returns an http.Client with a logging transport and fixed headers.
func NewClient(opts ClientOptions) *http.Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          4,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       30 * time.Second,
		ResponseHeaderTimeout: timeout,
	}

	headers := map[string]string{"Accept": "application/json"}
	if opts.UserAgent != "" {
		headers["User-Agent"] = opts.UserAgent
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &AppendRequestHeadersRoundTripper{
			Headers: headers,
			Transport: &LoggingRoundTripper{
				Writer:    opts.Trace,
				DumpBody:  opts.TraceBody,
				Transport: transport,
			},
		},
	}
}

/////////////////////////////////////////
/// RoundTrippers

// LoggingRoundTripper dumps requests and responses to Writer.
type LoggingRoundTripper struct {
	Transport http.RoundTripper
	Writer    io.Writer
	DumpBody  bool
}

// prefixes each line and trims long dumps.
func abbreviate(lines []string, prefix rune) []string {
	const maxLines, maxChars = 256, 512

	if len(lines) > maxLines {
		lines = append(lines[:maxLines], "…")
	}

	for i, line := range lines {
		if len(line) > maxChars {
			line = line[:maxChars] + "…"
		}

		lines[i] = fmt.Sprintf("%c %s", prefix, line)
	}

	return lines
}

func (t *LoggingRoundTripper) write(dump []byte, prefix rune) error {
	lines := abbreviate(strings.Split(string(dump), "\n"), prefix)
	lines = append(lines, "")
	_, err := fmt.Fprint(t.Writer, strings.Join(lines, "\n"))

	return err
}

// RoundTrip implements the http.RoundTripper interface.
func (t *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Writer == nil {
		return t.Transport.RoundTrip(req)
	}

	dump, err := httputil.DumpRequestOut(req, true)
	if err != nil {
		return nil, fmt.Errorf("tracing HTTP request: %w", err)
	}

	if err := t.write(dump, '>'); err != nil {
		return nil, err
	}

	start := time.Now()

	resp, err := t.Transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	dump, err = httputil.DumpResponse(resp, t.DumpBody)
	if err != nil {
		return nil, fmt.Errorf("tracing HTTP response: %w", err)
	}

	if _, err := fmt.Fprintf(t.Writer, "< RESPONSE: [%v]\n", time.Since(start)); err != nil {
		return nil, err
	}

	if err := t.write(dump, '<'); err != nil {
		return nil, err
	}

	return resp, nil
}

// AppendRequestHeadersRoundTripper adds headers to the request.
type AppendRequestHeadersRoundTripper struct {
	Transport http.RoundTripper
	Headers   map[string]string
}

// RoundTrip implements the http.RoundTripper interface.
func (t *AppendRequestHeadersRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.Headers {
		req.Header.Set(k, v)
	}

	return t.Transport.RoundTrip(req)
}
