// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// DefaultAddr is where Serve listens unless told otherwise.
const DefaultAddr = "localhost:8080"

// Server publishes a map over HTTP.
type Server struct {
	m      *Map
	logger zerolog.Logger
	engine *gin.Engine
}

// NewServer builds the routes. gatherer backs /metrics and may be nil.
func NewServer(m *Map, gatherer prometheus.Gatherer, logger zerolog.Logger) *Server {
	s := &Server{m: m, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog)

	r.GET("/", s.mapView)
	r.GET("/map.geojson", s.geoJSON)
	r.GET("/api/markers", s.markers)

	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	s.engine = r

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)

	go func() {
		s.logger.Info().Str("addr", "http://"+addr).Msg("serving map")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serving map: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving map: %w", err)
	}

	return nil
}

func (s *Server) accessLog(ctx *gin.Context) {
	start := time.Now()

	ctx.Next()

	s.logger.Debug().
		Str("method", ctx.Request.Method).
		Str("path", ctx.Request.URL.Path).
		Int("status", ctx.Writer.Status()).
		Dur("elapsed", time.Since(start)).
		Msg("http request")
}

func (s *Server) render(ctx *gin.Context, r Renderer) {
	var buf bytes.Buffer
	if err := r.Render(&buf, s.m); err != nil {
		s.logger.Error().Err(err).Msg("rendering map")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.Data(http.StatusOK, r.ContentType(), buf.Bytes())
}

func (s *Server) mapView(ctx *gin.Context) {
	s.render(ctx, &HTML{GeoJSONURL: "map.geojson"})
}

func (s *Server) geoJSON(ctx *gin.Context) {
	s.render(ctx, GeoJSON{})
}

func (s *Server) markers(ctx *gin.Context) {
	markers := s.m.Points
	if markers == nil {
		markers = []Marker{}
	}

	ctx.JSON(http.StatusOK, markers)
}
