// Package httpapi serves the normalization pipeline over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/hurttlocker/chartmerge/internal/extract"
	"github.com/hurttlocker/chartmerge/internal/ingest"
	"github.com/hurttlocker/chartmerge/internal/normalize"
	"github.com/hurttlocker/chartmerge/internal/notes"
	"github.com/hurttlocker/chartmerge/internal/registry"
)

// Server provides HTTP endpoints for the pipeline.
type Server struct {
	echo     *echo.Echo
	pipeline *normalize.Pipeline
	gatherer prometheus.Gatherer
	maxBytes int64
	log      zerolog.Logger
	version  string
}

// Config holds server settings.
type Config struct {
	MaxBodyBytes int64               // default ingest.DefaultMaxBytes
	Gatherer     prometheus.Gatherer // nil disables /metrics
	Logger       zerolog.Logger
	Version      string
}

// NewServer creates a server around p.
func NewServer(p *normalize.Pipeline, cfg Config) (*Server, error) {
	if p == nil {
		return nil, fmt.Errorf("pipeline cannot be nil")
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = ingest.DefaultMaxBytes
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(Recovery(cfg.Logger))
	e.Use(echomw.RequestID())
	e.Use(Logger(cfg.Logger))
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dB", cfg.MaxBodyBytes)))

	s := &Server{
		echo:     e,
		pipeline: p,
		gatherer: cfg.Gatherer,
		maxBytes: cfg.MaxBodyBytes,
		log:      cfg.Logger,
		version:  cfg.Version,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.handleHealth)
	if s.gatherer != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	v1 := s.echo.Group("/v1")
	v1.POST("/normalize", s.handleNormalize)
	v1.POST("/sections", s.handleSections)
	v1.POST("/classify", s.handleClassify)
	v1.GET("/registry", s.handleRegistry)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// TextRequest is the JSON body accepted by the POST endpoints. A
// text/plain body is accepted as Text with no mode.
type TextRequest struct {
	Text string `json:"text"`
	Mode string `json:"mode,omitempty"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Registry string `json:"registry"`
}

// RegistryResponse is the body of GET /v1/registry.
type RegistryResponse struct {
	Version string           `json:"version"`
	Entries []registry.Entry `json:"entries"`
}

// ClassifyResponse is the body of POST /v1/classify.
type ClassifyResponse struct {
	Counts map[notes.Kind]int `json:"counts"`
	Notes  []notes.Note       `json:"notes"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: s.version, Registry: s.pipeline.Registry().Version()})
}

func (s *Server) handleRegistry(c echo.Context) error {
	reg := s.pipeline.Registry()
	return c.JSON(http.StatusOK, RegistryResponse{Version: reg.Version(), Entries: reg.Entries()})
}

func (s *Server) handleNormalize(c echo.Context) error {
	req, err := s.bindText(c)
	if err != nil {
		return err
	}
	mode, err := normalize.ParseMode(req.Mode)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := s.pipeline.RunMode(c.Request().Context(), req.Text, mode)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "request canceled")
		}
		return err
	}

	if wantsText(c) {
		return c.String(http.StatusOK, res.Document.Text)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleSections(c echo.Context) error {
	req, err := s.bindText(c)
	if err != nil {
		return err
	}
	rep := s.pipeline.Agent().Extract(ingest.Clean(req.Text))
	if rep.Sections == nil {
		rep.Sections = []extract.Section{}
	}
	return c.JSON(http.StatusOK, rep)
}

func (s *Server) handleClassify(c echo.Context) error {
	req, err := s.bindText(c)
	if err != nil {
		return err
	}
	res := s.pipeline.Classifier().Classify(ingest.Clean(req.Text))
	all := res.All()
	return c.JSON(http.StatusOK, ClassifyResponse{Counts: res.Counts(), Notes: all})
}

// bindText reads a JSON TextRequest or a text/plain body.
func (s *Server) bindText(c echo.Context) (TextRequest, error) {
	var req TextRequest
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ct, echo.MIMETextPlain) {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return req, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")
		}
		req.Text = string(body)
	} else if err := c.Bind(&req); err != nil {
		s.log.Warn().Err(err).Msg("invalid request body")
		return req, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return req, echo.NewHTTPError(http.StatusBadRequest, "text field is required")
	}
	return req, nil
}

func wantsText(c echo.Context) bool {
	accept := c.Request().Header.Get(echo.HeaderAccept)
	return strings.HasPrefix(accept, echo.MIMETextPlain) || c.QueryParam("format") == "text"
}

// Start listens on addr.
func (s *Server) Start(addr string) error {
	s.log.Info().Str("addr", addr).Msg("starting http server")
	return s.echo.Start(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down http server")
	return s.echo.Shutdown(ctx)
}
