// Package api serves stored sketches over HTTP. The surface is read-only:
// sketches are written through the persistence bridge by the editor host.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"sitesketch/internal/export"
	"sitesketch/internal/logger"
	"sitesketch/internal/metrics"
	"sitesketch/internal/persist"
	"sitesketch/internal/pricing"
	"sitesketch/internal/sketch"
	"sitesketch/internal/version"
)

// Loader hydrates stored sketches. *persist.Bridge implements it.
type Loader interface {
	Load(ctx context.Context, id string, proj sketch.PathProjector) (*persist.Loaded, error)
}

// Pricer prices a list of shapes.
type Pricer interface {
	Recalculate(ctx context.Context, shapes []*sketch.Shape) (*pricing.Estimate, error)
}

// Pinger reports whether a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wires the HTTP routes.
type Server struct {
	app    *fiber.App
	loader Loader
	pricer Pricer
	pinger Pinger
	log    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithPricer makes the estimate route price sketches on request instead of
// returning the estimate stored at save time.
func WithPricer(p Pricer) Option {
	return func(s *Server) { s.pricer = p }
}

// WithPinger makes /health/ready check the backend.
func WithPinger(p Pinger) Option {
	return func(s *Server) { s.pinger = p }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// New builds the server and registers its routes.
func New(loader Loader, opts ...Option) *Server {
	s := &Server{loader: loader, log: logger.L()}
	for _, opt := range opts {
		opt(s)
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "sitesketch " + version.Version,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	})
	s.app.Use(recover.New())
	s.app.Use(requestLogger(s.log))

	s.app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})
	s.app.Get("/health/ready", s.ready)
	s.app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	sketches := s.app.Group("/api/sketches")
	sketches.Get("/:id", s.getSketch)
	sketches.Get("/:id/measurements", s.getMeasurements)
	sketches.Get("/:id/estimate", s.getEstimate)
	sketches.Get("/:id/geojson", s.getGeoJSON)
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.log.Info("listening", "addr", addr, "version", version.Version)
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) ready(c fiber.Ctx) error {
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			s.log.Warn("readiness check failed", "err", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
	}
	return c.JSON(fiber.Map{"status": "ready"})
}

func (s *Server) load(c fiber.Ctx) (*persist.Loaded, error) {
	id := c.Params("id")
	loaded, err := s.loader.Load(c.Context(), id, nil)
	if err != nil {
		if errors.Is(err, persist.ErrNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "sketch not found")
		}
		s.log.Error("load sketch failed", "sketch_id", id, "err", err)
		return nil, fiber.NewError(fiber.StatusInternalServerError, "sketch could not be loaded")
	}
	return loaded, nil
}

type sketchResponse struct {
	*persist.Document
	Warnings []string `json:"warnings,omitempty"`
}

func (s *Server) getSketch(c fiber.Ctx) error {
	loaded, err := s.load(c)
	if err != nil {
		return errorJSON(c, err)
	}
	doc := persist.Encode(loaded.Meta, loaded.Shapes, loaded.Overlay)
	doc.Estimate = loaded.Estimate
	return c.JSON(sketchResponse{Document: doc, Warnings: loaded.Warnings})
}

func (s *Server) getMeasurements(c fiber.Ctx) error {
	loaded, err := s.load(c)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(fiber.Map{
		"id":    loaded.Meta.ID,
		"items": export.Measurements(loaded.Shapes),
	})
}

func (s *Server) getEstimate(c fiber.Ctx) error {
	loaded, err := s.load(c)
	if err != nil {
		return errorJSON(c, err)
	}
	if s.pricer == nil {
		if loaded.Estimate == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "sketch has no estimate"})
		}
		return c.JSON(fiber.Map{"estimate": loaded.Estimate, "stored": true})
	}

	est, perr := s.pricer.Recalculate(c.Context(), loaded.Shapes)
	body := fiber.Map{"estimate": est, "stored": false}
	if perr != nil {
		s.log.Warn("pricing incomplete", "sketch_id", loaded.Meta.ID, "err", perr)
		body["warnings"] = []string{perr.Error()}
		if est == nil {
			return c.Status(fiber.StatusBadGateway).JSON(body)
		}
	}
	return c.JSON(body)
}

func (s *Server) getGeoJSON(c fiber.Ctx) error {
	loaded, err := s.load(c)
	if err != nil {
		return errorJSON(c, err)
	}
	data, err := json.Marshal(export.GeoJSON(loaded.Meta, loaded.Shapes))
	if err != nil {
		return err
	}
	c.Set("Content-Type", "application/geo+json")
	return c.Send(data)
}

func errorJSON(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func requestLogger(log *slog.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
		return err
	}
}
