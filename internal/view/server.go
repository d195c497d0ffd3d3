// Package view serves the derived dashboard state as read-only JSON so a
// browser front end can render it.
package view

import (
	"context"
	"strconv"
	"time"

	"codeberg.org/mutker/thermosense/internal/history"
	"codeberg.org/mutker/thermosense/internal/logger"
	"codeberg.org/mutker/thermosense/internal/orchestrator"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const (
	defaultHistoryLimit = 30
	shutdownTimeout     = 5 * time.Second
)

var validate = validator.New()

// StateSource exposes the orchestrator state.
type StateSource interface {
	State() orchestrator.State
}

type Options struct {
	PollInterval time.Duration
	Clock        func() time.Time
	Logger       logger.Logger
}

type Server struct {
	app     *fiber.App
	source  StateSource
	history history.Recorder
	opts    Options
}

func New(source StateSource, rec history.Recorder, opts Options) *Server {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "thermosense",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	s := &Server{
		app:     app,
		source:  source,
		history: rec,
		opts:    opts,
	}

	app.Use(recover.New())
	app.Use(s.logRequests)
	s.registerRoutes()

	return s
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.opts.Logger.Info().Str("addr", addr).Msg("View endpoint listening")
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerRoutes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "thermosense",
		})
	})

	v1 := s.app.Group("/api/v1")
	v1.Get("/state", s.getState)
	v1.Get("/history", s.getHistory)
}

func (s *Server) getState(c *fiber.Ctx) error {
	state := s.source.State()
	if state.Stats == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "no telemetry received yet")
	}

	return c.JSON(Build(state, s.opts.Clock(), s.opts.PollInterval))
}

type historyQuery struct {
	Limit int `validate:"gte=1,lte=1000"`
}

func (s *Server) getHistory(c *fiber.Ctx) error {
	q := historyQuery{Limit: defaultHistoryLimit}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "limit must be an integer")
		}
		q.Limit = limit
	}
	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if s.history == nil {
		return c.JSON(fiber.Map{"points": []history.Point{}})
	}

	points, err := s.history.Recent(c.UserContext(), q.Limit)
	if err != nil {
		s.opts.Logger.Warn().Err(err).Msg("Failed to read history")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to read history")
	}
	if points == nil {
		points = []history.Point{}
	}

	return c.JSON(fiber.Map{"points": points})
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	s.opts.Logger.Debug().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("latency", time.Since(start)).
		Msg("Handled request")

	return err
}
