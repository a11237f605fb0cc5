// Package server exposes the room-load pipeline over HTTP: drawings are
// uploaded as multipart files, processed, optionally recorded in the run
// history, and returned as the result JSON.
package server

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"go.uber.org/zap"

	"github.com/piwi3910/RoomLoad/internal/engine"
	"github.com/piwi3910/RoomLoad/internal/model"
	"github.com/piwi3910/RoomLoad/internal/store"
)

// AllowedExtensions lists the upload file types the service accepts.
var AllowedExtensions = []string{".dxf", ".json"}

// multipartOverhead is added to the upload limit so the request body limit
// never rejects a file the handler would accept.
const multipartOverhead = 64 * 1024

// Server wires the processor and the optional run history into a fiber app.
type Server struct {
	app       *fiber.App
	processor *engine.Processor
	runs      *store.Store
	config    model.AppConfig
	logger    *zap.Logger
	now       func() time.Time
}

// New creates the upload directory and builds the HTTP app. runs may be nil
// to disable history; logger may be nil.
func New(config model.AppConfig, processor *engine.Processor, runs *store.Store, log *zap.Logger) (*Server, error) {
	if processor == nil {
		return nil, errors.New("server needs a processor")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(config.UploadDir, 0755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	s := &Server{
		processor: processor,
		runs:      runs,
		config:    config,
		logger:    log.Named("http"),
		now:       time.Now,
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "RoomLoad API",
		BodyLimit:    config.MaxUploadSize + multipartOverhead,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: s.handleError,
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	s.app.Use(recover.New())
	s.app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: config.CORSOrigins,
		AllowMethods: []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodDelete, fiber.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
	}))

	// ============================================================
	// Routes
	// ============================================================

	api := s.app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Post("/process-dxf", s.handleProcess)
	api.Get("/factors", s.handleFactors)
	api.Get("/runs", s.handleListRuns)
	api.Get("/runs/:id", s.handleGetRun)
	api.Get("/runs/:id/chart", s.handleRunChart)
	api.Delete("/runs/:id", s.handleDeleteRun)

	s.app.Use(s.handleNotFound)

	return s, nil
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on the configured port until Shutdown.
func (s *Server) Listen() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.logger.Info("listening",
		zap.String("addr", addr),
		zap.String("upload_dir", s.config.UploadDir),
		zap.Bool("history", s.runs != nil))
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// failure is the error body used for every non-pipeline error.
func failure(message string) fiber.Map {
	return fiber.Map{"success": false, "error": message}
}

// handleError maps fiber errors to the JSON error body. An oversized body is
// reported as a client error like any other rejected upload.
func (s *Server) handleError(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}
	if code == fiber.StatusRequestEntityTooLarge {
		code = fiber.StatusBadRequest
		message = s.tooLargeMessage()
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(code).JSON(failure(message))
}

func (s *Server) tooLargeMessage() string {
	return fmt.Sprintf("File too large. Maximum size is %gMB", float64(s.config.MaxUploadSize)/(1024*1024))
}
