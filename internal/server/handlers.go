package server

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/piwi3910/RoomLoad/internal/engine"
	"github.com/piwi3910/RoomLoad/internal/export"
	"github.com/piwi3910/RoomLoad/internal/store"
)

// RunIDHeader carries the history id of a processed upload.
const RunIDHeader = "X-Run-ID"

// ============================================================
// Health Check
// ============================================================

func (s *Server) handleHealth(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": engine.Timestamp(s.now()),
		"message":   "DXF Processing API is running",
		"history":   s.runs != nil,
	})
}

// ============================================================
// Drawing Processing
// ============================================================

// handleProcess stores the upload under a random name, runs the pipeline on
// it and always removes it afterwards. Pipeline failures are still 200 with
// success=false, matching the command-line contract.
func (s *Server) handleProcess(c fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(failure("No file uploaded"))
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !slices.Contains(AllowedExtensions, ext) {
		return c.Status(fiber.StatusBadRequest).JSON(
			failure(fmt.Sprintf("Only %s files are allowed", strings.Join(AllowedExtensions, ", "))))
	}
	if file.Size > int64(s.config.MaxUploadSize) {
		return c.Status(fiber.StatusBadRequest).JSON(failure(s.tooLargeMessage()))
	}

	dest := filepath.Join(s.config.UploadDir, uuid.NewString()+ext)
	if err := c.SaveFile(file, dest); err != nil {
		s.logger.Error("failed to store upload", zap.String("file", file.Filename), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(failure("Failed to process DXF file"))
	}
	defer func() {
		if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to clean up upload", zap.String("path", dest), zap.Error(err))
		}
	}()

	log := s.logger.With(zap.String("file", file.Filename), zap.Int64("size", file.Size))
	log.Info("processing upload")

	result := s.processor.ProcessFile(dest)
	if result.Success {
		log.Info("upload processed", zap.Int("rooms", len(result.Rooms)), zap.Float64("total_load", result.TotalLoad))
	} else {
		log.Warn("upload failed", zap.String("error", result.Error))
	}

	if s.runs != nil {
		run, err := s.runs.SaveRun(file.Filename, store.SourceHTTP, result)
		if err != nil {
			log.Error("failed to record run", zap.Error(err))
		} else {
			c.Set(RunIDHeader, run.ID)
		}
	}

	return c.JSON(result)
}

func (s *Server) handleFactors(c fiber.Ctx) error {
	return c.JSON(s.processor.Table())
}

// ============================================================
// Run History
// ============================================================

func (s *Server) historyDisabled(c fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(failure("Run history is disabled"))
}

func (s *Server) handleListRuns(c fiber.Ctx) error {
	if s.runs == nil {
		return s.historyDisabled(c)
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(failure("limit must be a non-negative integer"))
		}
		limit = n
	}
	runs, err := s.runs.ListRuns(limit)
	if err != nil {
		return err
	}
	return c.JSON(runs)
}

// lookupRun writes the 404 or 503 response itself and returns ok=false when
// the run cannot be served.
func (s *Server) lookupRun(c fiber.Ctx) (store.Run, bool, error) {
	if s.runs == nil {
		return store.Run{}, false, s.historyDisabled(c)
	}
	run, err := s.runs.GetRun(c.Params("id"))
	if errors.Is(err, store.ErrNotFound) {
		return store.Run{}, false, c.Status(fiber.StatusNotFound).JSON(failure("Run not found"))
	}
	if err != nil {
		return store.Run{}, false, err
	}
	return run, true, nil
}

func (s *Server) handleGetRun(c fiber.Ctx) error {
	run, ok, err := s.lookupRun(c)
	if !ok {
		return err
	}
	return c.JSON(run)
}

func (s *Server) handleRunChart(c fiber.Ctx) error {
	run, ok, err := s.lookupRun(c)
	if !ok {
		return err
	}
	if !run.Success || len(run.Result.Rooms) == 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(failure("Run has no rooms to chart"))
	}

	opts := export.DefaultOptions()
	opts.Drawing = run.Drawing
	opts.PowerFactor = s.config.PowerFactor

	var buf bytes.Buffer
	if err := export.RenderLoadChart(&buf, run.Result, opts); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

func (s *Server) handleDeleteRun(c fiber.Ctx) error {
	if s.runs == nil {
		return s.historyDisabled(c)
	}
	err := s.runs.DeleteRun(c.Params("id"))
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(failure("Run not found"))
	}
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleNotFound(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"success": false,
		"error":   "Not Found",
		"message": fmt.Sprintf("Cannot %s %s", c.Method(), c.Path()),
	})
}
