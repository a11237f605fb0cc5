package engine

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/piwi3910/RoomLoad/internal/geometry"
	"github.com/piwi3910/RoomLoad/internal/importer"
	"github.com/piwi3910/RoomLoad/internal/model"
)

// Processor runs the whole pipeline for one drawing at a time. It holds no
// per-run state and is safe for concurrent use.
type Processor struct {
	table    model.LoadFactorTable
	settings model.Settings
	logger   *zap.Logger
	now      func() time.Time
}

// NewProcessor creates a processor. A nil logger disables logging.
func NewProcessor(table model.LoadFactorTable, settings model.Settings, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{table: table, settings: settings, logger: logger, now: time.Now}
}

// WithClock returns a copy of the processor that stamps results using now.
func (p *Processor) WithClock(now func() time.Time) *Processor {
	cp := *p
	cp.now = now
	return &cp
}

// Settings returns the thresholds in use.
func (p *Processor) Settings() model.Settings {
	return p.settings
}

// Table returns the load-factor table in use.
func (p *Processor) Table() model.LoadFactorTable {
	return p.table
}

// ReadEntities loads a drawing. Files ending in .json are read as entity
// streams, everything else as DXF.
func ReadEntities(path string) ([]model.DrawingEntity, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return importer.ReadEntitiesFile(path)
	}
	return importer.ReadDXF(path)
}

// ProcessFile reads and processes a drawing. Every failure, including a
// panic inside the pipeline, is returned as a failure Result.
func (p *Processor) ProcessFile(path string) (result model.Result) {
	log := p.logger.With(zap.String("file", filepath.Base(path)))
	defer p.recoverInto(&result, log)

	entities, err := ReadEntities(path)
	if err != nil {
		log.Warn("cannot read drawing", zap.Error(err))
		return Failure(err, p.now())
	}
	return p.run(entities, log)
}

// ProcessEntities processes an already parsed entity stream.
func (p *Processor) ProcessEntities(entities []model.DrawingEntity) (result model.Result) {
	defer p.recoverInto(&result, p.logger)
	return p.run(entities, p.logger)
}

func (p *Processor) recoverInto(result *model.Result, log *zap.Logger) {
	if r := recover(); r != nil {
		log.Error("pipeline panic", zap.Any("panic", r))
		*result = Failure(fmt.Errorf("internal error: %v", r), p.now())
	}
}

func (p *Processor) run(entities []model.DrawingEntity, log *zap.Logger) model.Result {
	ex := importer.Extract(entities)

	var diag model.Diagnostics
	diag.SkippedEntities = ex.Skipped

	boundaries := ex.Boundaries
	if p.settings.ChainLines {
		outlines, unused := importer.ChainSegments(ex.Lines, p.settings.ChainTolerance)
		boundaries = append(boundaries, outlines...)
		for _, idx := range unused {
			diag.SkippedEntities = append(diag.SkippedEntities, lineSkip(entities, idx))
		}
	} else {
		for _, l := range ex.Lines {
			diag.SkippedEntities = append(diag.SkippedEntities, lineSkip(entities, l.Index))
		}
	}
	sort.SliceStable(diag.SkippedEntities, func(i, j int) bool {
		return diag.SkippedEntities[i].Index < diag.SkippedEntities[j].Index
	})

	polygons := make([]model.CandidatePolygon, 0, len(boundaries))
	for i, b := range boundaries {
		poly, err := geometry.BuildPolygon(b, p.settings.MinRoomArea)
		if err != nil {
			var re *geometry.RejectError
			if !errors.As(err, &re) {
				return Failure(fmt.Errorf("boundary %d: %w", i, err), p.now())
			}
			diag.RejectedPolygons = append(diag.RejectedPolygons, model.PolygonReject{Source: i, Reason: re.Reason, Area: re.Area})
			continue
		}
		poly.Source = i
		polygons = append(polygons, poly)
	}

	resolution := NewResolver(p.settings).Resolve(polygons, ex.Labels)
	diag.DroppedBoundaries = resolution.Dropped

	agg := NewAggregator(NewEstimator(p.table))
	for _, r := range resolution.Rooms {
		agg.Add(r)
	}

	result := agg.Result(p.now())
	if math.IsInf(result.TotalLoad, 0) || math.IsNaN(result.TotalLoad) {
		return Failure(errors.New("estimated load is out of range"), p.now())
	}
	result.Diagnostics = diag

	for _, line := range diag.Lines() {
		log.Debug("skipped", zap.String("detail", line))
	}
	log.Info("drawing processed",
		zap.Int("entities", len(entities)),
		zap.Int("labels", len(ex.Labels)),
		zap.Int("boundaries", len(boundaries)),
		zap.Int("polygons", len(polygons)),
		zap.Int("rooms", len(result.Rooms)),
		zap.Float64("total_load", result.TotalLoad),
	)
	return result
}

func lineSkip(entities []model.DrawingEntity, idx int) model.EntitySkip {
	skip := model.EntitySkip{Index: idx, Type: "LINE", Reason: model.SkipUnsupported}
	if idx >= 0 && idx < len(entities) {
		skip.Type = entities[idx].Type
		skip.Handle = entities[idx].Handle
	}
	return skip
}
