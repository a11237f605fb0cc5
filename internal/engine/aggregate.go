package engine

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/piwi3910/RoomLoad/internal/model"
)

// TimestampLayout renders UTC instants with millisecond precision and a Z
// suffix, e.g. 2026-03-01T09:30:00.000Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp formats t in UTC using TimestampLayout.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Aggregator builds Room records and the building total.
type Aggregator struct {
	estimator *Estimator
	rooms     []model.Room
	total     float64
}

func NewAggregator(estimator *Estimator) *Aggregator {
	return &Aggregator{estimator: estimator}
}

// Add estimates the loads of a resolved room and appends it. The running
// total accumulates the unrounded room total; the room's fields are rounded
// to two decimals.
func (a *Aggregator) Add(r ResolvedRoom) model.Room {
	est := a.estimator.Estimate(r.Polygon.Area, r.Type)
	a.total += est.Total

	room := model.Room{
		ID:           r.ID,
		Name:         r.Name,
		Type:         r.Type,
		Area:         round2(r.Polygon.Area),
		LightingLoad: round2(est.Lighting),
		SocketsLoad:  round2(est.Sockets),
		TotalLoad:    round2(est.Total),
		Outline:      r.Polygon.Vertices,
		Anchor:       r.Anchor,
	}
	a.rooms = append(a.rooms, room)
	return room
}

// Result returns a successful Result with the rounded building total.
func (a *Aggregator) Result(now time.Time) model.Result {
	rooms := a.rooms
	if rooms == nil {
		rooms = []model.Room{}
	}
	return model.Result{
		Success:   true,
		Rooms:     rooms,
		TotalLoad: round2(a.total),
		Timestamp: Timestamp(now),
	}
}

// Failure returns a failure Result carrying the error text and no rooms.
func Failure(err error, now time.Time) model.Result {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return model.Result{Success: false, Error: msg, Timestamp: Timestamp(now)}
}

// round2 rounds half away from zero to two decimals.
func round2(v float64) float64 {
	return scalar.Round(v, 2)
}

// SumTotals adds the rounded totals of the given rooms.
func SumTotals(rooms []model.Room) float64 {
	totals := make([]float64, len(rooms))
	for i, r := range rooms {
		totals[i] = r.TotalLoad
	}
	return round2(floats.Sum(totals))
}
