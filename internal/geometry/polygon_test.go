package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/RoomLoad/internal/model"
)

func rect(x, y, w, h float64) model.Outline {
	return model.Outline{{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h}}
}

func rejectReason(t *testing.T, err error) model.SkipReason {
	t.Helper()
	var re *RejectError
	require.True(t, errors.As(err, &re), "expected *RejectError, got %v", err)
	return re.Reason
}

// ─── BuildPolygon Tests ────────────────────────────────────

func TestBuildPolygon_ClosesOpenRing(t *testing.T) {
	p, err := BuildPolygon(rect(0, 0, 4, 3), 1.0)
	require.NoError(t, err)

	assert.Len(t, p.Vertices, 5)
	assert.True(t, p.Vertices.Closed(), "first vertex must equal last vertex")
	assert.InDelta(t, 12.0, p.Area, 1e-9)
}

func TestBuildPolygon_AlreadyClosed(t *testing.T) {
	ring := append(rect(0, 0, 4, 3), model.Point2D{X: 0, Y: 0})
	p, err := BuildPolygon(ring, 1.0)
	require.NoError(t, err)

	assert.Len(t, p.Vertices, 5, "an already closed ring must not be closed twice")
	assert.InDelta(t, 12.0, p.Area, 1e-9)
}

func TestBuildPolygon_ClockwiseAreaIsPositive(t *testing.T) {
	cw := model.Outline{{X: 0, Y: 0}, {X: 0, Y: 5}, {X: 2, Y: 5}, {X: 2, Y: 0}}
	p, err := BuildPolygon(cw, 1.0)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, p.Area, 1e-9)
}

func TestBuildPolygon_DoesNotMutateInput(t *testing.T) {
	in := rect(0, 0, 4, 3)
	_, err := BuildPolygon(in, 1.0)
	require.NoError(t, err)
	assert.Len(t, in, 4)
}

func TestBuildPolygon_Rejections(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name     string
		vertices model.Outline
		reason   model.SkipReason
	}{
		{"two vertices", model.Outline{{X: 0, Y: 0}, {X: 5, Y: 5}}, model.RejectTooFewVertices},
		{"empty", nil, model.RejectTooFewVertices},
		{"repeated points", model.Outline{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 5, Y: 0}, {X: 0, Y: 0}}, model.RejectDegenerate},
		{"nan vertex", model.Outline{{X: 0, Y: 0}, {X: nan, Y: 0}, {X: 5, Y: 5}}, model.RejectNonFinite},
		{"bowtie", model.Outline{{X: 0, Y: 0}, {X: 4, Y: 4}, {X: 4, Y: 0}, {X: 0, Y: 4}}, model.RejectSelfIntersecting},
		{"collinear", model.Outline{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 4, Y: 0}}, model.RejectSelfIntersecting},
		{"spike", model.Outline{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 4, Y: 8}, {X: 4, Y: 2}, {X: 0, Y: 4}}, model.RejectSelfIntersecting},
		{"furniture outline", rect(0, 0, 0.5, 0.5), model.RejectBelowMinArea},
		{"exactly one square meter", rect(0, 0, 1, 1), model.RejectBelowMinArea},
		{"area overflows", rect(0, 0, 1e200, 1e200), model.RejectNonFinite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildPolygon(tt.vertices, 1.0)
			require.Error(t, err)
			assert.Equal(t, tt.reason, rejectReason(t, err))
		})
	}
}

func TestBuildPolygon_BelowMinAreaCarriesArea(t *testing.T) {
	_, err := BuildPolygon(rect(0, 0, 0.5, 1), 1.0)
	var re *RejectError
	require.True(t, errors.As(err, &re))
	assert.InDelta(t, 0.5, re.Area, 1e-9)
	assert.Contains(t, re.Error(), "area below minimum")
}

func TestBuildPolygon_JustAboveMinArea(t *testing.T) {
	p, err := BuildPolygon(rect(0, 0, 1.01, 1), 1.0)
	require.NoError(t, err)
	assert.Greater(t, p.Area, 1.0)
}

func TestBuildPolygon_ConcaveRoom(t *testing.T) {
	// L-shaped room: 6x6 square minus a 3x3 corner = 27
	l := model.Outline{{X: 0, Y: 0}, {X: 6, Y: 0}, {X: 6, Y: 3}, {X: 3, Y: 3}, {X: 3, Y: 6}, {X: 0, Y: 6}}
	p, err := BuildPolygon(l, 1.0)
	require.NoError(t, err)
	assert.InDelta(t, 27.0, p.Area, 1e-9)
}

func TestArea_OpenAndClosedAgree(t *testing.T) {
	open := rect(1, 1, 3, 2)
	closed := append(append(model.Outline{}, open...), open[0])
	assert.InDelta(t, 6.0, Area(open), 1e-9)
	assert.InDelta(t, 6.0, Area(closed), 1e-9)
	assert.Equal(t, 0.0, Area(model.Outline{{X: 0, Y: 0}}))
}

// ─── Containment Tests ─────────────────────────────────────

func TestContainsStrict(t *testing.T) {
	p, err := BuildPolygon(rect(0, 0, 10, 10), 1.0)
	require.NoError(t, err)
	region := NewRegion(p)

	tests := []struct {
		name string
		pt   model.Point2D
		want bool
	}{
		{"center", model.Point2D{X: 5, Y: 5}, true},
		{"near corner", model.Point2D{X: 0.001, Y: 0.001}, true},
		{"outside", model.Point2D{X: 11, Y: 5}, false},
		{"on edge", model.Point2D{X: 0, Y: 5}, false},
		{"on top edge", model.Point2D{X: 3, Y: 10}, false},
		{"on vertex", model.Point2D{X: 10, Y: 10}, false},
		{"far away", model.Point2D{X: -50, Y: -50}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, region.ContainsStrict(tt.pt))
		})
	}
}

func TestContainsStrict_ConcaveNotch(t *testing.T) {
	l := model.Outline{{X: 0, Y: 0}, {X: 6, Y: 0}, {X: 6, Y: 3}, {X: 3, Y: 3}, {X: 3, Y: 6}, {X: 0, Y: 6}}
	p, err := BuildPolygon(l, 1.0)
	require.NoError(t, err)

	assert.True(t, ContainsStrict(p, model.Point2D{X: 1, Y: 5}))
	assert.False(t, ContainsStrict(p, model.Point2D{X: 5, Y: 5}), "point in the notch is outside the L")
}
