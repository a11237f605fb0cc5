package export

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/piwi3910/RoomLoad/internal/model"
)

// RoomsGeoJSON builds a FeatureCollection with one Polygon feature per room
// that still carries its outline. Coordinates are drawing units, not WGS84.
// Each feature's properties hold the room's contract fields plus its kVA.
func RoomsGeoJSON(result model.Result, opts Options) (*geojson.FeatureCollection, error) {
	if err := checkResult(result); err != nil {
		return nil, err
	}

	fc := geojson.NewFeatureCollection()
	for _, r := range result.Rooms {
		if len(r.Outline) < 4 {
			continue
		}
		ring := r.Outline.Ring()
		if !ring.Closed() {
			ring = append(ring, ring[0])
		}
		f := geojson.NewFeature(orb.Polygon{ring})
		f.ID = r.ID
		f.Properties["id"] = r.ID
		f.Properties["name"] = r.Name
		f.Properties["type"] = r.Type
		f.Properties["area"] = r.Area
		f.Properties["lightingLoad"] = r.LightingLoad
		f.Properties["socketsLoad"] = r.SocketsLoad
		f.Properties["totalLoad"] = r.TotalLoad
		f.Properties["kva"] = opts.kva(r.TotalLoad)
		if r.Anchor != nil {
			f.Properties["labelAnchor"] = []float64{r.Anchor.X, r.Anchor.Y}
		}
		fc.Append(f)
	}
	fc.ExtraMembers = geojson.Properties{
		"totalLoad": result.TotalLoad,
		"timestamp": result.Timestamp,
	}
	if opts.Drawing != "" {
		fc.ExtraMembers["drawing"] = opts.Drawing
	}
	return fc, nil
}

// WriteGeoJSON writes RoomsGeoJSON to path.
func WriteGeoJSON(path string, result model.Result, opts Options) error {
	fc, err := RoomsGeoJSON(result, opts)
	if err != nil {
		return err
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode geojson: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
