// Package geo measures mission routes.
package geo

import (
	"math"

	"github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"

	"github.com/sourceplane/wpmlkit/internal/model"
)

// RouteLength returns the length in metres of the polyline through the
// given WGS84 positions. Positions are projected to web mercator and the
// planar length is corrected by the mercator scale at the route's mean
// latitude, which is accurate for mission-sized routes.
func RouteLength(positions []model.Position) float64 {
	if len(positions) < 2 {
		return 0
	}

	toMercator := wgs84.EPSG().Transform(4326, 3857)
	coords := make([]float64, 0, len(positions)*2)
	var latSum float64
	for _, p := range positions {
		x, y, _ := toMercator(p.Lon, p.Lat, 0)
		coords = append(coords, x, y)
		latSum += p.Lat
	}

	seq := geom.NewSequence(coords, geom.DimXY)
	ls, err := geom.NewLineString(seq)
	if err != nil {
		return 0
	}
	meanLat := latSum / float64(len(positions))
	return ls.Length() * math.Cos(meanLat*math.Pi/180)
}

// Summarize computes display figures for a route. hoverSeconds is the hover
// added at every waypoint by the active policy.
func Summarize(positions []model.Position, groups int, speed float64, hoverSeconds int) model.Summary {
	s := model.Summary{
		Waypoints:    len(positions),
		ActionGroups: groups,
		RouteLengthM: RouteLength(positions),
		SpeedMS:      speed,
		HoverSeconds: hoverSeconds,
	}
	if speed > 0 {
		s.EstimatedSeconds = s.RouteLengthM / speed
	}
	s.EstimatedSeconds += float64(hoverSeconds * len(positions))
	return s
}
