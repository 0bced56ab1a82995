package school

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"sekolahku/core"
)

var ErrInvalidCoordinates = errors.New("invalid coordinates")

// DefaultNearbyLimit is how many schools a proximity query returns when the
// caller does not ask for a specific count.
const DefaultNearbyLimit = 5

const earthRadiusKm = 6371.0

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c Coordinates) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) ||
		c.Lat < -90 || c.Lat > 90 || c.Lng < -180 || c.Lng > 180 {
		return core.NewValidationError(
			ErrInvalidCoordinates,
			core.FieldError{Field: "lat", Error: "latitude must be within [-90, 90]"},
			core.FieldError{Field: "lng", Error: "longitude must be within [-180, 180]"},
		)
	}
	return nil
}

// Ranked is a School annotated with its great-circle distance from a query
// point, in kilometers rounded to 2 decimal places.
type Ranked struct {
	School
	DistanceKm float64 `json:"distance_km"`
}

// Nearest ranks candidates by great-circle distance from origin and returns
// the `limit` closest (DefaultNearbyLimit when limit <= 0). Candidates without
// coordinates are skipped rather than treated as errors. Ties on the rounded
// distance order by school ID so results are stable across calls.
func Nearest(origin Coordinates, candidates []School, limit int) ([]Ranked, error) {
	if err := origin.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultNearbyLimit
	}

	ranked := make([]Ranked, 0, len(candidates))
	for _, sch := range candidates {
		if !sch.HasCoordinates() {
			continue
		}
		dist := haversineKm(origin, Coordinates{Lat: sch.Lat.Float64, Lng: sch.Lng.Float64})
		ranked = append(ranked, Ranked{School: sch, DistanceKm: core.Round(dist, 2)})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].DistanceKm != ranked[j].DistanceKm {
			return ranked[i].DistanceKm < ranked[j].DistanceKm
		}
		return ranked[i].ID < ranked[j].ID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// haversineKm computes the great-circle distance between two points.
func haversineKm(a, b Coordinates) float64 {
	lat1, lng1 := radians(a.Lat), radians(a.Lng)
	lat2, lng2 := radians(b.Lat), radians(b.Lng)

	dLat := lat2 - lat1
	dLng := lng2 - lng1

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
