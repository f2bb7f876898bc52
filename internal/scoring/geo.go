package scoring

import (
	"math"

	"github.com/kindredapp/kindred-backend/internal/db"
)

// earthRadiusKm is the spherical-Earth approximation radius.
const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two coordinates
// using the haversine formula.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// ProfileDistanceKm returns the distance between two profiles, or nil when
// either side lacks coordinates. Nil means "unknown": callers must skip the
// hard distance cut for it rather than fail the candidate.
func ProfileDistanceKm(a, b *db.Profile) *float64 {
	if !a.HasLocation() || !b.HasLocation() {
		return nil
	}
	d := DistanceKm(*a.Latitude, *a.Longitude, *b.Latitude, *b.Longitude)
	return &d
}
