// Package geo holds the pure geodesic helpers used by search, submission
// guarding and the SQLite store's radius postfilter.
package geo

import "math"

const (
	// EarthRadiusMeters is the mean Earth radius used by every distance computation.
	EarthRadiusMeters = 6_371_000.0

	// MetersPerDegreeLat approximates one degree of latitude for bounding boxes.
	MetersPerDegreeLat = 111_000.0

	// MinSearchRadius is the floor applied by ClampRadius.
	MinSearchRadius = 300.0
	// DefaultSearchRadius is used when a search omits the radius.
	DefaultSearchRadius = 5000.0

	radiusStep = 100.0
)

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180 }

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }

// DistanceMeters returns the great-circle (haversine) distance between two
// points given in decimal degrees.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	φ1, φ2 := Radians(lat1), Radians(lat2)
	Δφ := Radians(lat2 - lat1)
	Δλ := Radians(lon2 - lon1)
	a := math.Sin(Δφ/2)*math.Sin(Δφ/2) +
		math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// Destination returns the point reached by travelling meters from (lat, lon)
// along the initial bearing (degrees clockwise from north).
func Destination(lat, lon, bearingDeg, meters float64) (float64, float64) {
	δ := meters / EarthRadiusMeters
	θ := Radians(bearingDeg)
	φ1, λ1 := Radians(lat), Radians(lon)

	φ2 := math.Asin(math.Sin(φ1)*math.Cos(δ) + math.Cos(φ1)*math.Sin(δ)*math.Cos(θ))
	λ2 := λ1 + math.Atan2(math.Sin(θ)*math.Sin(δ)*math.Cos(φ1), math.Cos(δ)-math.Sin(φ1)*math.Sin(φ2))

	lon2 := math.Mod(Degrees(λ2)+540, 360) - 180
	return Degrees(φ2), lon2
}

// ValidCoordinate reports whether lat/lon are finite and inside WGS84 bounds.
func ValidCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// ClampRadius floors the requested radius to MinSearchRadius and rounds it
// to the nearest 100 m so nearby queries share cache buckets.
func ClampRadius(requested float64) float64 {
	if math.IsNaN(requested) {
		return MinSearchRadius
	}
	return math.Max(MinSearchRadius, math.Round(requested/radiusStep)*radiusStep)
}

// Quantize rounds a coordinate to two decimals (about 1.1 km of latitude).
func Quantize(v float64) float64 {
	q := math.Round(v*100) / 100
	if q == 0 {
		// normalize -0 so keys never render as "-0.00"
		return 0
	}
	return q
}
