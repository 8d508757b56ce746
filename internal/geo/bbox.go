package geo

import "math"

// BBox is a latitude/longitude rectangle in decimal degrees.
type BBox struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLon float64 `json:"minLon"`
	MaxLon float64 `json:"maxLon"`
}

// BoundingBox derives the box enclosing a circle of radiusMeters around
// (lat, lon). It is a coarse prefilter only: the corners lie up to
// radius*√2 away, so callers must recheck with DistanceMeters.
//
// The longitude span is widened to the full range when the circle reaches a
// pole or crosses the antimeridian.
func BoundingBox(lat, lon, radiusMeters float64) BBox {
	latDelta := radiusMeters / MetersPerDegreeLat
	box := BBox{
		MinLat: math.Max(-90, lat-latDelta),
		MaxLat: math.Min(90, lat+latDelta),
		MinLon: -180,
		MaxLon: 180,
	}

	cosLat := math.Cos(Radians(lat))
	if box.MinLat <= -90 || box.MaxLat >= 90 || cosLat < 1e-9 {
		return box
	}

	lonDelta := radiusMeters / (MetersPerDegreeLat * cosLat)
	if lon-lonDelta < -180 || lon+lonDelta > 180 {
		return box
	}
	box.MinLon = lon - lonDelta
	box.MaxLon = lon + lonDelta
	return box
}

// Contains reports whether the point lies inside the box (inclusive).
func (b BBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}
