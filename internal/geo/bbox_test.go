package geo

import (
	"math"
	"testing"
)

func TestBoundingBox_ContainsCircle(t *testing.T) {
	centers := [][2]float64{{52.52, 13.405}, {0, 0}, {-41.2865, 174.7762}, {69.6492, 18.9553}}
	const radius = 2000.0

	for _, c := range centers {
		box := BoundingBox(c[0], c[1], radius)
		for bearing := 0.0; bearing < 360; bearing += 15 {
			lat, lon := Destination(c[0], c[1], bearing, radius*0.999)
			if !box.Contains(lat, lon) {
				t.Errorf("box around %v misses point at bearing %v: (%f, %f) not in %+v", c, bearing, lat, lon, box)
			}
		}
	}
}

func TestBoundingBox_CornersNeedPostfilter(t *testing.T) {
	const radius = 1000.0
	box := BoundingBox(52.52, 13.405, radius)

	// the NE corner is inside the box but outside the circle
	d := DistanceMeters(52.52, 13.405, box.MaxLat, box.MaxLon)
	if d <= radius {
		t.Fatalf("corner distance %.1f should exceed the radius", d)
	}
	if d > radius*math.Sqrt2*1.05 {
		t.Fatalf("corner distance %.1f should be about radius*√2", d)
	}
}

func TestBoundingBox_LongitudeCorrection(t *testing.T) {
	equator := BoundingBox(0, 10, 1000)
	north := BoundingBox(60, 10, 1000)

	eqSpan := equator.MaxLon - equator.MinLon
	northSpan := north.MaxLon - north.MinLon

	// cos(60°) = 0.5, so the longitude span doubles
	if !almostEqual(northSpan, 2*eqSpan, 1e-9) {
		t.Errorf("lon span at 60° = %v, want %v", northSpan, 2*eqSpan)
	}
	if !almostEqual(equator.MaxLat-equator.MinLat, 2000/MetersPerDegreeLat, 1e-12) {
		t.Errorf("lat span = %v", equator.MaxLat-equator.MinLat)
	}
}

func TestBoundingBox_PolesAndAntimeridian(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
	}{
		{"near north pole", 89.999, 45},
		{"south pole", -90, 0},
		{"east of antimeridian", 10, 179.999},
		{"west of antimeridian", 10, -179.999},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box := BoundingBox(tt.lat, tt.lon, 1000)
			if box.MinLon != -180 || box.MaxLon != 180 {
				t.Errorf("expected full longitude range, got [%v, %v]", box.MinLon, box.MaxLon)
			}
			if box.MinLat < -90 || box.MaxLat > 90 {
				t.Errorf("latitude out of range: [%v, %v]", box.MinLat, box.MaxLat)
			}
		})
	}
}
