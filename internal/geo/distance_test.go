package geo

import (
	"math"
	"testing"
)

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestDistanceMeters(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		epsilon                float64
	}{
		{"same point", 52.52, 13.405, 52.52, 13.405, 0, 1e-9},
		// one degree along a meridian is R*π/180
		{"one degree of latitude", 0, 0, 1, 0, EarthRadiusMeters * math.Pi / 180, 1e-6},
		{"one degree of longitude at the equator", 0, 0, 0, 1, EarthRadiusMeters * math.Pi / 180, 1e-6},
		// Berlin Hbf to Brandenburger Tor, about 1.1 km
		{"urban distance", 52.5251, 13.3694, 52.5163, 13.3777, 1128.2, 1},
		{"antipodes", 0, 0, 0, 180, EarthRadiusMeters * math.Pi, 1e-3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceMeters(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if !almostEqual(got, tt.want, tt.epsilon) {
				t.Errorf("DistanceMeters() = %.4f, want %.4f ± %g", got, tt.want, tt.epsilon)
			}
		})
	}
}

func TestDistanceMeters_Symmetric(t *testing.T) {
	a := DistanceMeters(48.8566, 2.3522, 48.8606, 2.3376)
	b := DistanceMeters(48.8606, 2.3376, 48.8566, 2.3522)
	if !almostEqual(a, b, 1e-9) {
		t.Errorf("distance not symmetric: %.9f vs %.9f", a, b)
	}
}

func TestDestination_RoundTrip(t *testing.T) {
	// the 50 m / 20 m policy decisions depend on sub-meter accuracy here
	origins := [][2]float64{{52.52, 13.405}, {-33.8688, 151.2093}, {64.1466, -21.9426}, {0, 179.9999}}
	for _, o := range origins {
		for _, bearing := range []float64{0, 45, 90, 180, 270, 315} {
			for _, meters := range []float64{19, 21, 49, 51, 5000} {
				lat, lon := Destination(o[0], o[1], bearing, meters)
				got := DistanceMeters(o[0], o[1], lat, lon)
				if !almostEqual(got, meters, 1e-3) {
					t.Errorf("Destination(%v, bearing=%v, %vm) is %.6fm away", o, bearing, meters, got)
				}
			}
		}
	}
}

func TestClampRadius(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 300},
		{-50, 300},
		{120, 300},
		{349, 300},
		{350, 400},
		{1049, 1000},
		{1050, 1100},
		{5000, 5000},
		{12345, 12300},
		{math.NaN(), 300},
	}
	for _, tt := range tests {
		if got := ClampRadius(tt.in); got != tt.want {
			t.Errorf("ClampRadius(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{52.5163, 52.52},
		{52.5149, 52.51},
		{13.377, 13.38},
		{-0.001, 0},
		{-0.006, -0.01},
		{-122.41942, -122.42},
	}
	for _, tt := range tests {
		got := Quantize(tt.in)
		if got != tt.want {
			t.Errorf("Quantize(%v) = %v, want %v", tt.in, got, tt.want)
		}
		if got == 0 && math.Signbit(got) {
			t.Errorf("Quantize(%v) returned negative zero", tt.in)
		}
	}
}

func TestValidCoordinate(t *testing.T) {
	tests := []struct {
		lat, lon float64
		want     bool
	}{
		{0, 0, true},
		{90, 180, true},
		{-90, -180, true},
		{90.0001, 0, false},
		{0, -180.5, false},
		{math.NaN(), 0, false},
		{0, math.Inf(1), false},
	}
	for _, tt := range tests {
		if got := ValidCoordinate(tt.lat, tt.lon); got != tt.want {
			t.Errorf("ValidCoordinate(%v, %v) = %v, want %v", tt.lat, tt.lon, got, tt.want)
		}
	}
}
