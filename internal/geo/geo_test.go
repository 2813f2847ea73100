package geo

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name       string
		lat1, lon1 float64
		lat2, lon2 float64
		wantMiles  float64
		wantNM     float64
		tolerance  float64
	}{
		{"same point", 25.7617, -80.1918, 25.7617, -80.1918, 0, 0, 0.001},
		{"Miami to Cozumel", 25.7617, -80.1918, 20.4230, -86.9223, 564.7, 490.7, 1},
		{"Miami to San Juan", 25.7617, -80.1918, 18.4655, -66.1057, 1032.0, 896.7, 1},
		{"one degree of latitude", 0, 0, 1, 0, 69.1, 60.0, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			miles := HaversineMiles(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(miles-tt.wantMiles) > tt.tolerance {
				t.Errorf("HaversineMiles() = %.2f, want %.2f ± %.2f", miles, tt.wantMiles, tt.tolerance)
			}
			nm := NauticalMiles(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(nm-tt.wantNM) > tt.tolerance {
				t.Errorf("NauticalMiles() = %.2f, want %.2f ± %.2f", nm, tt.wantNM, tt.tolerance)
			}
		})
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	a := NauticalMiles(25.7617, -80.1918, 18.0425, -63.0548)
	b := NauticalMiles(18.0425, -63.0548, 25.7617, -80.1918)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", a, b)
	}
}

func TestBoundingBox_Contains(t *testing.T) {
	caribbean := BoundingBox{MinLat: 5, MinLon: -100, MaxLat: 35, MaxLon: -55}

	tests := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"Cozumel", 20.4230, -86.9223, true},
		{"on the edge", 35, -55, true},
		{"Southampton", 50.9, -1.4, false},
		{"Alaska", 58.3, -134.4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := caribbean.Contains(tt.lat, tt.lon); got != tt.want {
				t.Errorf("Contains(%v, %v) = %v, want %v", tt.lat, tt.lon, got, tt.want)
			}
		})
	}
}

func TestAround(t *testing.T) {
	box := Around(25.7617, -80.1918, 50)
	if !box.Contains(25.7617, -80.1918) {
		t.Error("Around() box does not contain its own center")
	}
	// a point 40 miles north must fall inside
	if !box.Contains(25.7617+40.0/69.0, -80.1918) {
		t.Error("Around() box too small")
	}
}
