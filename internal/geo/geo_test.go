package geo

import (
	"errors"
	"math"
	"testing"
)

var (
	obelisco = Point{Lat: -34.6037, Lng: -58.3816}
	palermo  = Point{Lat: -34.5889, Lng: -58.4306}
	recoleta = Point{Lat: -34.5875, Lng: -58.3974}
	cordoba  = Point{Lat: -31.4201, Lng: -64.1888}
)

func TestDistance(t *testing.T) {
	if d := Distance(obelisco, obelisco); d != 0 {
		t.Fatalf("same point distance=%v", d)
	}
	d := Distance(obelisco, cordoba)
	// roughly 646 km between the two city centres
	if math.Abs(d-646000) > 10000 {
		t.Fatalf("obelisco-cordoba=%v", d)
	}
	if math.Abs(Distance(obelisco, palermo)-Distance(palermo, obelisco)) > 1e-6 {
		t.Fatalf("distance not symmetric")
	}
}

func TestValidRadius(t *testing.T) {
	for _, r := range []int{0, 500, 1000, 5000, 10000} {
		if err := ValidRadius(r); err != nil {
			t.Fatalf("radius %d rejected: %v", r, err)
		}
	}
	if err := ValidRadius(2500); !errors.Is(err, ErrInvalidRadius) {
		t.Fatalf("expected ErrInvalidRadius, got %v", err)
	}
}

func TestRegion(t *testing.T) {
	tests := map[string]string{
		"Palermo, Buenos Aires":    "buenos aires",
		"Córdoba Capital, Córdoba": "córdoba",
		"Rosario":                  "rosario",
		"":                         "",
	}
	for in, want := range tests {
		if got := Region(in); got != want {
			t.Fatalf("Region(%q)=%q want %q", in, got, want)
		}
	}
}

func TestRankAnyDistanceKeepsOrder(t *testing.T) {
	cands := []Candidate{
		{Index: 0, Point: &cordoba},
		{Index: 1, Point: &palermo},
		{Index: 2},
	}
	got := Rank(&obelisco, "Capital Federal, Buenos Aires", AnyDistance, cands)
	if len(got) != 3 || got[0].Index != 0 || got[1].Index != 1 || got[2].Index != 2 {
		t.Fatalf("got=%+v", got)
	}
	if got[0].Distance == nil || got[2].Distance != nil {
		t.Fatalf("distances not reported correctly: %+v", got)
	}
}

func TestRankWithinRadius(t *testing.T) {
	cands := []Candidate{
		{Index: 0, Point: &cordoba, Location: "Córdoba Capital, Córdoba"},
		{Index: 1, Location: "Rosario, Santa Fe"},
		{Index: 2, Point: &palermo, Location: "Palermo, Buenos Aires"},
		{Index: 3, Location: "Belgrano, Buenos Aires"},
		{Index: 4, Point: &recoleta, Location: "Recoleta, Buenos Aires"},
	}
	got := Rank(&obelisco, "Capital Federal, Buenos Aires", 10000, cands)
	want := []int{4, 2, 3, 1}
	if len(got) != len(want) {
		t.Fatalf("got=%+v", got)
	}
	for i, idx := range want {
		if got[i].Index != idx {
			t.Fatalf("position %d: got index %d want %d (%+v)", i, got[i].Index, idx, got)
		}
	}
}

func TestRankWithoutOriginUsesRegion(t *testing.T) {
	cands := []Candidate{
		{Index: 0, Point: &cordoba, Location: "Córdoba Capital, Córdoba"},
		{Index: 1, Point: &palermo, Location: "Palermo, Buenos Aires"},
	}
	got := Rank(nil, "Palermo, Buenos Aires", 5000, cands)
	if len(got) != 2 || got[0].Index != 1 || got[1].Index != 0 {
		t.Fatalf("got=%+v", got)
	}
}

func TestAroundContainsRadius(t *testing.T) {
	for _, r := range []int{500, 1000, 5000, 10000} {
		b := Around(obelisco, r)
		if !b.Contains(obelisco) {
			t.Fatalf("radius %d: box misses its own origin", r)
		}
		// points just inside the radius on each axis stay in the box
		for _, bearing := range []Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			p := offset(obelisco, bearing, float64(r)*0.99)
			if Distance(obelisco, p) > float64(r) {
				t.Fatalf("radius %d: test point outside radius", r)
			}
			if !b.Contains(p) {
				t.Fatalf("radius %d: box misses %+v", r, p)
			}
		}
	}
	b := Around(obelisco, 5000)
	if b.Contains(cordoba) {
		t.Fatalf("cordoba inside a 5km box around obelisco")
	}
	if b.AllLng {
		t.Fatalf("longitude bound dropped away from the poles")
	}
	if !Around(Point{Lat: 89.99, Lng: 0}, 10000).AllLng {
		t.Fatalf("expected longitude bound dropped near the pole")
	}
}

// offset moves p about metres along a unit lat/lng direction.
func offset(p, dir Point, metres float64) Point {
	dLat := metres / earthRadiusMeters * 180 / math.Pi
	dLng := dLat / math.Cos(p.Lat*math.Pi/180)
	return Point{Lat: p.Lat + dir.Lat*dLat, Lng: p.Lng + dir.Lng*dLng}
}
