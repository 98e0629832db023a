// Package geo ranks listings by proximity to a buyer.
package geo

import (
	"errors"
	"math"
	"sort"
	"strings"
)

var ErrInvalidRadius = errors.New("radius must be one of 0, 500, 1000, 5000, 10000")

const earthRadiusMeters = 6371000.0

// AnyDistance disables the proximity filter.
const AnyDistance = 0

var radii = map[int]bool{AnyDistance: true, 500: true, 1000: true, 5000: true, 10000: true}

type Point struct {
	Lat float64
	Lng float64
}

// NewPoint returns nil unless both coordinates are present.
func NewPoint(lat, lng *float64) *Point {
	if lat == nil || lng == nil {
		return nil
	}
	return &Point{Lat: *lat, Lng: *lng}
}

func ValidRadius(r int) error {
	if !radii[r] {
		return ErrInvalidRadius
	}
	return nil
}

// Distance is the great-circle distance in metres.
func Distance(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Region is the last comma separated part of a location label, normalised.
// "Palermo, Buenos Aires" -> "buenos aires".
func Region(location string) string {
	parts := strings.Split(location, ",")
	return strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
}

// Candidate is anything that can be placed on the map.
type Candidate struct {
	Index    int
	Point    *Point
	Location string
}

// Ranked is a candidate kept by Rank with its distance from the origin, when known.
type Ranked struct {
	Index    int
	Distance *float64
}

// Rank filters and orders candidates for a buyer at origin/originLocation.
// With AnyDistance the input order is preserved. Otherwise candidates with
// coordinates outside the radius are dropped, measured ones come first by
// distance, then unmeasured ones in the buyer's region, then the rest.
func Rank(origin *Point, originLocation string, radius int, candidates []Candidate) []Ranked {
	out := make([]Ranked, 0, len(candidates))
	if radius == AnyDistance {
		for _, c := range candidates {
			out = append(out, Ranked{Index: c.Index, Distance: distanceFrom(origin, c.Point)})
		}
		return out
	}

	region := Region(originLocation)
	type scored struct {
		Ranked
		tier int
	}
	kept := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		d := distanceFrom(origin, c.Point)
		switch {
		case d != nil:
			if *d > float64(radius) {
				continue
			}
			kept = append(kept, scored{Ranked{c.Index, d}, 0})
		case region != "" && Region(c.Location) == region:
			kept = append(kept, scored{Ranked{c.Index, nil}, 1})
		default:
			kept = append(kept, scored{Ranked{c.Index, nil}, 2})
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].tier != kept[j].tier {
			return kept[i].tier < kept[j].tier
		}
		if kept[i].tier == 0 {
			return *kept[i].Distance < *kept[j].Distance
		}
		return false
	})
	for _, k := range kept {
		out = append(out, k.Ranked)
	}
	return out
}

// Box is a latitude/longitude rectangle. AllLng drops the longitude bound.
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
	AllLng         bool
}

// Around returns a box containing every point within radius metres of
// origin, so a store can pre-filter before Rank measures exact distances.
func Around(origin Point, radius int) Box {
	dLat := float64(radius) / earthRadiusMeters * 180 / math.Pi
	b := Box{
		MinLat: math.Max(-90, origin.Lat-dLat),
		MaxLat: math.Min(90, origin.Lat+dLat),
	}
	cos := math.Cos(origin.Lat * math.Pi / 180)
	if b.MinLat == -90 || b.MaxLat == 90 || cos < 1e-6 {
		b.AllLng = true
		return b
	}
	dLng := dLat / cos
	b.MinLng, b.MaxLng = origin.Lng-dLng, origin.Lng+dLng
	if b.MinLng < -180 || b.MaxLng > 180 {
		b.AllLng = true
	}
	return b
}

func (b Box) Contains(p Point) bool {
	if p.Lat < b.MinLat || p.Lat > b.MaxLat {
		return false
	}
	return b.AllLng || (p.Lng >= b.MinLng && p.Lng <= b.MaxLng)
}

func distanceFrom(origin, p *Point) *float64 {
	if origin == nil || p == nil {
		return nil
	}
	d := Distance(*origin, *p)
	return &d
}
