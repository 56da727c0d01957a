// Package geo computes map viewport regions over job coordinates.
package geo

import "errors"

// ErrEmptyInput is returned when there is nothing to fit a region over.
var ErrEmptyInput = errors.New("no coordinates to fit")

const (
	// spanPadding keeps markers off the viewport edge.
	spanPadding = 1.5
	// minSpan keeps a single-point region visually usable.
	minSpan = 0.01
)

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Region is a derived, ephemeral bounding viewport: center plus the
// per-axis span the map should display.
type Region struct {
	CenterLat float64 `json:"center_lat"`
	CenterLng float64 `json:"center_lng"`
	SpanLat   float64 `json:"span_lat"`
	SpanLng   float64 `json:"span_lng"`
}

// Contains reports whether p falls inside the region.
func (r Region) Contains(p LatLng) bool {
	return p.Lat >= r.CenterLat-r.SpanLat/2 && p.Lat <= r.CenterLat+r.SpanLat/2 &&
		p.Lng >= r.CenterLng-r.SpanLng/2 && p.Lng <= r.CenterLng+r.SpanLng/2
}

// FitRegion computes the region covering all points plus the optional
// focal point, padded so nothing sits flush against the edge.
func FitRegion(points []LatLng, focal *LatLng) (Region, error) {
	all := points
	if focal != nil {
		all = append(append([]LatLng{}, points...), *focal)
	}
	if len(all) == 0 {
		return Region{}, ErrEmptyInput
	}

	minLat, maxLat := all[0].Lat, all[0].Lat
	minLng, maxLng := all[0].Lng, all[0].Lng
	for _, p := range all[1:] {
		minLat = min(minLat, p.Lat)
		maxLat = max(maxLat, p.Lat)
		minLng = min(minLng, p.Lng)
		maxLng = max(maxLng, p.Lng)
	}

	return Region{
		CenterLat: (minLat + maxLat) / 2,
		CenterLng: (minLng + maxLng) / 2,
		SpanLat:   max((maxLat-minLat)*spanPadding, minSpan),
		SpanLng:   max((maxLng-minLng)*spanPadding, minSpan),
	}, nil
}
