package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitRegion(t *testing.T) {
	tests := []struct {
		name   string
		points []LatLng
		focal  *LatLng
		want   Region
	}{
		{
			name:   "single point gets minimum span",
			points: []LatLng{{Lat: 1, Lng: 1}},
			want:   Region{CenterLat: 1, CenterLng: 1, SpanLat: minSpan, SpanLng: minSpan},
		},
		{
			name:  "focal only",
			focal: &LatLng{Lat: 37.7749, Lng: -122.4194},
			want:  Region{CenterLat: 37.7749, CenterLng: -122.4194, SpanLat: minSpan, SpanLng: minSpan},
		},
		{
			name: "two points padded by 1.5",
			points: []LatLng{
				{Lat: 10, Lng: 20},
				{Lat: 12, Lng: 26},
			},
			want: Region{CenterLat: 11, CenterLng: 23, SpanLat: 3, SpanLng: 9},
		},
		{
			name: "focal extends the bounds",
			points: []LatLng{
				{Lat: 10, Lng: 20},
				{Lat: 12, Lng: 26},
			},
			focal: &LatLng{Lat: 14, Lng: 20},
			want:  Region{CenterLat: 12, CenterLng: 23, SpanLat: 6, SpanLng: 9},
		},
		{
			name: "collinear points keep usable cross-axis span",
			points: []LatLng{
				{Lat: 5, Lng: 30},
				{Lat: 9, Lng: 30},
			},
			want: Region{CenterLat: 7, CenterLng: 30, SpanLat: 6, SpanLng: minSpan},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			region, err := FitRegion(tt.points, tt.focal)
			require.NoError(t, err)

			assert.InDelta(t, tt.want.CenterLat, region.CenterLat, 1e-9)
			assert.InDelta(t, tt.want.CenterLng, region.CenterLng, 1e-9)
			assert.InDelta(t, tt.want.SpanLat, region.SpanLat, 1e-9)
			assert.InDelta(t, tt.want.SpanLng, region.SpanLng, 1e-9)
			assert.Positive(t, region.SpanLat)
			assert.Positive(t, region.SpanLng)
		})
	}
}

func TestFitRegion_EmptyInput(t *testing.T) {
	_, err := FitRegion(nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = FitRegion([]LatLng{}, nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestFitRegion_DoesNotMutateInput(t *testing.T) {
	points := []LatLng{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}
	focal := &LatLng{Lat: 3, Lng: 3}

	_, err := FitRegion(points, focal)
	require.NoError(t, err)

	assert.Equal(t, []LatLng{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}, points)
}

func TestRegion_Contains(t *testing.T) {
	region := Region{CenterLat: 10, CenterLng: 20, SpanLat: 2, SpanLng: 4}

	assert.True(t, region.Contains(LatLng{Lat: 10, Lng: 20}))
	assert.True(t, region.Contains(LatLng{Lat: 11, Lng: 22}))
	assert.False(t, region.Contains(LatLng{Lat: 11.5, Lng: 20}))
	assert.False(t, region.Contains(LatLng{Lat: 10, Lng: 22.5}))
}
