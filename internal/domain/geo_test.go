package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinateValidate(t *testing.T) {
	tests := []struct {
		name    string
		c       Coordinate
		wantErr bool
	}{
		{"london", Coordinate{Latitude: 51.501009, Longitude: -0.141588}, false},
		{"bounds", Coordinate{Latitude: -90, Longitude: 180}, false},
		{"latitude too high", Coordinate{Latitude: 90.1, Longitude: 0}, true},
		{"longitude too low", Coordinate{Latitude: 0, Longitude: -180.5}, true},
		{"nan", Coordinate{Latitude: math.NaN(), Longitude: 0}, true},
		{"inf", Coordinate{Latitude: 0, Longitude: math.Inf(1)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.wantErr {
				assert.Equal(t, KindInvalidInput, KindOf(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNormalizeRadius(t *testing.T) {
	ptr := func(f float64) *float64 { return &f }

	got, err := NormalizeRadius(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultRadiusMiles, got)

	got, err = NormalizeRadius(ptr(5))
	require.NoError(t, err)
	assert.Equal(t, 5.0, got)

	got, err = NormalizeRadius(ptr(MaxRadiusMiles))
	require.NoError(t, err)
	assert.Equal(t, MaxRadiusMiles, got)

	for _, bad := range []float64{0, -1, 20.5, math.NaN(), math.Inf(1)} {
		_, err := NormalizeRadius(ptr(bad))
		assert.Equal(t, KindInvalidInput, KindOf(err), "radius %v", bad)
	}
}

func TestIsAlertRadiusOption(t *testing.T) {
	assert.True(t, IsAlertRadiusOption(1))
	assert.True(t, IsAlertRadiusOption(20))
	assert.False(t, IsAlertRadiusOption(2))
}

func TestMilesToMeters(t *testing.T) {
	assert.InDelta(t, 1609.344, MilesToMeters(1), 1e-9)
	assert.InDelta(t, 8046.72, MilesToMeters(5), 1e-9)
}
