package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKM_NewYorkToLosAngeles(t *testing.T) {
	d := DistanceKM(40.7128, -74.0060, 34.0522, -118.2437)
	assert.Greater(t, d, 3936.0)
	assert.Less(t, d, 3944.0)
}

func TestDistanceKM_SamePoint(t *testing.T) {
	d := DistanceKM(52.52, 13.405, 52.52, 13.405)
	assert.InDelta(t, 0, d, 1e-9)
}

func TestDistanceKM_Antipodal(t *testing.T) {
	// Half the Earth's circumference at the equator.
	d := DistanceKM(0, 0, 0, 180)
	assert.InDelta(t, math.Pi*6371, d, 1.0)
}

func TestDistanceKM_NaNPropagates(t *testing.T) {
	d := DistanceKM(math.NaN(), 0, 0, 0)
	assert.True(t, math.IsNaN(d))
}
