package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRandom replays fixed values so fallback generation is deterministic.
type scriptedRandom struct {
	floats []float64
	ints   []int
	fi, ii int
}

func (s *scriptedRandom) Float64() float64 {
	v := s.floats[s.fi%len(s.floats)]
	s.fi++
	return v
}

func (s *scriptedRandom) IntN(_ int) int {
	v := s.ints[s.ii%len(s.ints)]
	s.ii++
	return v
}

func TestLocationKey(t *testing.T) {
	assert.Equal(t, "12.97100,77.59500", LocationKey(12.971, 77.595))

	t.Run("agrees within five decimals", func(t *testing.T) {
		assert.Equal(t, LocationKey(12.971001, 77.595001), LocationKey(12.971, 77.595))
	})

	t.Run("differs beyond five decimals", func(t *testing.T) {
		assert.NotEqual(t, LocationKey(12.9711, 77.595), LocationKey(12.971, 77.595))
	})
}

func TestFindDuplicate(t *testing.T) {
	reports := []Report{
		{ID: "r1", Type: IssuePothole, Status: StatusPending, Location: Location{Lat: 12.971, Lng: 77.595}},
		{ID: "r2", Type: IssueWaste, Status: StatusPending, Location: Location{Lat: 12.971, Lng: 77.595}},
		{ID: "r3", Type: IssueManhole, Status: StatusResolved, Location: Location{Lat: 19.076, Lng: 72.8777}},
	}

	t.Run("same spot and type matches", func(t *testing.T) {
		dup := FindDuplicate(reports, 12.971001, 77.595, IssuePothole)
		require.NotNil(t, dup)
		assert.Equal(t, "r1", dup.ID)
	})

	t.Run("same spot different type does not match", func(t *testing.T) {
		assert.Nil(t, FindDuplicate(reports, 12.971, 77.595, IssueStreetlight))
	})

	t.Run("resolved report frees the location", func(t *testing.T) {
		assert.Nil(t, FindDuplicate(reports, 19.076, 72.8777, IssueManhole))
	})

	t.Run("rejected report still blocks", func(t *testing.T) {
		rejected := []Report{
			{ID: "r4", Type: IssuePothole, Status: StatusRejected, Location: Location{Lat: 12.971, Lng: 77.595}},
		}
		dup := FindDuplicate(rejected, 12.971, 77.595, IssuePothole)
		require.NotNil(t, dup)
		assert.Equal(t, "r4", dup.ID)
	})
}

func TestDemoLocation(t *testing.T) {
	t.Run("centered jitter picks the exact city", func(t *testing.T) {
		r := &scriptedRandom{floats: []float64{0.5}, ints: []int{2}}
		lat, lng := DemoLocation(r)
		assert.InDelta(t, 12.9716, lat, 1e-9) // Bangalore
		assert.InDelta(t, 77.5946, lng, 1e-9)
	})

	t.Run("jitter stays within ±0.025 degrees", func(t *testing.T) {
		r := &scriptedRandom{floats: []float64{0.0, 0.999}, ints: []int{0}}
		lat, lng := DemoLocation(r)
		assert.InDelta(t, 28.6139, lat, 0.025) // New Delhi
		assert.InDelta(t, 77.2090, lng, 0.025)
	})
}

func TestFallbackAddress(t *testing.T) {
	assert.Equal(t, "12.9716, 77.5946", FallbackAddress(12.9716, 77.5946))
	assert.Equal(t, "28.6139, 77.2090", FallbackAddress(28.61394, 77.20899))
}
