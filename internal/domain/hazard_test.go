package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRainyHazard(t *testing.T) {
	raining := Weather{IsRaining: true}
	dry := Weather{IsRaining: false}

	t.Run("rain flags water-sensitive types", func(t *testing.T) {
		assert.True(t, IsRainyHazard(IssuePothole, raining))
		assert.True(t, IsRainyHazard(IssueManhole, raining))
		assert.True(t, IsRainyHazard(IssueWaterLeak, raining))
	})

	t.Run("rain leaves other types alone", func(t *testing.T) {
		assert.False(t, IsRainyHazard(IssueStreetlight, raining))
		assert.False(t, IsRainyHazard(IssueWaste, raining))
	})

	t.Run("dry weather never hazards", func(t *testing.T) {
		for _, typ := range IssueTypes {
			assert.False(t, IsRainyHazard(typ, dry), "type %s", typ)
		}
	})
}

func TestPriorityFor(t *testing.T) {
	assert.Equal(t, PriorityCritical, PriorityFor(IssuePothole, true))
	assert.Equal(t, PriorityCritical, PriorityFor(IssueManhole, true))
	assert.Equal(t, PriorityHigh, PriorityFor(IssueManhole, false))
	assert.Equal(t, PriorityMedium, PriorityFor(IssuePothole, false))
	assert.Equal(t, PriorityMedium, PriorityFor(IssueStreetlight, false))
}

func TestIssueTypeValid(t *testing.T) {
	for _, typ := range IssueTypes {
		assert.True(t, typ.Valid())
	}
	assert.False(t, IssueType("graffiti").Valid())
	assert.False(t, IssueType("").Valid())
}
