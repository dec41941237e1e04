package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ladderFixture() []RoleLevel {
	return []RoleLevel{
		{
			ID: 1, FamilyID: 7, Level: 1, Name: "Initié",
			Requirement: RoleRequirement{
				RequiredFormations: []WorkshopType{TypeFormationInitiale},
			},
		},
		{
			ID: 2, FamilyID: 7, Level: 2, Name: "Animateur",
			Requirement: RoleRequirement{
				MinWorkshopsTotal:  5,
				MinInPerson:        2,
				RequiredFormations: []WorkshopType{TypeFormationInitiale, TypeFormationAnimation},
			},
		},
		{
			ID: 3, FamilyID: 7, Level: 3, Name: "Formateur",
			Requirement: RoleRequirement{
				MinWorkshopsTotal:  20,
				MinFeedbackCount:   10,
				MinFeedbackAverage: 4.0,
			},
		},
	}
}

func TestAccumulateStats(t *testing.T) {
	workshops := []Workshop{
		{IsRemote: false},
		{IsRemote: true},
		{IsRemote: true},
	}
	formations := []WorkshopType{TypeFormationInitiale, TypeFormationInitiale}

	stats := AccumulateStats(workshops, formations, 4, 4.5)

	assert.Equal(t, 3, stats.TotalClosed)
	assert.Equal(t, 1, stats.InPerson)
	assert.Equal(t, 2, stats.Remote)
	assert.Equal(t, 4, stats.FeedbackCount)
	assert.Equal(t, 4.5, stats.FeedbackAverage)
	assert.True(t, stats.CompletedFormations[TypeFormationInitiale])
	assert.False(t, stats.CompletedFormations[TypeFormationAnimation])
}

func TestEvaluateLadder(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	t.Run("nothing unlocked without the entry formation", func(t *testing.T) {
		stats := AccumulateStats(nil, nil, 0, 0)

		prog := EvaluateLadder(7, ladderFixture(), stats, now)

		assert.Equal(t, 0, prog.CurrentLevel)
		require.Len(t, prog.Levels, 3)
		assert.False(t, prog.Levels[0].Unlocked)
		assert.NotEmpty(t, prog.Levels[0].Reasons)
		// Only the first locked level explains itself.
		assert.Empty(t, prog.Levels[1].Reasons)
		assert.Empty(t, prog.Levels[2].Reasons)
	})

	t.Run("levels cannot be skipped", func(t *testing.T) {
		// Enough volume for level 3, but the animation formation for
		// level 2 is missing: level 3 must stay locked regardless.
		workshops := make([]Workshop, 25)
		stats := AccumulateStats(workshops, []WorkshopType{TypeFormationInitiale}, 15, 4.8)

		prog := EvaluateLadder(7, ladderFixture(), stats, now)

		assert.Equal(t, 1, prog.CurrentLevel)
		assert.True(t, prog.Levels[0].Unlocked)
		assert.False(t, prog.Levels[1].Unlocked)
		assert.Contains(t, prog.Levels[1].Reasons[0], "formation")
		assert.False(t, prog.Levels[2].Unlocked)
	})

	t.Run("full ladder", func(t *testing.T) {
		workshops := make([]Workshop, 25)
		for i := 20; i < 25; i++ {
			workshops[i].IsRemote = true
		}
		stats := AccumulateStats(workshops,
			[]WorkshopType{TypeFormationInitiale, TypeFormationAnimation}, 12, 4.2)

		prog := EvaluateLadder(7, ladderFixture(), stats, now)

		assert.Equal(t, 3, prog.CurrentLevel)
		for _, level := range prog.Levels {
			assert.True(t, level.Unlocked)
			assert.Empty(t, level.Reasons)
		}
		assert.Equal(t, now, prog.EvaluatedAt)
	})

	t.Run("shortfalls name the missing counts", func(t *testing.T) {
		workshops := make([]Workshop, 3)
		stats := AccumulateStats(workshops,
			[]WorkshopType{TypeFormationInitiale, TypeFormationAnimation}, 0, 0)

		prog := EvaluateLadder(7, ladderFixture(), stats, now)

		require.False(t, prog.Levels[1].Unlocked)
		assert.Contains(t, prog.Levels[1].Reasons[0], "2 more closed workshops needed (3/5)")
	})

	t.Run("most binding shortfall comes first", func(t *testing.T) {
		levels := []RoleLevel{{
			Level: 1, Name: "Animateur",
			Requirement: RoleRequirement{MinWorkshopsTotal: 10, MinInPerson: 4},
		}}
		// 8 of 10 workshops but none in person: the in-person gap is the
		// larger fraction of its threshold and must lead.
		workshops := make([]Workshop, 8)
		for i := range workshops {
			workshops[i].IsRemote = true
		}
		stats := AccumulateStats(workshops, nil, 0, 0)

		prog := EvaluateLadder(7, levels, stats, now)

		require.False(t, prog.Levels[0].Unlocked)
		require.Len(t, prog.Levels[0].Reasons, 2)
		assert.Contains(t, prog.Levels[0].Reasons[0], "4 more in-person workshops needed (0/4)")
		assert.Contains(t, prog.Levels[0].Reasons[1], "2 more closed workshops needed (8/10)")
	})
}
