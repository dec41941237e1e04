package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeEndAt(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name         string
		workshopType WorkshopType
		extraMinutes int
		want         time.Time
	}{
		{"atelier base duration", TypeAtelier, 0, start.Add(3 * time.Hour)},
		{"atelier with extension", TypeAtelier, 45, start.Add(3*time.Hour + 45*time.Minute)},
		{"formation initiale", TypeFormationInitiale, 0, start.Add(7 * time.Hour)},
		{"formation approfondissement", TypeFormationApprofondissement, 30, start.Add(7*time.Hour + 30*time.Minute)},
		{"formation animation", TypeFormationAnimation, 0, start.Add(4 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeEndAt(tt.workshopType, start, tt.extraMinutes))
		})
	}
}

func TestWorkshop_RecomputeEndAt(t *testing.T) {
	w := Workshop{
		Type:                 TypeAtelier,
		StartAt:              time.Date(2026, 5, 1, 14, 0, 0, 0, time.UTC),
		ExtraDurationMinutes: 60,
		// Stale EndAt on purpose.
		EndAt: time.Date(2026, 5, 1, 14, 0, 0, 0, time.UTC),
	}

	w.RecomputeEndAt()

	assert.Equal(t, time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC), w.EndAt)
}

func TestWorkshopType_IsValid(t *testing.T) {
	assert.True(t, TypeAtelier.IsValid())
	assert.True(t, TypeFormationAnimation.IsValid())
	assert.False(t, WorkshopType("conference").IsValid())
	assert.False(t, WorkshopType("").IsValid())
}

func TestWorkshop_TimePredicates(t *testing.T) {
	start := time.Date(2026, 6, 10, 10, 0, 0, 0, time.UTC)
	w := Workshop{Type: TypeAtelier, StartAt: start}
	w.RecomputeEndAt()

	assert.False(t, w.HasStarted(start.Add(-time.Minute)))
	assert.True(t, w.HasStarted(start))
	assert.True(t, w.HasStarted(start.Add(time.Hour)))

	assert.False(t, w.HasEnded(w.EndAt))
	assert.True(t, w.HasEnded(w.EndAt.Add(time.Second)))
}

func TestWorkshop_InFeeFreeWindow(t *testing.T) {
	start := time.Date(2026, 6, 10, 10, 0, 0, 0, time.UTC)
	w := Workshop{StartAt: start}

	assert.True(t, w.InFeeFreeWindow(start.Add(-FeeFreeCancelWindow)))
	assert.True(t, w.InFeeFreeWindow(start.Add(-96*time.Hour)))
	assert.False(t, w.InFeeFreeWindow(start.Add(-71*time.Hour)))
	assert.False(t, w.InFeeFreeWindow(start))
}
