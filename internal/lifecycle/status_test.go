package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpresto/eventpass/internal/models"
)

var (
	start = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	end   = time.Date(2025, 1, 10, 11, 0, 0, 0, time.UTC)
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want Phase
	}{
		{"well before start", start.Add(-24 * time.Hour), PhaseUpcoming},
		{"just before start", start.Add(-time.Second), PhaseUpcoming},
		{"exactly at start", start, PhaseOngoing},
		{"mid window", start.Add(time.Hour), PhaseOngoing},
		{"exactly at end", end, PhaseOngoing},
		{"just after end", end.Add(time.Second), PhasePast},
		{"well after end", end.Add(24 * time.Hour), PhasePast},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(start, end, tt.now))
		})
	}
}

// Resolve must compare absolute instants, not wall-clock values; the same
// moment expressed in a different offset lands in the same phase.
func TestResolveNormalizesOffsets(t *testing.T) {
	manila := time.FixedZone("PST", 8*60*60)

	// 18:00 +08:00 is 10:00 UTC, inside the window.
	now := time.Date(2025, 1, 10, 18, 0, 0, 0, manila)
	assert.Equal(t, PhaseOngoing, Resolve(start, end, now))

	// 10:00 +08:00 is 02:00 UTC, before the window.
	early := time.Date(2025, 1, 10, 10, 0, 0, 0, manila)
	assert.Equal(t, PhaseUpcoming, Resolve(start, end, early))
}

// The three phases partition the timeline: every instant resolves to
// exactly one phase, with no gap at either boundary.
func TestResolvePartitionsTimeline(t *testing.T) {
	prev := PhaseUpcoming
	for now := start.Add(-time.Hour); !now.After(end.Add(time.Hour)); now = now.Add(time.Minute) {
		phase := Resolve(start, end, now)
		require.GreaterOrEqual(t, int(phase), int(prev), "phase regressed at %s", now)
		prev = phase
	}
	assert.Equal(t, PhasePast, prev)
}

func TestStatusAt(t *testing.T) {
	assert.Equal(t, models.StatusUpcoming, StatusAt(start, end, start.Add(-time.Minute)))
	assert.Equal(t, models.StatusOngoing, StatusAt(start, end, start))
	assert.Equal(t, models.StatusOngoing, StatusAt(start, end, end))
	assert.Equal(t, models.StatusCompleted, StatusAt(start, end, end.Add(time.Minute)))
}
