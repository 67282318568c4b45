// Package lifecycle derives event statuses from their time windows and keeps
// the stored status column in step with the clock.
package lifecycle

import (
	"time"

	"github.com/jpresto/eventpass/internal/models"
)

type Phase int

const (
	PhaseUpcoming Phase = iota
	PhaseOngoing
	PhasePast
)

// Resolve places now on the event's timeline. The window is closed on both
// ends: now == start and now == end both count as ongoing. Comparison is by
// absolute instant, so inputs on different offsets are normalized to UTC
// first rather than compared as wall-clock values.
func Resolve(start, end, now time.Time) Phase {
	start, end, now = start.UTC(), end.UTC(), now.UTC()

	if now.Before(start) {
		return PhaseUpcoming
	}
	if now.After(end) {
		return PhasePast
	}
	return PhaseOngoing
}

// StatusAt maps the resolved phase onto the stored status vocabulary, where
// a past event is persisted as completed.
func StatusAt(start, end, now time.Time) models.EventStatus {
	switch Resolve(start, end, now) {
	case PhaseUpcoming:
		return models.StatusUpcoming
	case PhasePast:
		return models.StatusCompleted
	default:
		return models.StatusOngoing
	}
}
