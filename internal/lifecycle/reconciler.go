package lifecycle

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jpresto/eventpass/internal/models"
)

// EventStore is the slice of persistence the reconciler needs.
type EventStore interface {
	// ListActive returns every event whose stored status is not cancelled.
	ListActive() ([]models.Event, error)
	UpdateStatus(id uuid.UUID, status models.EventStatus) error
}

type Reconciler struct {
	events EventStore
	log    *logrus.Logger
}

func NewReconciler(events EventStore, log *logrus.Logger) *Reconciler {
	return &Reconciler{events: events, log: log}
}

// ReconcileStatuses recomputes the status of every non-cancelled event at
// the given instant and persists only the rows whose stored value differs.
// It returns how many events were updated. Writing the same value twice is
// a no-op, so the reconciler is safe to run repeatedly and concurrently
// with itself. A failure on one event is logged and skipped; the rest of
// the batch still runs.
func (r *Reconciler) ReconcileStatuses(now time.Time) (int, error) {
	events, err := r.events.ListActive()
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, event := range events {
		if event.Status == models.StatusCancelled {
			// Cancelled is terminal and manually set; never overwrite it.
			continue
		}

		computed := StatusAt(event.StartTime, event.EndTime, now)
		if computed == event.Status {
			continue
		}

		if err := r.events.UpdateStatus(event.ID, computed); err != nil {
			r.log.WithFields(logrus.Fields{
				"event_id": event.ID,
				"from":     event.Status,
				"to":       computed,
			}).WithError(err).Warn("status reconcile failed for event")
			continue
		}
		updated++
	}

	r.log.WithFields(logrus.Fields{
		"checked": len(events),
		"updated": updated,
	}).Info("event statuses reconciled")

	return updated, nil
}
