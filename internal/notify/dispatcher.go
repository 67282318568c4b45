package notify

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jpresto/eventpass/internal/models"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

// NotificationStore is the persistence slice for notification rows.
type NotificationStore interface {
	// CreateIfAbsent inserts the row unless one already exists for its
	// (user, event) pair. It reports whether a row was written.
	CreateIfAbsent(notification *models.Notification) (bool, error)
	// Replace atomically deletes any existing row for the pair and inserts
	// the given one in its place.
	Replace(notification *models.Notification) error
}

type Result struct {
	Targeted  int `json:"targeted"`
	Succeeded int `json:"succeeded"`
}

type Dispatcher struct {
	users         UserStore
	notifications NotificationStore
	log           *logrus.Logger
}

func NewDispatcher(users UserStore, notifications NotificationStore, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{users: users, notifications: notifications, log: log}
}

// Dispatch fans a notification out to the event's audience. In created mode
// the write is first-write-wins, so duplicate triggers and retries are
// no-ops. In updated mode any existing row is deleted and a fresh unread
// row with a new id and timestamp takes its place, resurfacing the event as
// new. One user's failure never aborts the batch; the result reports how
// many succeeded out of how many were targeted.
func (d *Dispatcher) Dispatch(event *models.Event, action Action, now time.Time) (Result, error) {
	audience, err := Audience(d.users, event, now)
	if err != nil {
		return Result{}, err
	}

	title, message := composeMessage(event, action)

	result := Result{Targeted: len(audience)}
	for _, user := range audience {
		notification := &models.Notification{
			UserID:    user.ID,
			EventID:   event.ID,
			Title:     title,
			Message:   message,
			IsRead:    false,
			CreatedAt: now,
		}

		var err error
		switch action {
		case ActionUpdated:
			err = d.notifications.Replace(notification)
		default:
			_, err = d.notifications.CreateIfAbsent(notification)
		}
		if err != nil {
			d.log.WithFields(logrus.Fields{
				"event_id": event.ID,
				"user_id":  user.ID,
				"action":   action,
			}).WithError(err).Warn("notification delivery failed")
			continue
		}
		result.Succeeded++
	}

	d.log.WithFields(logrus.Fields{
		"event_id":  event.ID,
		"action":    action,
		"targeted":  result.Targeted,
		"succeeded": result.Succeeded,
	}).Info("notifications dispatched")

	return result, nil
}

func composeMessage(event *models.Event, action Action) (title, message string) {
	schedule := fmt.Sprintf("%s from %s to %s at %s",
		event.StartTime.Format("Jan 2, 2006"),
		event.StartTime.Format("3:04 PM"),
		event.EndTime.Format("3:04 PM"),
		event.Location,
	)

	if action == ActionUpdated {
		title = fmt.Sprintf("Updated: %s", event.Title)
		message = fmt.Sprintf("The event %q has been updated. It now runs %s.", event.Title, schedule)
		return
	}
	title = fmt.Sprintf("New Event: %s", event.Title)
	message = fmt.Sprintf("You are invited to %q on %s.", event.Title, schedule)
	return
}
