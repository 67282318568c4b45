package notify

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpresto/eventpass/internal/models"
)

type pair struct {
	userID  uuid.UUID
	eventID uuid.UUID
}

type fakeNotificationStore struct {
	mu       sync.Mutex
	rows     map[pair]*models.Notification
	failFor  map[uuid.UUID]error
	replaces int
}

func newFakeNotificationStore() *fakeNotificationStore {
	return &fakeNotificationStore{
		rows:    make(map[pair]*models.Notification),
		failFor: make(map[uuid.UUID]error),
	}
}

func (f *fakeNotificationStore) CreateIfAbsent(notification *models.Notification) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[notification.UserID]; err != nil {
		return false, err
	}
	key := pair{userID: notification.UserID, eventID: notification.EventID}
	if _, exists := f.rows[key]; exists {
		return false, nil
	}
	notification.ID = uuid.New()
	clone := *notification
	f.rows[key] = &clone
	return true, nil
}

func (f *fakeNotificationStore) Replace(notification *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[notification.UserID]; err != nil {
		return err
	}
	notification.ID = uuid.New()
	clone := *notification
	f.rows[pair{userID: notification.UserID, eventID: notification.EventID}] = &clone
	f.replaces++
	return nil
}

func (f *fakeNotificationStore) row(userID, eventID uuid.UUID) *models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[pair{userID: userID, eventID: eventID}]
}

func newTestDispatcher(users UserStore, store NotificationStore) *Dispatcher {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewDispatcher(users, store, log)
}

func TestDispatchCreated(t *testing.T) {
	users := campusUsers()
	store := newFakeNotificationStore()
	d := newTestDispatcher(users, store)

	event, now := upcomingEvent(models.AudienceAllStudents, nil)

	result, err := d.Dispatch(event, ActionCreated, now)
	require.NoError(t, err)
	assert.Equal(t, Result{Targeted: 5, Succeeded: 5}, result)

	row := store.row(users.users[0].ID, event.ID)
	require.NotNil(t, row)
	assert.False(t, row.IsRead)
	assert.Contains(t, row.Title, event.Title)
}

// Created mode is first-write-wins: a duplicate trigger rewrites nothing.
func TestDispatchCreatedIdempotent(t *testing.T) {
	users := campusUsers()
	store := newFakeNotificationStore()
	d := newTestDispatcher(users, store)

	event, now := upcomingEvent(models.AudienceAllStudents, nil)

	_, err := d.Dispatch(event, ActionCreated, now)
	require.NoError(t, err)
	original := *store.row(users.users[0].ID, event.ID)

	_, err = d.Dispatch(event, ActionCreated, now.Add(time.Minute))
	require.NoError(t, err)

	row := store.row(users.users[0].ID, event.ID)
	assert.Equal(t, original.ID, row.ID)
	assert.True(t, row.CreatedAt.Equal(original.CreatedAt))
}

// Updated mode deletes the old row and writes a fresh unread one: after the
// dispatch the user still has exactly one row, with a new identity and a
// strictly later timestamp.
func TestDispatchUpdatedReplacesRow(t *testing.T) {
	users := campusUsers()
	store := newFakeNotificationStore()
	d := newTestDispatcher(users, store)

	event, now := upcomingEvent(models.AudienceAllStudents, nil)
	userID := users.users[0].ID

	_, err := d.Dispatch(event, ActionCreated, now)
	require.NoError(t, err)
	original := *store.row(userID, event.ID)

	// the user read the first notification before the event changed
	store.row(userID, event.ID).IsRead = true

	later := now.Add(time.Hour)
	result, err := d.Dispatch(event, ActionUpdated, later)
	require.NoError(t, err)
	assert.Equal(t, Result{Targeted: 5, Succeeded: 5}, result)

	row := store.row(userID, event.ID)
	require.NotNil(t, row)
	assert.NotEqual(t, original.ID, row.ID, "old row must be gone")
	assert.True(t, row.CreatedAt.After(original.CreatedAt))
	assert.False(t, row.IsRead)
}

// One user's delivery failure is counted, not fatal to the batch.
func TestDispatchPartialFailure(t *testing.T) {
	users := campusUsers()
	store := newFakeNotificationStore()
	store.failFor[users.users[1].ID] = errors.New("insert refused")
	d := newTestDispatcher(users, store)

	event, now := upcomingEvent(models.AudienceAllStudents, nil)

	result, err := d.Dispatch(event, ActionCreated, now)
	require.NoError(t, err)
	assert.Equal(t, Result{Targeted: 5, Succeeded: 4}, result)
}

// A completed event has no audience, so dispatch does no work at all.
func TestDispatchInactiveEvent(t *testing.T) {
	users := campusUsers()
	store := newFakeNotificationStore()
	d := newTestDispatcher(users, store)

	event, _ := upcomingEvent(models.AudienceAllStudents, nil)

	result, err := d.Dispatch(event, ActionCreated, event.EndTime.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, Result{}, result)
	assert.Empty(t, store.rows)
}
