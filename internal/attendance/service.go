// Package attendance implements the per-event check-in state machine:
// pending, present and absent, driven by join, decline and RFID taps.
package attendance

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jpresto/eventpass/internal/models"
)

// Store is the persistence slice for attendance records. Find returns
// (nil, nil) when no record exists for the pair; a missing row behaves as
// pending for every guard.
type Store interface {
	Find(userID, eventID uuid.UUID) (*models.Attendance, error)
	Create(record *models.Attendance) error
	Save(record *models.Attendance) error
}

// CardResolver maps a physical RFID chip id to its owner. FindByCard
// returns (nil, nil) when the card is unknown.
type CardResolver interface {
	FindByCard(cardID string) (*models.User, error)
}

type Service struct {
	records Store
	cards   CardResolver
	log     *logrus.Logger

	mu    sync.Mutex
	locks map[pairKey]*pairLock
}

type pairKey struct {
	userID  uuid.UUID
	eventID uuid.UUID
}

// pairLock is refcounted so the map entry can be evicted once the last
// holder releases it, keeping the lock table bounded by in-flight pairs
// rather than by every pair ever seen.
type pairLock struct {
	sync.Mutex
	refs int
}

func NewService(records Store, cards CardResolver, log *logrus.Logger) *Service {
	return &Service{
		records: records,
		cards:   cards,
		log:     log,
		locks:   make(map[pairKey]*pairLock),
	}
}

// lockPair serializes all transitions for one (user, event) pair so the
// record-exists check and the following create or update happen atomically.
// Unrelated pairs proceed in parallel. The returned release func drops the
// lock's map entry when no other caller holds or awaits it.
func (s *Service) lockPair(userID, eventID uuid.UUID) func() {
	key := pairKey{userID: userID, eventID: eventID}

	s.mu.Lock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &pairLock{}
		s.locks[key] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.Lock()
	return func() {
		lock.Unlock()

		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

// Join marks the user present. Joining early, before start_time, is
// explicitly allowed; only a closed window rejects. Repeat joins keep the
// single record and move checked_in_at to the latest call.
func (s *Service) Join(userID uuid.UUID, event *models.Event, now time.Time) (*models.Attendance, error) {
	if now.After(event.EndTime) {
		return nil, ErrEventEnded
	}

	unlock := s.lockPair(userID, event.ID)
	defer unlock()

	record, err := s.records.Find(userID, event.ID)
	if err != nil {
		return nil, err
	}

	checkedIn := now
	if record == nil {
		record = &models.Attendance{
			UserID:      userID,
			EventID:     event.ID,
			Status:      models.AttendancePresent,
			CheckedInAt: &checkedIn,
		}
		if err := s.records.Create(record); err != nil {
			return nil, err
		}
		return record, nil
	}

	record.Status = models.AttendancePresent
	record.CheckedInAt = &checkedIn
	clearDecline(record)
	if err := s.records.Save(record); err != nil {
		return nil, err
	}
	return record, nil
}

// clearDecline drops the decline fields when a record flips to present, so
// a present record never carries a stale decline timestamp or evidence.
func clearDecline(record *models.Attendance) {
	record.Reason = ""
	record.DeclinedAt = nil
	record.EvidenceImage = ""
}

// Decline marks the user absent with a reason. Unlike Join it is gated on
// the event having actually started, and it refuses to overwrite any
// existing response for the pair.
func (s *Service) Decline(userID uuid.UUID, event *models.Event, now time.Time, reason, evidenceImage string) (*models.Attendance, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrValidation
	}
	if now.Before(event.StartTime) {
		return nil, ErrEventNotStarted
	}
	if now.After(event.EndTime) {
		return nil, ErrEventEnded
	}

	unlock := s.lockPair(userID, event.ID)
	defer unlock()

	existing, err := s.records.Find(userID, event.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyResponded
	}

	declined := now
	record := &models.Attendance{
		UserID:        userID,
		EventID:       event.ID,
		Status:        models.AttendanceAbsent,
		DeclinedAt:    &declined,
		Reason:        strings.TrimSpace(reason),
		EvidenceImage: evidenceImage,
	}
	if err := s.records.Create(record); err != nil {
		return nil, err
	}
	return record, nil
}

// RFIDTap forces the record to present: a physical tap is the ground truth
// for attendance and overrides a prior absent. A tap on an already-present
// record is a no-op that reports alreadyCheckedIn and keeps the original
// checked_in_at.
func (s *Service) RFIDTap(userID uuid.UUID, event *models.Event, now time.Time) (record *models.Attendance, alreadyCheckedIn bool, err error) {
	if now.After(event.EndTime) {
		return nil, false, ErrEventEnded
	}

	unlock := s.lockPair(userID, event.ID)
	defer unlock()

	record, err = s.records.Find(userID, event.ID)
	if err != nil {
		return nil, false, err
	}

	checkedIn := now
	if record == nil {
		record = &models.Attendance{
			UserID:      userID,
			EventID:     event.ID,
			Status:      models.AttendancePresent,
			CheckedInAt: &checkedIn,
		}
		if err := s.records.Create(record); err != nil {
			return nil, false, err
		}
		return record, false, nil
	}

	if record.Status == models.AttendancePresent {
		return record, true, nil
	}

	record.Status = models.AttendancePresent
	record.CheckedInAt = &checkedIn
	clearDecline(record)
	if err := s.records.Save(record); err != nil {
		return nil, false, err
	}
	return record, false, nil
}

// TapCard resolves a physical card id to its owner and taps for them.
func (s *Service) TapCard(cardID string, event *models.Event, now time.Time) (*models.Attendance, bool, error) {
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		return nil, false, ErrValidation
	}

	user, err := s.cards.FindByCard(cardID)
	if err != nil {
		return nil, false, err
	}
	if user == nil {
		s.log.WithField("card_id", cardID).Warn("tap from unregistered rfid card")
		return nil, false, ErrCardNotRegistered
	}

	return s.RFIDTap(user.ID, event, now)
}
