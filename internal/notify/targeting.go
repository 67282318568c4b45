// Package notify resolves which students an event is aimed at and fans
// notifications out to them on event creation and update.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/jpresto/eventpass/internal/lifecycle"
	"github.com/jpresto/eventpass/internal/models"
)

// UserStore is the user-lookup slice the resolver needs.
type UserStore interface {
	ListAll() ([]models.User, error)
	ListByEducationLevel(level models.EducationLevel) ([]models.User, error)
	// ListCollege returns College users; a non-empty course narrows by
	// department, compared case-insensitively.
	ListCollege(course string) ([]models.User, error)
}

var audienceLevels = map[models.TargetAudience]models.EducationLevel{
	models.AudienceElementary: models.LevelElementary,
	models.AudienceHighSchool: models.LevelHighSchool,
	models.AudienceSeniorHigh: models.LevelSeniorHigh,
}

// Audience resolves the event's (target_audience, course) pair into the set
// of users to notify, deduplicated by email. Only events whose derived
// status at now is upcoming or ongoing produce an audience; anything else
// short-circuits to an empty set.
func Audience(users UserStore, event *models.Event, now time.Time) ([]models.User, error) {
	if event.Status == models.StatusCancelled {
		return nil, nil
	}
	switch lifecycle.StatusAt(event.StartTime, event.EndTime, now) {
	case models.StatusUpcoming, models.StatusOngoing:
	default:
		return nil, nil
	}

	var (
		targeted []models.User
		err      error
	)
	switch event.TargetAudience {
	case models.AudienceAllStudents:
		targeted, err = users.ListAll()
	case models.AudienceCollege:
		course := ""
		if event.Course != nil {
			course = *event.Course
		}
		targeted, err = users.ListCollege(course)
	default:
		level, ok := audienceLevels[event.TargetAudience]
		if !ok {
			return nil, fmt.Errorf("unknown target audience %q", event.TargetAudience)
		}
		targeted, err = users.ListByEducationLevel(level)
	}
	if err != nil {
		return nil, err
	}

	return dedupByEmail(targeted), nil
}

// dedupByEmail collapses accounts sharing an email address into a single
// notification target; the first account seen wins.
func dedupByEmail(users []models.User) []models.User {
	seen := make(map[string]struct{}, len(users))
	out := make([]models.User, 0, len(users))
	for _, user := range users {
		email := strings.ToLower(strings.TrimSpace(user.Email))
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, user)
	}
	return out
}
