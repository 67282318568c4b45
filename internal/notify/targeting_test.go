package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpresto/eventpass/internal/models"
)

type fakeUserStore struct {
	users []models.User
}

func (f *fakeUserStore) ListAll() ([]models.User, error) {
	return append([]models.User(nil), f.users...), nil
}

func (f *fakeUserStore) ListByEducationLevel(level models.EducationLevel) ([]models.User, error) {
	var out []models.User
	for _, user := range f.users {
		if user.EducationLevel == level {
			out = append(out, user)
		}
	}
	return out, nil
}

func (f *fakeUserStore) ListCollege(course string) ([]models.User, error) {
	var out []models.User
	for _, user := range f.users {
		if user.EducationLevel != models.LevelCollege {
			continue
		}
		if course != "" && !strings.EqualFold(user.Department, course) {
			continue
		}
		out = append(out, user)
	}
	return out, nil
}

func newStudent(name, email string, level models.EducationLevel, department string) models.User {
	return models.User{
		ID:             uuid.New(),
		Name:           name,
		Email:          email,
		EducationLevel: level,
		Department:     department,
	}
}

func campusUsers() *fakeUserStore {
	return &fakeUserStore{users: []models.User{
		newStudent("Ana", "ana@x.com", models.LevelElementary, ""),
		newStudent("Ben", "ben@x.com", models.LevelHighSchool, ""),
		newStudent("Cara", "cara@x.com", models.LevelSeniorHigh, ""),
		newStudent("Dom", "dom@x.com", models.LevelCollege, "BSIT"),
		newStudent("Eva", "eva@x.com", models.LevelCollege, "BSCS"),
	}}
}

func upcomingEvent(audience models.TargetAudience, course *string) (*models.Event, time.Time) {
	now := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	return &models.Event{
		ID:             uuid.New(),
		Title:          "Orientation",
		StartTime:      now.Add(time.Hour),
		EndTime:        now.Add(3 * time.Hour),
		Status:         models.StatusUpcoming,
		TargetAudience: audience,
		Course:         course,
	}, now
}

func emails(users []models.User) []string {
	out := make([]string, 0, len(users))
	for _, user := range users {
		out = append(out, user.Email)
	}
	return out
}

func TestAudienceAllStudents(t *testing.T) {
	event, now := upcomingEvent(models.AudienceAllStudents, nil)

	targeted, err := Audience(campusUsers(), event, now)
	require.NoError(t, err)
	assert.Len(t, targeted, 5)
}

func TestAudienceByEducationLevel(t *testing.T) {
	event, now := upcomingEvent(models.AudienceSeniorHigh, nil)

	targeted, err := Audience(campusUsers(), event, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"cara@x.com"}, emails(targeted))
}

func TestAudienceCollegeCourse(t *testing.T) {
	course := "BSIT"
	event, now := upcomingEvent(models.AudienceCollege, &course)

	targeted, err := Audience(campusUsers(), event, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"dom@x.com"}, emails(targeted))
}

// The department match is case-insensitive equality.
func TestAudienceCollegeCourseCaseInsensitive(t *testing.T) {
	users := &fakeUserStore{users: []models.User{
		newStudent("Dom", "dom@x.com", models.LevelCollege, "bsit"),
	}}
	course := "BSIT"
	event, now := upcomingEvent(models.AudienceCollege, &course)

	targeted, err := Audience(users, event, now)
	require.NoError(t, err)
	assert.Len(t, targeted, 1)
}

// A nil course, the normalized form of the all_college sentinel, targets
// every College user regardless of department.
func TestAudienceAllCollege(t *testing.T) {
	sentinel := models.AllCollegeSentinel
	event, now := upcomingEvent(models.AudienceCollege, &sentinel)
	event.NormalizeCourse()
	require.Nil(t, event.Course, "sentinel must never survive normalization")

	targeted, err := Audience(campusUsers(), event, now)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"dom@x.com", "eva@x.com"}, emails(targeted))
}

// Two accounts sharing an email collapse to one target.
func TestAudienceDedupByEmail(t *testing.T) {
	users := &fakeUserStore{users: []models.User{
		newStudent("Ana", "a@x.com", models.LevelElementary, ""),
		newStudent("Ana Alt", "A@X.com", models.LevelElementary, ""),
	}}
	event, now := upcomingEvent(models.AudienceElementary, nil)

	targeted, err := Audience(users, event, now)
	require.NoError(t, err)
	assert.Len(t, targeted, 1)
}

// Only upcoming or ongoing events have an audience; completed and
// cancelled events short-circuit to an empty set.
func TestAudienceInactiveEvent(t *testing.T) {
	event, _ := upcomingEvent(models.AudienceAllStudents, nil)
	afterEnd := event.EndTime.Add(time.Hour)

	targeted, err := Audience(campusUsers(), event, afterEnd)
	require.NoError(t, err)
	assert.Empty(t, targeted)

	event.Status = models.StatusCancelled
	_, now := upcomingEvent(models.AudienceAllStudents, nil)
	targeted, err = Audience(campusUsers(), event, now)
	require.NoError(t, err)
	assert.Empty(t, targeted)
}

func TestAudienceOngoingEvent(t *testing.T) {
	event, _ := upcomingEvent(models.AudienceAllStudents, nil)
	mid := event.StartTime.Add(30 * time.Minute)

	targeted, err := Audience(campusUsers(), event, mid)
	require.NoError(t, err)
	assert.Len(t, targeted, 5)
}
