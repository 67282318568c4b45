package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jpresto/eventpass/internal/helpers"
	"github.com/jpresto/eventpass/internal/lifecycle"
	"github.com/jpresto/eventpass/internal/models"
)

// DashboardHandler serves the read-only projections the admin screens and
// exports render. Nothing here mutates state except the manual reconcile
// trigger.
type DashboardHandler struct {
	db         *gorm.DB
	reconciler *lifecycle.Reconciler
}

func NewDashboardHandler(db *gorm.DB, reconciler *lifecycle.Reconciler) *DashboardHandler {
	return &DashboardHandler{db: db, reconciler: reconciler}
}

func (h *DashboardHandler) Overview(c *gin.Context) {
	statusCounts := map[string]int64{}
	for _, status := range []models.EventStatus{
		models.StatusUpcoming, models.StatusOngoing, models.StatusCompleted, models.StatusCancelled,
	} {
		var count int64
		if err := h.db.Model(&models.Event{}).Where("status = ?", status).Count(&count).Error; err != nil {
			helpers.RespondWithError(c, http.StatusInternalServerError, "Error building dashboard.")
			return
		}
		statusCounts[string(status)] = count
	}

	var studentCount int64
	h.db.Model(&models.User{}).Count(&studentCount)

	var upcoming []models.Event
	h.db.Where("status = ?", models.StatusUpcoming).Order("start_time ASC").Limit(5).Find(&upcoming)

	c.JSON(http.StatusOK, gin.H{
		"events_by_status": statusCounts,
		"students":         studentCount,
		"next_events":      upcoming,
	})
}

// Attendees returns the attendance sheet for one event: every response so
// far plus per-status tallies.
func (h *DashboardHandler) Attendees(c *gin.Context) {
	eventID := c.Param("id")

	var event models.Event
	if err := h.db.Where("id = ?", eventID).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving event.")
		return
	}

	var records []models.Attendance
	if err := h.db.Preload("User").Where("event_id = ?", eventID).Order("created_at ASC").Find(&records).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving attendance.")
		return
	}

	counts := map[string]int{}
	for _, record := range records {
		counts[string(record.Status)]++
	}

	c.JSON(http.StatusOK, gin.H{
		"event":     event,
		"attendees": records,
		"counts":    counts,
	})
}

// Reconcile lets an administrator force a status reconcile outside the
// cron schedule.
func (h *DashboardHandler) Reconcile(c *gin.Context) {
	updated, err := h.reconciler.ReconcileStatuses(time.Now().UTC())
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to reconcile event statuses.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Event statuses reconciled.",
		"updated": updated,
	})
}
