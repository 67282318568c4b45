package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/jpresto/eventpass/internal/helpers"
	"github.com/jpresto/eventpass/internal/lifecycle"
	"github.com/jpresto/eventpass/internal/models"
	"github.com/jpresto/eventpass/internal/notify"
	"github.com/jpresto/eventpass/internal/realtime"
)

type EventHandler struct {
	db         *gorm.DB
	dispatcher *notify.Dispatcher
	hub        *realtime.Hub
	log        *logrus.Logger
}

func NewEventHandler(db *gorm.DB, dispatcher *notify.Dispatcher, hub *realtime.Hub, log *logrus.Logger) *EventHandler {
	return &EventHandler{db: db, dispatcher: dispatcher, hub: hub, log: log}
}

type EventRequest struct {
	Title          string    `json:"title" binding:"required"`
	Description    string    `json:"description" binding:"required"`
	StartTime      time.Time `json:"start_time" binding:"required"`
	EndTime        time.Time `json:"end_time" binding:"required,gtfield=StartTime"`
	Location       string    `json:"location" binding:"required"`
	Venue          string    `json:"venue"`
	Category       string    `json:"category"`
	TargetAudience string    `json:"target_audience" binding:"required,audience"`
	Course         string    `json:"course"`
}

func (h *EventHandler) Create(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	organizerID, ok := currentUserID(c)
	if !ok {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	now := time.Now().UTC()

	event := models.Event{
		Title:          req.Title,
		Description:    req.Description,
		StartTime:      req.StartTime.UTC(),
		EndTime:        req.EndTime.UTC(),
		Location:       req.Location,
		TargetAudience: models.TargetAudience(req.TargetAudience),
		OrganizerID:    organizerID,
	}
	if req.Course != "" {
		event.Course = &req.Course
	}
	event.NormalizeCourse()
	event.Status = lifecycle.StatusAt(event.StartTime, event.EndTime, now)

	if err := h.attachRefs(&event, req.Venue, req.Category); err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error processing venue or category.")
		return
	}

	if err := h.db.Create(&event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create event.")
		return
	}

	// Fan-out is best-effort and runs only after the event write committed;
	// a delivery problem never fails the create itself.
	result, err := h.dispatcher.Dispatch(&event, notify.ActionCreated, now)
	if err != nil {
		h.log.WithError(err).WithField("event_id", event.ID).Warn("notification dispatch failed")
	}

	h.hub.Broadcast(gin.H{"type": "event_created", "event": event})

	c.JSON(http.StatusCreated, gin.H{
		"message":       "Event created successfully.",
		"event":         event,
		"notifications": result,
	})
}

func (h *EventHandler) Update(c *gin.Context) {
	eventID := c.Param("id")

	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	var event models.Event
	if err := h.db.Where("id = ?", eventID).First(&event).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error finding event.")
		return
	}

	now := time.Now().UTC()

	event.Title = req.Title
	event.Description = req.Description
	event.StartTime = req.StartTime.UTC()
	event.EndTime = req.EndTime.UTC()
	event.Location = req.Location
	event.TargetAudience = models.TargetAudience(req.TargetAudience)
	event.Course = nil
	if req.Course != "" {
		event.Course = &req.Course
	}
	event.NormalizeCourse()
	if event.Status != models.StatusCancelled {
		event.Status = lifecycle.StatusAt(event.StartTime, event.EndTime, now)
	}

	if err := h.attachRefs(&event, req.Venue, req.Category); err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error processing venue or category.")
		return
	}

	if err := h.db.Save(&event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update event.")
		return
	}

	result, err := h.dispatcher.Dispatch(&event, notify.ActionUpdated, now)
	if err != nil {
		h.log.WithError(err).WithField("event_id", event.ID).Warn("notification dispatch failed")
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Event updated successfully.",
		"event":         event,
		"notifications": result,
	})
}

// Cancel flips the event into its terminal cancelled state. The reconciler
// never overwrites a cancelled status.
func (h *EventHandler) Cancel(c *gin.Context) {
	eventID := c.Param("id")

	result := h.db.Model(&models.Event{}).Where("id = ?", eventID).Update("status", models.StatusCancelled)
	if result.Error != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to cancel event.")
		return
	}
	if result.RowsAffected == 0 {
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event cancelled successfully."})
}

// Delete removes the event and its dependents in explicit order inside one
// transaction: attendance first, notifications second, the event last.
func (h *EventHandler) Delete(c *gin.Context) {
	eventID := c.Param("id")

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", eventID).Delete(&models.Attendance{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", eventID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", eventID).Delete(&models.Event{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err == gorm.ErrRecordNotFound {
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		return
	}
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete event.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully."})
}

func (h *EventHandler) Get(c *gin.Context) {
	eventID := c.Param("id")

	var event models.Event
	if err := h.db.Preload("Venue").Preload("Category").Preload("Organizer").Where("id = ?", eventID).First(&event).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving event.")
		return
	}

	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) List(c *gin.Context) {
	page := c.DefaultQuery("page", "1")
	limit := c.DefaultQuery("limit", "10")

	pageNum, err := helpers.StringToInt(page)
	if err != nil || pageNum < 1 {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid page number.")
		return
	}
	limitNum, err := helpers.StringToInt(limit)
	if err != nil || limitNum < 1 {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid limit.")
		return
	}

	query := h.db.Model(&models.Event{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if audience := c.Query("target_audience"); audience != "" {
		query = query.Where("target_audience = ?", audience)
	}

	var totalCount int64
	query.Count(&totalCount)

	var events []models.Event
	offset := (pageNum - 1) * limitNum
	err = query.Preload("Venue").Preload("Category").Offset(offset).Limit(limitNum).Order("start_time ASC").Find(&events).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving events.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events":      events,
		"total":       totalCount,
		"page":        pageNum,
		"limit":       limitNum,
		"total_pages": (totalCount + int64(limitNum) - 1) / int64(limitNum),
	})
}

// attachRefs resolves venue and category names to weak references, creating
// catalog rows on first use.
func (h *EventHandler) attachRefs(event *models.Event, venueName, categoryName string) error {
	if venueName != "" {
		var venue models.Venue
		if err := h.db.Where("name = ?", venueName).FirstOrCreate(&venue, models.Venue{Name: venueName}).Error; err != nil {
			return err
		}
		event.VenueID = &venue.ID
	}
	if categoryName != "" {
		var category models.Category
		if err := h.db.Where("name = ?", categoryName).FirstOrCreate(&category, models.Category{Name: categoryName}).Error; err != nil {
			return err
		}
		event.CategoryID = &category.ID
	}
	return nil
}
