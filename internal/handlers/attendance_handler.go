package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jpresto/eventpass/internal/attendance"
	"github.com/jpresto/eventpass/internal/helpers"
	"github.com/jpresto/eventpass/internal/models"
)

type AttendanceHandler struct {
	db      *gorm.DB
	service *attendance.Service
}

func NewAttendanceHandler(db *gorm.DB, service *attendance.Service) *AttendanceHandler {
	return &AttendanceHandler{db: db, service: service}
}

type TapRequest struct {
	CardID string `json:"card_id" binding:"required"`
}

func (h *AttendanceHandler) Join(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	event, ok := h.loadEvent(c)
	if !ok {
		return
	}

	record, err := h.service.Join(userID, event, time.Now().UTC())
	if err != nil {
		respondAttendanceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Checked in successfully.",
		"attendance": record,
	})
}

func (h *AttendanceHandler) Decline(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	event, ok := h.loadEvent(c)
	if !ok {
		return
	}

	reason := c.PostForm("reason")

	evidencePath := ""
	if evidenceFile, err := c.FormFile("evidence"); err == nil {
		evidencePath, err = helpers.UploadFile(c, evidenceFile, "decline_evidence")
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	record, err := h.service.Decline(userID, event, time.Now().UTC(), reason, evidencePath)
	if err != nil {
		respondAttendanceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Decline recorded.",
		"attendance": record,
	})
}

func (h *AttendanceHandler) RFIDTap(c *gin.Context) {
	var req TapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	event, ok := h.loadEvent(c)
	if !ok {
		return
	}

	record, alreadyCheckedIn, err := h.service.TapCard(req.CardID, event, time.Now().UTC())
	if err != nil {
		respondAttendanceError(c, err)
		return
	}

	message := "Checked in successfully."
	if alreadyCheckedIn {
		message = "Already checked in."
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    message,
		"attendance": record,
	})
}

func (h *AttendanceHandler) loadEvent(c *gin.Context) (*models.Event, bool) {
	eventID := c.Param("id")

	var event models.Event
	if err := h.db.Where("id = ?", eventID).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
			return nil, false
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving event.")
		return nil, false
	}
	return &event, true
}

func respondAttendanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, attendance.ErrEventNotStarted):
		helpers.RespondWithError(c, http.StatusBadRequest, "The event has not started yet.")
	case errors.Is(err, attendance.ErrEventEnded):
		helpers.RespondWithError(c, http.StatusBadRequest, "The event has already ended.")
	case errors.Is(err, attendance.ErrAlreadyResponded):
		helpers.RespondWithError(c, http.StatusConflict, "You have already responded to this event.")
	case errors.Is(err, attendance.ErrCardNotRegistered):
		helpers.RespondWithError(c, http.StatusNotFound, "This card is not registered to any user.")
	case errors.Is(err, attendance.ErrValidation):
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
	default:
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to record attendance.")
	}
}
