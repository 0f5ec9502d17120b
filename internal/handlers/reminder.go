package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"smartreminder/internal/database"
	"smartreminder/internal/models"
	"smartreminder/internal/utils"

	"github.com/gin-gonic/gin"
)

// CreateReminder schedules a reminder from a JSON body or a submitted form
func (h *Handler) CreateReminder(c *gin.Context) {
	var req models.CreateReminderRequest
	if err := c.ShouldBind(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	scheduled, err := h.intake.Schedule(c.Request.Context(), req)
	if err != nil {
		var vErr *models.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"errors": vErr.Problems})
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to schedule reminder", err)
		return
	}

	log.Printf("Reminder id=%d accepted from %s", scheduled.Reminder.ID, utils.GetRealClientIP(c))
	c.JSON(http.StatusCreated, scheduled)
}

// GetReminder returns one reminder by id
func (h *Handler) GetReminder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	reminder, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Reminder not found"})
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch reminder", err)
		return
	}

	c.JSON(http.StatusOK, reminder)
}

// ListReminders lists reminders newest first, optionally filtered by ?sent=
func (h *Handler) ListReminders(c *gin.Context) {
	var filter database.ListFilter

	if sentStr := c.Query("sent"); sentStr != "" {
		sent, err := strconv.ParseBool(sentStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "sent must be true or false"})
			return
		}
		filter.Sent = &sent
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			filter.Limit = parsedLimit
		}
	}

	reminders, err := h.store.List(c.Request.Context(), filter)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to list reminders", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reminders": reminders})
}

// MarkReminderSent lets an operator mark a reminder as delivered by hand
func (h *Handler) MarkReminderSent(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if _, err := h.store.Get(c.Request.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Reminder not found"})
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch reminder", err)
		return
	}

	transitioned, err := h.store.MarkSent(c.Request.Context(), id)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to mark reminder sent", err)
		return
	}

	log.Printf("Reminder id=%d marked sent by operator %s (transitioned=%v)", id, utils.GetRealClientIP(c), transitioned)
	c.JSON(http.StatusOK, gin.H{"id": id, "transitioned": transitioned})
}

// RunScheduler triggers one scheduler tick immediately
func (h *Handler) RunScheduler(c *gin.Context) {
	report := h.scheduler.RunOnce(c.Request.Context())
	c.JSON(http.StatusOK, report)
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reminder id"})
		return 0, false
	}
	return uint(id), true
}
