package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"smartreminder/internal/database"
	"smartreminder/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Scheduler is the part of the reminder worker exposed to operators
type Scheduler interface {
	RunOnce(ctx context.Context) services.TickReport
}

// Handler serves the reminder API
type Handler struct {
	intake    *services.IntakeService
	store     database.ReminderStore
	scheduler Scheduler
}

// NewHandler creates the API handler
func NewHandler(intake *services.IntakeService, store database.ReminderStore, scheduler Scheduler) *Handler {
	return &Handler{intake: intake, store: store, scheduler: scheduler}
}

// NewRouter registers every route on a fresh gin engine
func NewRouter(h *Handler, corsOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.SetTrustedProxies([]string{"127.0.0.1"})

	corsConfig := cors.DefaultConfig()
	if len(corsOrigins) == 0 || (len(corsOrigins) == 1 && corsOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = corsOrigins
	}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.GET("/", HomeHandler)
	router.GET("/health", HealthHandler)

	router.POST("/reminders", h.CreateReminder)
	router.GET("/reminders", h.ListReminders)
	router.GET("/reminders/:id", h.GetReminder)

	admin := router.Group("/admin")
	{
		admin.POST("/reminders/:id/sent", h.MarkReminderSent)
		admin.POST("/scheduler/run", h.RunScheduler)
	}

	return router
}

// handleError provides a consistent way to handle and log errors
func handleError(c *gin.Context, status int, message string, err error) {
	log.Printf("Error: %v", err)
	c.JSON(status, gin.H{"error": message})
}

// HomeHandler handles requests to the root path "/"
func HomeHandler(c *gin.Context) {
	c.String(http.StatusOK, "Welcome to SmartReminder!")
}

// HealthHandler is a simple health check endpoint
func HealthHandler(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}
