package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kerrdetailing/booking-backend/internal/database"
)

// HealthHandler reports service liveness
type HealthHandler struct {
	db database.DB
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db database.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health returns liveness and database connectivity
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	dbStatus := "up"
	status := http.StatusOK
	if err := h.db.Ping(); err != nil {
		dbStatus = "down"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":   "ok",
		"database": dbStatus,
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}
