package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ikiraha/backend/internal/model"
)

type HealthHandler struct {
	pool        *pgxpool.Pool
	environment string
}

func NewHealthHandler(pool *pgxpool.Pool, environment string) *HealthHandler {
	return &HealthHandler{pool: pool, environment: environment}
}

// Health godoc
// @Summary Health check
// @Tags meta
// @Produce json
// @Success 200 {object} model.HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	database := "connected"
	if err := h.pool.Ping(c.Request.Context()); err != nil {
		database = "disconnected"
	}

	c.JSON(http.StatusOK, model.HealthResponse{
		Success:     true,
		Message:     "Server is running",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Database:    database,
		Environment: h.environment,
	})
}

// Root godoc
// @Summary API welcome document
// @Tags meta
// @Produce json
// @Success 200 {object} model.WelcomeResponse
// @Router / [get]
func Root(c *gin.Context) {
	c.JSON(http.StatusOK, model.WelcomeResponse{
		Success:       true,
		Message:       "Welcome to Ikiraha API",
		Version:       "1.0.0",
		Documentation: "/openapi.json",
		Endpoints: map[string]string{
			"auth":        "/api/auth",
			"restaurants": "/api/restaurants",
			"health":      "/health",
		},
	})
}
