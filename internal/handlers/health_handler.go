package handlers

import (
	"audit-service/internal/models"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.Status)
	router.GET("/ping", h.Ping)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (h *HealthHandler) Ping(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

func (h *HealthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "Online",
		"message":          "Utility Audit API is running",
		"systems":          []string{"Authentication", "Audit Logs", "State Monitoring"},
		"monitored_states": models.MonitoredStates,
	})
}
