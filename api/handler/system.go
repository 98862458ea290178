package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sshcollectorpro/consoleprov/pkg/serial"
)

// SystemHandler 健康检查与串口列表
type SystemHandler struct {
	health func() error
	ports  serial.Opener
}

// NewSystemHandler health 通常为 database.Health
func NewSystemHandler(health func() error, ports serial.Opener) *SystemHandler {
	return &SystemHandler{health: health, ports: ports}
}

// Health GET /api/v1/health
func (h *SystemHandler) Health(c *gin.Context) {
	if h.health != nil {
		if err := h.health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "ok"})
}

// ListPorts GET /api/v1/ports
func (h *SystemHandler) ListPorts(c *gin.Context) {
	ports, err := h.ports.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ports": ports})
}
