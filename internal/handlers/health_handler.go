package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/salon-scheduler/internal/config"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

const probeTimeout = 3 * time.Second

// Pinger is implemented by the database-backed repository.
type Pinger interface {
	Ping(ctx context.Context) (int64, error)
}

type HealthHandler struct {
	mode   string
	pinger Pinger
}

// NewHealthHandler reports mode as configured. pinger is nil outside db
// mode.
func NewHealthHandler(mode string, pinger Pinger) *HealthHandler {
	return &HealthHandler{mode: mode, pinger: pinger}
}

// Live is the process liveness check.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":   true,
		"app":  "salon",
		"time": time.Now().UTC(),
		"mode": h.mode,
	})
}

// DB reports the data mode and, in db mode, whether the clients table
// answers. The payload is not wrapped in a data envelope.
func (h *HealthHandler) DB(c *gin.Context) {
	var mode *string
	if h.mode != "" {
		m := h.mode
		mode = &m
	}

	resp := models.Health{Mode: mode}

	if h.mode != config.ModeDB || h.pinger == nil {
		c.JSON(http.StatusOK, resp)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
	defer cancel()

	if _, err := h.pinger.Ping(ctx); err != nil {
		resp.Error = "Database probe failed."
		resp.DBProbeDetails = err.Error()
		if httperr.IsUndefinedTable(err) {
			resp.DBProbeDetails = "table missing: clients"
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	resp.OK = true
	resp.DBProbeOK = true
	c.JSON(http.StatusOK, resp)
}
