package handlers

import (
	"context"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
)

// Pinger is a backing store that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// JournalStats reports pending dual-write intents per state.
type JournalStats interface {
	Stats(ctx context.Context) (map[domain.WriteState]int64, error)
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	stores  map[string]Pinger
	journal JournalStats
}

// NewHealthHandler creates a health handler. journal may be nil.
func NewHealthHandler(stores map[string]Pinger, journal JournalStats) *HealthHandler {
	return &HealthHandler{stores: stores, journal: journal}
}

// Live handles liveness probe.
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready checks every store. Both halves of a record are needed to serve it,
// so one unreachable store makes the service unready.
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx := c.Request.Context()

	names := make([]string, 0, len(h.stores))
	for name := range h.stores {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	checks := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.stores[name].Ping(ctx); err != nil {
			checks[name] = "unhealthy: " + err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "healthy"
	}

	body := gin.H{"status": "ok", "checks": checks}
	if status != http.StatusOK {
		body["status"] = "error"
	}
	c.JSON(status, body)
}

// Info reports the dual-write journal backlog.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	body := gin.H{"app": "sos911", "version": "0.1.0"}
	if h.journal != nil {
		stats, err := h.journal.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "journal": err.Error()})
			return
		}
		body["journal"] = stats
	}
	c.JSON(http.StatusOK, body)
}
