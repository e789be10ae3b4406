package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthStatus is the body of the /health endpoint.
type HealthStatus struct {
	Status      string    `json:"status"`
	Storage     string    `json:"storage"`
	LastChecked time.Time `json:"last_checked"`
	Uptime      string    `json:"uptime"`
	Version     string    `json:"version"`
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Health struct {
	mu            sync.Mutex
	pinger        Pinger
	version       string
	startTime     time.Time
	cached        *HealthStatus
	cacheDuration time.Duration
}

func NewHealth(pinger Pinger, version string) *Health {
	return &Health{
		pinger:        pinger,
		version:       version,
		startTime:     time.Now(),
		cacheDuration: 5 * time.Second,
	}
}

// HealthCheckMiddleware serves the health status, cached for a few seconds.
func (h *Health) HealthCheckMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := h.check(c.Request.Context())

		code := http.StatusOK
		if status.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	}
}

func (h *Health) check(ctx context.Context) HealthStatus {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	if h.cached != nil && now.Sub(h.cached.LastChecked) < h.cacheDuration {
		return *h.cached
	}

	status := HealthStatus{
		Status:      "ok",
		Storage:     "ok",
		LastChecked: now,
		Uptime:      now.Sub(h.startTime).Round(time.Second).String(),
		Version:     h.version,
	}
	if h.pinger != nil {
		if err := h.pinger.Ping(ctx); err != nil {
			status.Status = "degraded"
			status.Storage = err.Error()
		}
	}

	h.cached = &status
	return status
}
