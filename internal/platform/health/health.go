package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Checker reports whether a dependency is usable.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckFunc adapts a function to Checker.
type CheckFunc struct {
	DependencyName string
	Fn             func(ctx context.Context) error
}

func (f CheckFunc) Name() string                    { return f.DependencyName }
func (f CheckFunc) Check(ctx context.Context) error { return f.Fn(ctx) }

// Handler serves liveness and readiness probes.
type Handler struct {
	service  string
	checkers []Checker
}

// NewHandler creates a probe handler for the given dependencies.
func NewHandler(service string, checkers ...Checker) *Handler {
	return &Handler{service: service, checkers: checkers}
}

// RegisterRoutes mounts /health and /health/ready.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.Live)
	r.GET("/health/ready", h.Ready)
}

// Live always answers ok while the process runs.
func (h *Handler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": h.service})
}

// Ready checks every dependency.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.checkers))
	for _, chk := range h.checkers {
		if err := chk.Check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			checks[chk.Name()] = err.Error()
			continue
		}
		checks[chk.Name()] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "unavailable"
	}
	c.JSON(status, gin.H{"status": state, "service": h.service, "checks": checks})
}
