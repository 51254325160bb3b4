package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

const checkTimeout = 2 * time.Second

// Check tests one dependency. A nil error means healthy.
type Check func(ctx context.Context) error

// HealthHandler serves liveness and readiness checks.
type HealthHandler struct {
	required map[string]Check
	optional map[string]Check
}

// NewHealthHandler creates a handler. Failing required checks make the service not ready;
// failing optional checks are only reported.
func NewHealthHandler(required, optional map[string]Check) *HealthHandler {
	return &HealthHandler{required: required, optional: optional}
}

// CheckResult outcome of one dependency check
type CheckResult struct {
	Name     string `json:"name"`
	OK       bool   `json:"ok"`
	Required bool   `json:"required"`
	Error    string `json:"error,omitempty"`
}

// Health liveness check
// @Summary      Liveness check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready readiness check
// @Summary      Readiness check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]any
// @Failure      503  {object}  map[string]any
// @Router       /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	results := make([]CheckResult, 0, len(h.required)+len(h.optional))
	ready := true
	for _, r := range runChecks(c.Request.Context(), h.required, true) {
		if !r.OK {
			ready = false
		}
		results = append(results, r)
	}
	results = append(results, runChecks(c.Request.Context(), h.optional, false)...)

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"checks": results,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"checks": results,
	})
}

func runChecks(ctx context.Context, checks map[string]Check, required bool) []CheckResult {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]CheckResult, 0, len(names))
	for _, name := range names {
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := checks[name](cctx)
		cancel()

		r := CheckResult{Name: name, OK: err == nil, Required: required}
		if err != nil {
			r.Error = err.Error()
		}
		results = append(results, r)
	}
	return results
}
