package handler

import (
	"context"
	"go-auth-api/common"
	"go-auth-api/logger"
	"net/http"
	"sort"
	"time"
)

// HealthChecker checks one dependency.
type HealthChecker func(ctx context.Context) error

type healthResponse struct {
	Status  string   `json:"status"`
	Failing []string `json:"failing,omitempty"`
}

// HealthCheck godoc
// @Summary      Show the status of server
// @Description  get the status of server and its dependencies
// @Tags         health
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /health [get]
func HealthCheck(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		var failing []string
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.Log.WithError(err).WithField("dependency", name).Warn("Health check failed")
				failing = append(failing, name)
			}
		}

		if len(failing) > 0 {
			sort.Strings(failing)
			common.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "API is degraded", Failing: failing})
			return
		}
		common.WriteJSON(w, http.StatusOK, healthResponse{Status: "API is healthy and running"})
	}
}
