package handlers

import (
	"context"
	"net/http"
	"taskManager/internal/logger"
	"time"
)

const serviceName = "task-manager"

type HealthHandler struct {
	Checker HealthChecker
	Timeout time.Duration
}

func NewHealthHandler(checker HealthChecker) HealthHandler {
	return HealthHandler{
		Checker: checker,
		Timeout: 2 * time.Second,
	}
}

func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	if err := h.Checker.HealthCheck(ctx); err != nil {
		logger.Error("HTTP: Health check не пройден", err)
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unavailable"),
			toPayload("service", serviceName))
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("status", "ok"),
		toPayload("service", serviceName))
}
