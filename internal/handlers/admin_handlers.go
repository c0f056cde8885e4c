package handlers

import (
	"net/http"
	"taskManager/internal/logger"
	"time"

	"go.uber.org/zap"
)

type AdminHandler struct {
	AdminService AdminService
}

func NewAdminHandler(adminService AdminService) AdminHandler {
	return AdminHandler{
		AdminService: adminService,
	}
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	d, err := h.AdminService.Dashboard(r.Context())
	if err != nil {
		handleError(w, r, err, "Failed to fetch dashboard data")
		return
	}

	logger.Info("HTTP_OUT: Сводка собрана",
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("dashboard", d))
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.AdminService.Users(r.Context())
	if err != nil {
		handleError(w, r, err, "Failed to fetch users")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("users", users))
}
