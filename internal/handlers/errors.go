package handlers

import (
	"net/http"
	"strconv"
	"taskManager/internal/logger"
	"taskManager/internal/service"

	"go.uber.org/zap"
)

// handleError отвечает бизнес-ошибкой как есть, всё остальное - 500 с defaultMessage
func handleError(w http.ResponseWriter, r *http.Request, err error, defaultMessage string) {
	if businessErr, ok := service.AsBusiness(err); ok {
		statusCode := mapBusinessErrorToHTTP(businessErr.Code)

		logger.Warn("HTTP: Бизнес-ошибка",
			zap.String("error_code", businessErr.Code),
			zap.Int("http_status", statusCode),
			zap.String("path", r.URL.Path))

		if retryAfter, ok := businessErr.Details["retry_after"].(int); ok {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		}

		message := businessErr.Message
		if businessErr.Code == service.CodeInternal {
			message = defaultMessage
		}
		responseWithError(w, statusCode, message)
		return
	}

	logger.Error("HTTP: Ошибка Service", err,
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("client_ip", r.RemoteAddr))

	responseWithError(w, http.StatusInternalServerError, defaultMessage)
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeValidation, service.CodeConflict:
		return http.StatusBadRequest
	case service.CodeAuth:
		return http.StatusUnauthorized
	case service.CodeForbidden:
		return http.StatusForbidden
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
