package handlers

import (
	"net/http"
	"taskManager/internal/handlers/dto"
	"taskManager/internal/logger"
	"taskManager/internal/middleware"
	"time"

	"go.uber.org/zap"
)

type AuthHandler struct {
	AuthService AuthService
}

func NewAuthHandler(authService AuthService) AuthHandler {
	return AuthHandler{
		AuthService: authService,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.RegisterRequest
	if !decodeAndValidate(w, r, &request) {
		return
	}

	res, err := h.AuthService.Register(r.Context(), request.ToInput())
	if err != nil {
		handleError(w, r, err, "Registration failed")
		return
	}

	logger.Info("HTTP_OUT: Пользователь зарегистрирован",
		zap.Int64("user_id", res.User.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	writeJSON(w, http.StatusCreated, dto.FromAuthResult("User registered successfully", res))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.LoginRequest
	if !decodeAndValidate(w, r, &request) {
		return
	}

	res, err := h.AuthService.Login(r.Context(), request.Email, request.Password)
	if err != nil {
		handleError(w, r, err, "Login failed")
		return
	}

	logger.Info("HTTP_OUT: Вход выполнен",
		zap.Int64("user_id", res.User.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, dto.FromAuthResult("Login successful", res))
}

func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.RequestOTPRequest
	if !decodeAndValidate(w, r, &request) {
		return
	}

	res, err := h.AuthService.RequestOTP(r.Context(), request.Email)
	if err != nil {
		handleError(w, r, err, "Failed to send OTP")
		return
	}

	logger.Info("HTTP_OUT: Код отправлен",
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, res)
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.VerifyOTPRequest
	if !decodeAndValidate(w, r, &request) {
		return
	}

	res, err := h.AuthService.VerifyOTP(r.Context(), request.Email, request.OTP)
	if err != nil {
		handleError(w, r, err, "OTP verification failed")
		return
	}

	logger.Info("HTTP_OUT: Вход по коду выполнен",
		zap.Int64("user_id", res.User.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, dto.FromAuthResult("Login successful", res))
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, err := h.AuthService.CurrentUser(middleware.IdentityFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err, "Failed to get user")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("user", identity))
}
