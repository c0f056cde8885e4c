package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"taskManager/internal/auth"
	"taskManager/internal/logger"
	"taskManager/internal/models/user"
	rep "taskManager/internal/repository"

	"go.uber.org/zap"
)

const identityKey contextKey = "identity"

// причины отказа, попадают в поле reason ответа
const (
	ReasonMissingToken    = "missing_token"
	ReasonInvalidToken    = "invalid_token"
	ReasonTokenExpired    = "token_expired"
	ReasonUserNotFound    = "user_not_found"
	ReasonAccountInactive = "account_inactive"
)

type TokenParser interface {
	Parse(token string) (int64, error)
}

type UserFinder interface {
	GetUserByID(ctx context.Context, id int64) (*user.User, error)
}

func WithIdentity(ctx context.Context, identity *user.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext возвращает nil для запросов без Authenticate
func IdentityFromContext(ctx context.Context) *user.Identity {
	identity, _ := ctx.Value(identityKey).(*user.Identity)
	return identity
}

func unauthorized(w http.ResponseWriter, r *http.Request, reason, message string) {
	logger.Warn("HTTP: Отказ в аутентификации",
		zap.String("reason", reason),
		zap.String("path", r.URL.Path),
		zap.String("request_id", GetRequestID(r.Context())))

	writeError(w, http.StatusUnauthorized, map[string]any{
		"error":  message,
		"reason": reason,
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// Authenticate проверяет токен и каждый раз перечитывает пользователя,
// чтобы деактивация действовала сразу
func Authenticate(tokens TokenParser, users UserFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, r, ReasonMissingToken, "Authentication required")
				return
			}

			userID, err := tokens.Parse(token)
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				unauthorized(w, r, ReasonTokenExpired, "Token expired")
				return
			case err != nil:
				unauthorized(w, r, ReasonInvalidToken, "Invalid token")
				return
			}

			u, err := users.GetUserByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, rep.ErrNotFound) {
					unauthorized(w, r, ReasonUserNotFound, "User not found")
					return
				}
				logger.Error("HTTP: Ошибка загрузки пользователя", err, zap.Int64("user_id", userID))
				writeError(w, http.StatusInternalServerError, map[string]any{"error": "Authentication failed"})
				return
			}
			if !u.Active {
				unauthorized(w, r, ReasonAccountInactive, "Account is inactive")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), u.Identity())))
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IdentityFromContext(r.Context()).IsAdmin() {
			logger.Warn("HTTP: Доступ только для админа",
				zap.String("path", r.URL.Path),
				zap.String("request_id", GetRequestID(r.Context())))

			writeError(w, http.StatusForbidden, map[string]any{"error": "Access denied. Admin only."})
			return
		}
		next.ServeHTTP(w, r)
	})
}
