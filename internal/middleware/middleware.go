package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"taskManager/internal/logger"
	"taskManager/internal/metrics"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const RequestIdKey contextKey = "request_id"

func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestId := r.Header.Get("X-Request-ID")
		if requestId == "" {
			requestId = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestId)

		ctx := context.WithValue(r.Context(), RequestIdKey, requestId)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIdKey).(string); ok {
		return id
	}
	return ""
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	size        int
	wroteHeader bool
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w, status: http.StatusOK}
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.status = code
		sw.wroteHeader = true
		sw.ResponseWriter.WriteHeader(code)
	}
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if !sw.wroteHeader {
		sw.WriteHeader(http.StatusOK)
	}

	n, err := sw.ResponseWriter.Write(b)
	sw.size += n
	return n, err
}

func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestId := GetRequestID(r.Context())

		logger.Info(
			"HTTP_IN: Начало запроса",
			zap.String("request_id", requestId),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("query", r.URL.RawQuery),
			zap.String("client_ip", r.RemoteAddr),
		)

		sw := newStatusWriter(w)
		next.ServeHTTP(sw, r)

		logLevel := zap.InfoLevel
		if sw.status >= 400 && sw.status < 500 {
			logLevel = zap.WarnLevel
		} else if sw.status >= 500 {
			logLevel = zap.ErrorLevel
		}
		logger.Log(
			logLevel,
			"HTTP_OUT: Завершение запроса",
			zap.String("request_id", requestId),
			zap.Int("status", sw.status),
			zap.Int("bytes_written", sw.size),
			zap.Duration("ms", time.Since(start)),
		)
	})
}

func writeError(w http.ResponseWriter, code int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

type clientInfo struct {
	count   int
	resetAt time.Time
}

// RateLimit - окно в минуту на IP; rpm <= 0 отключает ограничение
func RateLimit(rpm int) func(http.Handler) http.Handler {
	return rateLimit(rpm, time.Now)
}

func rateLimit(rpm int, now func() time.Time) func(http.Handler) http.Handler {
	clients := make(map[string]*clientInfo)
	var mtx sync.Mutex
	window := time.Minute
	lastSweep := now()

	return func(next http.Handler) http.Handler {
		if rpm <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getIp(r)
			current := now()

			mtx.Lock()

			// истёкшие окна чистим не чаще раза в окно
			if current.Sub(lastSweep) > window {
				for key, info := range clients {
					if current.After(info.resetAt) {
						delete(clients, key)
					}
				}
				lastSweep = current
			}

			info, exists := clients[ip]
			switch {
			case !exists:
				info = &clientInfo{count: 1, resetAt: current.Add(window)}
				clients[ip] = info
			case current.After(info.resetAt):
				info.count = 1
				info.resetAt = current.Add(window)
			case info.count >= rpm:
				retryAfter := int(info.resetAt.Sub(current).Seconds()) + 1
				mtx.Unlock()

				metrics.RateLimitRejectedTotal.WithLabelValues("ip").Inc()
				logger.Warn("HTTP: Превышен лимит запросов",
					zap.String("client_ip", ip),
					zap.String("request_id", GetRequestID(r.Context())))

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeError(w, http.StatusTooManyRequests, map[string]any{
					"error":       "Too many requests, please try again later",
					"retry_after": retryAfter,
				})
				return
			default:
				info.count++
			}

			remaining := rpm - info.count
			resetUnix := info.resetAt.Unix()
			mtx.Unlock()

			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rpm))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetUnix, 10))

			next.ServeHTTP(w, r)
		})
	}
}

func getIp(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Timeout ограничивает контекст запроса; хендлеры и хранилище сами реагируют на отмену
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
