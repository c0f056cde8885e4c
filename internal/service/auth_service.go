package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"taskManager/internal/auth"
	"taskManager/internal/logger"
	"taskManager/internal/mailer"
	"taskManager/internal/metrics"
	"taskManager/internal/models/otp"
	"taskManager/internal/models/user"
	rep "taskManager/internal/repository"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const MinPasswordLength = 6

// bcrypt не принимает пароли длиннее 72 байт
const MaxPasswordLength = 72

const (
	msgInvalidCredentials = "Invalid credentials"
	msgAccountInactive    = "Account is inactive"
	msgInvalidOTP         = "Invalid or expired OTP"
	msgOTPSent            = "OTP sent successfully to your email"
)

var validate = validator.New()

type AuthResult struct {
	User  user.Summary `json:"user"`
	Token string       `json:"token"`
}

type OTPRequestResult struct {
	Message   string `json:"message"`
	ExpiresIn string `json:"expiresIn"`
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     user.Role
}

type AuthService struct {
	users   UserRepository
	otps    OTPRepository
	tokens  *auth.TokenManager
	hasher  *auth.Hasher
	sender  mailer.Sender
	limiter Limiter
	now     func() time.Time
}

// limiter может быть nil - тогда запросы кодов не ограничиваются
func NewAuthService(users UserRepository, otps OTPRepository, tokens *auth.TokenManager, hasher *auth.Hasher, sender mailer.Sender, limiter Limiter) *AuthService {
	return &AuthService{
		users:   users,
		otps:    otps,
		tokens:  tokens,
		hasher:  hasher,
		sender:  sender,
		limiter: limiter,
		now:     time.Now,
	}
}

func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = user.NormalizeEmail(in.Email)
	if in.Role == "" {
		in.Role = user.RoleUser
	}

	if in.Name == "" {
		return nil, NewValidationError("name", "Name is required")
	}
	if err := validate.Var(in.Email, "required,email"); err != nil {
		return nil, NewValidationError("email", "Valid email is required")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, NewValidationError("password", "Password must be at least 6 characters")
	}
	if len(in.Password) > MaxPasswordLength {
		return nil, NewValidationError("password", "Password must be at most 72 bytes")
	}
	if !in.Role.Valid() {
		return nil, NewValidationError("role", "Invalid role")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	u := &user.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Active:       true,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, rep.ErrConflict) {
			logger.Info("Service: Повторная регистрация", zap.String("email", in.Email))
			return nil, NewConflict("User already exists")
		}
		return nil, fmt.Errorf("регистрация: %w", err)
	}

	logger.Info("Service: Зарегистрирован пользователь", zap.Int64("user_id", u.ID), zap.String("role", string(u.Role)))
	return s.session(u)
}

// Login отвечает одинаково на неизвестный email и неверный пароль
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = user.NormalizeEmail(email)

	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			// время ответа не должно выдавать существование аккаунта
			s.hasher.CompareDummy(password)
			metrics.LoginTotal.WithLabelValues("password", "failure").Inc()
			return nil, NewUnauthorized(msgInvalidCredentials)
		}
		return nil, fmt.Errorf("вход: %w", err)
	}

	if !s.hasher.Compare(u.PasswordHash, password) {
		metrics.LoginTotal.WithLabelValues("password", "failure").Inc()
		return nil, NewUnauthorized(msgInvalidCredentials)
	}
	if !u.Active {
		metrics.LoginTotal.WithLabelValues("password", "inactive").Inc()
		return nil, NewUnauthorized(msgAccountInactive)
	}

	metrics.LoginTotal.WithLabelValues("password", "success").Inc()
	return s.session(u)
}

func (s *AuthService) RequestOTP(ctx context.Context, email string) (*OTPRequestResult, error) {
	email = user.NormalizeEmail(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, NewValidationError("email", "Valid email is required")
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound("User not found")
		}
		return nil, fmt.Errorf("запрос кода: %w", err)
	}

	if s.limiter != nil {
		allowed, wait, err := s.limiter.Allow(ctx, email)
		if err != nil {
			// redis недоступен - не блокируем вход
			logger.Warn("Service: Ограничитель недоступен", zap.Error(err))
		} else if !allowed {
			metrics.RateLimitRejectedTotal.WithLabelValues("otp").Inc()
			return nil, NewRateLimited("Too many OTP requests, try again later", int(math.Ceil(wait.Seconds())))
		}
	}

	code, err := auth.GenerateOTP()
	if err != nil {
		return nil, fmt.Errorf("генерация кода: %w", err)
	}

	record := &otp.OTP{
		Email:     email,
		Code:      code,
		ExpiresAt: s.now().Add(otp.TTL),
	}
	if err := s.otps.CreateOTP(ctx, record); err != nil {
		return nil, fmt.Errorf("сохранение кода: %w", err)
	}
	metrics.OTPIssuedTotal.Inc()

	if err := s.sender.SendOTP(ctx, email, code); err != nil {
		metrics.OTPDeliveryFailuresTotal.Inc()
		logger.Error("Service: Не удалось отправить код", err, zap.String("email", email))
		return nil, NewDeliveryError("Failed to send OTP email", err)
	}

	return &OTPRequestResult{
		Message:   msgOTPSent,
		ExpiresIn: fmt.Sprintf("%d minutes", int(otp.TTL.Minutes())),
	}, nil
}

func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*AuthResult, error) {
	email = user.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if len(code) != otp.CodeLength {
		return nil, NewValidationError("otp", "OTP must be 6 digits")
	}

	if _, err := s.otps.ConsumeOTP(ctx, email, code, s.now()); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			metrics.LoginTotal.WithLabelValues("otp", "failure").Inc()
			return nil, NewUnauthorized(msgInvalidOTP)
		}
		return nil, fmt.Errorf("проверка кода: %w", err)
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			metrics.LoginTotal.WithLabelValues("otp", "failure").Inc()
			return nil, NewUnauthorized(msgInvalidOTP)
		}
		return nil, fmt.Errorf("проверка кода: %w", err)
	}
	if !u.Active {
		metrics.LoginTotal.WithLabelValues("otp", "inactive").Inc()
		return nil, NewUnauthorized(msgAccountInactive)
	}

	metrics.LoginTotal.WithLabelValues("otp", "success").Inc()
	return s.session(u)
}

// CurrentUser не ходит в хранилище: личность уже разрешена middleware
func (s *AuthService) CurrentUser(identity *user.Identity) (*user.Identity, error) {
	if identity == nil {
		return nil, NewUnauthorized("Authentication required")
	}
	return identity, nil
}

func (s *AuthService) session(u *user.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(u.ID, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("выпуск токена: %w", err)
	}
	return &AuthResult{User: u.Summary(), Token: token}, nil
}
