package service

import (
	"errors"
	"fmt"
)

const (
	CodeValidation = "VALIDATION_ERROR"
	CodeConflict   = "CONFLICT"
	CodeAuth       = "UNAUTHORIZED"
	CodeForbidden  = "FORBIDDEN"
	CodeNotFound   = "NOT_FOUND"
	CodeRateLimit  = "RATE_LIMITED"
	CodeDelivery   = "DELIVERY_ERROR"
	CodeInternal   = "INTERNAL"
)

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

func NewNotFound(message string) *BusinessError {
	return NewBusinessError(CodeNotFound, message)
}

func NewValidationError(field, reason string) *BusinessError {
	return NewBusinessError(CodeValidation, reason,
		ToDetail("field", field),
		ToDetail("reason", reason),
	)
}

func NewConflict(message string) *BusinessError {
	return NewBusinessError(CodeConflict, message)
}

func NewUnauthorized(message string) *BusinessError {
	return NewBusinessError(CodeAuth, message)
}

func NewForbidden(message string) *BusinessError {
	return NewBusinessError(CodeForbidden, message)
}

func NewRateLimited(message string, retryAfterSeconds int) *BusinessError {
	return NewBusinessError(CodeRateLimit, message, ToDetail("retry_after", retryAfterSeconds))
}

func NewDeliveryError(message string, err error) *BusinessError {
	busErr := NewBusinessError(CodeDelivery, message)
	busErr.Err = err
	return busErr
}

// AsBusiness достаёт BusinessError из цепочки обёрток
func AsBusiness(err error) (*BusinessError, bool) {
	var busErr *BusinessError
	if errors.As(err, &busErr) {
		return busErr, true
	}
	return nil, false
}

// HasCode - сокращение для тестов и хендлеров
func HasCode(err error, code string) bool {
	busErr, ok := AsBusiness(err)
	return ok && busErr.Code == code
}
