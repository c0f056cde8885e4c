package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"strings"
	"taskManager/internal/handlers/dto"
	"taskManager/internal/logger"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// в ошибках - имена полей из json
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("iso8601", func(fl validator.FieldLevel) bool {
		_, err := dto.ParseDate(fl.Field().String())
		return err == nil
	})
	return v
}

// сообщения в формате поле.тег
var fieldMessages = map[string]string{
	"name.required":        "Name is required",
	"email.required":       "Valid email is required",
	"email.email":          "Valid email is required",
	"password.required":    "Password is required",
	"password.min":         "Password must be at least 6 characters",
	"password.max":         "Password must be at most 72 bytes",
	"role.oneof":           "Invalid role",
	"otp.required":         "OTP must be 6 digits",
	"otp.len":              "OTP must be 6 digits",
	"title.required":       "Title is required",
	"title.min":            "Title cannot be empty",
	"due_date.required":    "Valid due date is required",
	"due_date.iso8601":     "Valid due date is required",
	"category.required":    "Category is required",
	"category.min":         "Category cannot be empty",
	"completed_at.iso8601": "Valid completion date is required",
}

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

type normalizer interface {
	Normalize()
}

// decodeAndValidate сам отвечает клиенту при ошибке и возвращает false
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		logger.Warn("HTTP: Ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}

	if n, ok := dst.(normalizer); ok {
		n.Normalize()
	}

	if err := validate.Struct(dst); err != nil {
		fieldErrors := toFieldErrors(err)

		logger.Warn("HTTP: Ошибка валидации",
			zap.Any("fields", fieldErrors),
			zap.String("client_ip", r.RemoteAddr))

		writeJSON(w, http.StatusBadRequest, dto.ValidationErrorResponse{Errors: fieldErrors})
		return false
	}
	return true
}

func toFieldErrors(err error) []dto.FieldError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []dto.FieldError{{Field: "body", Message: "Invalid request body"}}
	}

	result := make([]dto.FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		result = append(result, dto.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return result
}

func fieldMessage(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	return fmt.Sprintf("Invalid value for %s", fe.Field())
}
