package handlers

import (
	"encoding/json"
	"net/http"
	"taskManager/internal/logger"
)

type Payload struct {
	Key     string
	Payload any
}

func toPayload(key string, pl any) Payload {
	return Payload{Key: key, Payload: pl}
}

func toJSON(storage map[string]any, payload Payload) {
	storage[payload.Key] = payload.Payload
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("HTTP: Ошибка записи ответа", err)
	}
}

func responseWithJSON(w http.ResponseWriter, code int, payload ...Payload) {
	storage := make(map[string]any, len(payload))
	for _, pl := range payload {
		toJSON(storage, pl)
	}
	writeJSON(w, code, storage)
}

func responseWithError(w http.ResponseWriter, code int, message string) {
	responseWithJSON(w, code, toPayload("error", message))
}
