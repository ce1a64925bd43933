package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/solekta/cartsync/internal/api"
	"github.com/solekta/cartsync/internal/server/repository"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, api.ErrorResponse{Error: message, Code: code})
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrCartNotFound):
		respondError(w, http.StatusNotFound, "not_found", "cart not found")
	case errors.Is(err, repository.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "not_found", "item not found in cart")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
