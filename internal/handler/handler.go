package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/AlexZinkM/pump-desk/internal/auth"
	"github.com/AlexZinkM/pump-desk/internal/model"
	"github.com/AlexZinkM/pump-desk/internal/wallet"
	"github.com/AlexZinkM/pump-desk/solana"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// writeErr maps domain errors to status codes
func writeErr(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case solana.IsValidationError(err), wallet.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, solana.ErrBusy), wallet.IsDuplicateWalletError(err):
		return http.StatusConflict
	case errors.Is(err, wallet.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// allowMethods writes 405 unless r uses one of methods
func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	allowed := strings.Join(methods, ", ")
	w.Header().Set("Allow", allowed)
	http.Error(w, "Method not allowed. Should be "+allowed, http.StatusMethodNotAllowed)
	return false
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
