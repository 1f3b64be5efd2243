// internal/app/features/admin/respond.go
package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/memberhub/internal/domain/moderr"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the moderation error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case moderr.IsNotFound(err), moderr.IsUnknownType(err):
		return http.StatusNotFound
	case moderr.IsInvalidState(err):
		return http.StatusConflict
	case moderr.IsPermission(err):
		return http.StatusForbidden
	case moderr.IsInvalidInput(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.Log.Error("admin api request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// decode reads a JSON body into v, rejecting oversized or malformed input.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return &moderr.InvalidInputError{Field: "body", Reason: "too large"}
		}
		return &moderr.InvalidInputError{Field: "body", Reason: "malformed JSON"}
	}
	return nil
}

func parseID(field, hex string) (primitive.ObjectID, error) {
	if hex == "" {
		return primitive.NilObjectID, &moderr.InvalidInputError{Field: field, Reason: "required"}
	}
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, &moderr.InvalidInputError{Field: field, Reason: "not a valid id"}
	}
	return oid, nil
}
