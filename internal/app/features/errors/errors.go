// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/memberhub/internal/app/system/authz"
)

// pageData is the body of the error responses.
type pageData struct {
	Title      string `json:"title"`
	IsLoggedIn bool   `json:"signed_in"`
	Role       string `json:"role,omitempty"`
	Message    string `json:"message"`
	BackURL    string `json:"back_url"`
}

// Handler is the errors feature handler.
// No DB needed; it only describes why a request was turned away.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Forbidden is the landing target of the role gate's redirect.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	role, _, _, signedIn := authz.UserCtx(r)
	if !signedIn {
		role = ""
	}

	render(w, http.StatusForbidden, pageData{
		Title:      "Access denied",
		IsLoggedIn: signedIn,
		Role:       role,
		Message:    "You don't have permission to view this page.",
		BackURL:    "/",
	})
}

// Unauthorized is the landing target of the sign-in gate's redirect.
// GET /unauthorized and GET /login
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	back := r.URL.Query().Get("return")
	if back == "" || back[0] != '/' || (len(back) > 1 && back[1] == '/') {
		back = "/"
	}

	render(w, http.StatusUnauthorized, pageData{
		Title:   "Sign in required",
		Message: "Please sign in to continue.",
		BackURL: back,
	})
}

func render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
