// internal/app/features/admin/users.go
package admin

import (
	"context"
	"net/http"

	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/memberhub/internal/domain/moderr"
)

type verifyRequest struct {
	UserID     string `json:"userId"`
	Status     string `json:"status"`
	IsVerified *bool  `json:"isVerified"`
}

// ServeUsers handles GET /admin/users.
func (h *Handler) ServeUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	users, err := h.Svc.Queue.ListUsers(ctx, authz.CallerFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleVerify handles POST /admin/users/verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	userID, err := parseID("userId", req.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if req.IsVerified == nil {
		h.fail(w, r, &moderr.InvalidInputError{Field: "isVerified", Reason: "required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := h.Svc.Engine.VerifyActiveUser(ctx, authz.CallerFrom(r), userID, models.UserStatus(req.Status), *req.IsVerified)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
