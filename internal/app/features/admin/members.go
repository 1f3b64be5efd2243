// internal/app/features/admin/members.go
package admin

import (
	"context"
	"net/http"

	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/domain/models"
)

type memberRequest struct {
	UserID string `json:"userId"`
	Reason string `json:"reason,omitempty"`
}

// ServePendingMembers handles GET /admin/members/pending.
func (h *Handler) ServePendingMembers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	members, err := h.Svc.Queue.ListPendingMembers(ctx, authz.CallerFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// HandleApproveMember handles POST /admin/members/approve. Approval also
// marks the profile verified.
func (h *Handler) HandleApproveMember(w http.ResponseWriter, r *http.Request) {
	h.reviewMember(w, r, models.UserActive, true)
}

// HandleRejectMember handles POST /admin/members/reject.
func (h *Handler) HandleRejectMember(w http.ResponseWriter, r *http.Request) {
	h.reviewMember(w, r, models.UserRejected, false)
}

func (h *Handler) reviewMember(w http.ResponseWriter, r *http.Request, decision models.UserStatus, verified bool) {
	var req memberRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	userID, err := parseID("userId", req.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	// Approvals carry no reason.
	reason := ""
	if decision == models.UserRejected {
		reason = req.Reason
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := h.Svc.Engine.ReviewMember(ctx, authz.CallerFrom(r), userID, decision, verified, reason)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleReopenMember handles POST /admin/members/reopen.
func (h *Handler) HandleReopenMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	userID, err := parseID("userId", req.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Svc.Engine.ReopenMember(ctx, authz.CallerFrom(r), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
