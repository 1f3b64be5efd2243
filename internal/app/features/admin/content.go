// internal/app/features/admin/content.go
package admin

import (
	"context"
	"net/http"

	"github.com/dalemusser/memberhub/internal/app/registry"
	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/memberhub/internal/domain/moderr"
	"github.com/go-chi/chi/v5"
)

type reviewRequest struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Status string `json:"status"`
}

type reopenRequest struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// ServeAllPending handles GET /admin/content/pending.
func (h *Handler) ServeAllPending(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	queues, err := h.Svc.Queue.ListAllPending(ctx, authz.CallerFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queues)
}

// ServePending handles GET /admin/content/pending/{type}.
func (h *Handler) ServePending(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t := registry.Type(chi.URLParam(r, "type"))
	items, err := h.Svc.Queue.ListPending(ctx, authz.CallerFrom(r), t)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleReview handles POST /admin/content/review.
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Type == "" {
		h.fail(w, r, &moderr.InvalidInputError{Field: "type", Reason: "required"})
		return
	}
	id, err := parseID("id", req.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	item, err := h.Svc.Engine.ReviewContent(ctx, authz.CallerFrom(r), registry.Type(req.Type), id, models.Status(req.Status))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// HandleReopen handles POST /admin/content/reopen.
func (h *Handler) HandleReopen(w http.ResponseWriter, r *http.Request) {
	var req reopenRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Type == "" {
		h.fail(w, r, &moderr.InvalidInputError{Field: "type", Reason: "required"})
		return
	}
	id, err := parseID("id", req.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	item, err := h.Svc.Engine.ReopenContent(ctx, authz.CallerFrom(r), registry.Type(req.Type), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}
