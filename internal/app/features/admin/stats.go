// internal/app/features/admin/stats.go
package admin

import (
	"context"
	"net/http"

	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
)

// ServeStats handles GET /admin/stats. Counts are computed on every request.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ov, err := h.Svc.Stats.Overview(ctx, authz.CallerFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}
