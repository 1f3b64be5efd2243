// internal/app/features/admin/routes.go
package admin

import (
	"github.com/dalemusser/memberhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the admin API under the path where the caller mounts it.
// Typically: r.Mount("/admin", admin.Routes(handler, sessionMgr))
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole("admin"))

		pr.Get("/stats", h.ServeStats)

		pr.Get("/users", h.ServeUsers)
		pr.Post("/users/verify", h.HandleVerify)

		pr.Get("/content/pending", h.ServeAllPending)
		pr.Get("/content/pending/{type}", h.ServePending)
		pr.Post("/content/review", h.HandleReview)
		pr.Post("/content/reopen", h.HandleReopen)

		pr.Get("/members/pending", h.ServePendingMembers)
		pr.Post("/members/approve", h.HandleApproveMember)
		pr.Post("/members/reject", h.HandleRejectMember)
		pr.Post("/members/reopen", h.HandleReopenMember)
	})

	return r
}
