// internal/app/features/admin/handler.go
package admin

import (
	"github.com/dalemusser/memberhub/internal/app/moderation"
	"go.uber.org/zap"
)

// Handler serves the admin moderation API on top of a moderation.Service.
// It translates requests into Caller-scoped service calls; every permission
// and state decision is made by the service.
type Handler struct {
	Svc *moderation.Service
	Log *zap.Logger
}

// NewHandler creates a new admin API handler.
func NewHandler(svc *moderation.Service, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, Log: logger}
}
