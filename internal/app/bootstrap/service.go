// internal/app/bootstrap/service.go
package bootstrap

import (
	"github.com/dalemusser/memberhub/internal/app/moderation"
	"github.com/dalemusser/memberhub/internal/app/registry"
	"github.com/dalemusser/memberhub/internal/app/store/audit"
	contentstore "github.com/dalemusser/memberhub/internal/app/store/content"
	notificationstore "github.com/dalemusser/memberhub/internal/app/store/notifications"
	profilestore "github.com/dalemusser/memberhub/internal/app/store/profiles"
	userstore "github.com/dalemusser/memberhub/internal/app/store/users"
	"github.com/dalemusser/memberhub/internal/app/system/auditlog"
	"github.com/dalemusser/memberhub/internal/app/system/txn"
	"go.uber.org/zap"
)

// NewService assembles the moderation service over the MongoDB stores.
// The HTTP server and the ops CLI share it.
func NewService(deps DBDeps, auditCfg auditlog.Config, logger *zap.Logger) *moderation.Service {
	db := deps.MongoDatabase
	return moderation.New(moderation.Deps{
		Registry:      registry.Default(),
		Content:       contentstore.New(db),
		Users:         userstore.New(db),
		Profiles:      profilestore.New(db),
		Notifications: notificationstore.New(db),
		Tx:            txn.New(deps.MongoClient, logger),
		Audit:         auditlog.New(audit.New(db), logger, auditCfg),
		Logger:        logger,
	})
}
