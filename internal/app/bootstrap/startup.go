// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	userstore "github.com/dalemusser/memberhub/internal/app/store/users"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})

	if appCfg.AdminMobile != "" {
		if err := ensureAdmin(ctx, deps, appCfg.AdminMobile, logger); err != nil {
			return err
		}
	}
	return nil
}

// ensureAdmin promotes or creates the bootstrap admin so that a fresh
// deployment has someone able to work the queues.
func ensureAdmin(ctx context.Context, deps DBDeps, mobile string, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, created, err := userstore.New(deps.MongoDatabase).EnsureAdmin(ctx, mobile)
	if err != nil {
		logger.Error("admin bootstrap failed", zap.Error(err))
		return err
	}
	if created {
		logger.Info("created bootstrap admin", zap.String("user_id", u.ID.Hex()))
	} else {
		logger.Info("bootstrap admin ensured", zap.String("user_id", u.ID.Hex()))
	}
	return nil
}
