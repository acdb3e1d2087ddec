// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"
	"errors"

	"github.com/dalemusser/retroboard/internal/app/system/database"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown cleanly tears down DB connections and other resources.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	var errs []error
	if deps.LoginLimiter != nil {
		deps.LoginLimiter.Stop()
	}
	if deps.AuditMongoClient != nil {
		logger.Info("disconnecting audit MongoDB client")
		if err := deps.AuditMongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	if deps.DB != nil {
		logger.Info("closing database")
		if err := database.Close(deps.DB); err != nil {
			logger.Error("database close failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
