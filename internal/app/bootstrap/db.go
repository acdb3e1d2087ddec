// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/retroboard/internal/app/store/audit"
	"github.com/dalemusser/retroboard/internal/app/system/database"
	"github.com/dalemusser/retroboard/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ConnectDB opens the SQL database and, when configured, the MongoDB
// audit store. It also starts the sign-in limiter, which Shutdown stops.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	db, err := database.Open(ctx, appCfg.DBDriver, appCfg.DBDSN, logger)
	if err != nil {
		logger.Error("database connect failed", zap.String("driver", appCfg.DBDriver), zap.Error(err))
		return DBDeps{}, err
	}
	logger.Info("database connected", zap.String("driver", appCfg.DBDriver))

	deps := DBDeps{DB: db, LoginLimiter: ratelimit.NewLoginLimiter()}
	if appCfg.AuditMongoURI == "" {
		logger.Info("audit MongoDB not configured; audit events go to the log only")
		return deps, nil
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(appCfg.AuditMongoURI))
	if err != nil {
		deps.LoginLimiter.Stop()
		_ = database.Close(db)
		return DBDeps{}, fmt.Errorf("connect audit MongoDB: %w", err)
	}
	deps.AuditMongoClient = client
	deps.AuditStore = audit.New(client.Database(appCfg.AuditMongoDatabase))

	if err := deps.AuditStore.Ping(ctx); err != nil {
		// The app runs without the audit store; events still reach zap.
		logger.Warn("audit MongoDB not reachable at startup", zap.Error(err))
	}
	return deps, nil
}

// EnsureSchema migrates the SQL tables and creates the audit indexes.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := database.Migrate(ctx, deps.DB, logger); err != nil {
		return err
	}
	if deps.AuditStore != nil {
		if err := deps.AuditStore.EnsureIndexes(ctx); err != nil {
			logger.Warn("audit index creation failed", zap.Error(err))
		}
	}
	return nil
}
