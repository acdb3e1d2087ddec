// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/retroboard/internal/app/store/audit"
	"github.com/dalemusser/retroboard/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	DB *gorm.DB

	// Set only when audit_mongo_uri is configured.
	AuditMongoClient *mongo.Client
	AuditStore       *audit.Store

	// LoginLimiter runs cleanup goroutines until Shutdown stops it.
	LoginLimiter *ratelimit.LoginLimiter
}
