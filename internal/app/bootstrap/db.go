// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"github.com/touristahq/tourista/internal/app/system/indexes"
	"go.uber.org/zap"
)

// EnsureSchema creates the indexes the stores rely on: unique email,
// one review per user per tour, and the geospatial tour index.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	return indexes.EnsureAll(ctx, deps.MongoDatabase, logger)
}
