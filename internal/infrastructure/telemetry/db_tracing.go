package telemetry

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterGormTracing installs the otelgorm plugin. Query variables are
// left out of spans because they carry customer data.
func RegisterGormTracing(db *gorm.DB, dbSystem string, logger *zap.Logger) error {
	if dbSystem == "" {
		dbSystem = "postgresql"
	}
	if err := db.Use(otelgorm.NewPlugin(
		otelgorm.WithDBName(dbSystem),
		otelgorm.WithoutQueryVariables(),
	)); err != nil {
		return err
	}
	logger.Info("Database tracing enabled", zap.String("db_system", dbSystem))
	return nil
}
