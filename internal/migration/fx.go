package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/ventrahq/ventra/internal/config"
	orgdomain "github.com/ventrahq/ventra/internal/organization/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// sqlite is only for local development; gorm's AutoMigrate keeps it
		// in sync without maintaining a second migration dialect.
		if cfg.DBType == "sqlite" {
			return conn.AutoMigrate(&orgdomain.Organization{}, &orgdomain.Member{})
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
