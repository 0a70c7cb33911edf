package migration

import (
	activitydomain "github.com/smallbiznis/timebill/internal/activity/domain"
	"github.com/smallbiznis/timebill/internal/config"
	ledgerdomain "github.com/smallbiznis/timebill/internal/ledger/domain"
	userdomain "github.com/smallbiznis/timebill/internal/user/domain"
	vaultdomain "github.com/smallbiznis/timebill/internal/vault/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// Dev and test targets (sqlite, mysql) use the model schema
			// directly; versioned SQL migrations are postgres-only.
			return conn.AutoMigrate(
				&userdomain.User{},
				&activitydomain.UsageInterval{},
				&vaultdomain.PaymentCredential{},
				&ledgerdomain.TransactionEntry{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
