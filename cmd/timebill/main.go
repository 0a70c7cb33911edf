package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/timebill/internal/activity"
	"github.com/smallbiznis/timebill/internal/clock"
	"github.com/smallbiznis/timebill/internal/config"
	"github.com/smallbiznis/timebill/internal/ledger"
	"github.com/smallbiznis/timebill/internal/migration"
	"github.com/smallbiznis/timebill/internal/providers/payment"
	"github.com/smallbiznis/timebill/internal/settlement"
	"github.com/smallbiznis/timebill/internal/usage"
	"github.com/smallbiznis/timebill/internal/user"
	"github.com/smallbiznis/timebill/internal/vault"
	"github.com/smallbiznis/timebill/pkg/db"
	"github.com/smallbiznis/timebill/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		payment.Module,

		user.Module,
		vault.Module,
		activity.Module,
		usage.Module,
		ledger.Module,
		settlement.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
