package payment

import (
	"fmt"

	"github.com/smallbiznis/timebill/internal/config"
	paymentdomain "github.com/smallbiznis/timebill/internal/providers/payment/domain"
	"github.com/smallbiznis/timebill/internal/providers/payment/sandbox"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.payment",
	fx.Provide(NewGateway),
)

func NewGateway(cfg config.Config, log *zap.Logger) (paymentdomain.Gateway, error) {
	switch cfg.GatewayProvider {
	case "sandbox", "":
		return sandbox.New(log), nil
	default:
		return nil, fmt.Errorf("unsupported payment gateway %q", cfg.GatewayProvider)
	}
}
