package vault

import (
	"github.com/smallbiznis/timebill/internal/config"
	"github.com/smallbiznis/timebill/internal/vault/service"
	"go.uber.org/fx"
)

var Module = fx.Module("vault.service",
	fx.Provide(NewCipher),
	fx.Provide(service.NewService),
)

func NewCipher(cfg config.Config) (*service.Cipher, error) {
	return service.NewCipher(cfg.VaultSecret)
}
