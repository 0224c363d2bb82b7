package main

import (
	"log/slog"

	"github.com/google/wire"
	"github.com/pandodao/coin-wallet/core"
	"github.com/pandodao/coin-wallet/handler/api"
	"github.com/pandodao/coin-wallet/service/backend"
	"github.com/pandodao/coin-wallet/service/exchange"
	"github.com/pandodao/coin-wallet/service/game"
	"github.com/pandodao/coin-wallet/service/notify"
	"github.com/pandodao/coin-wallet/service/rate"
	"github.com/pandodao/coin-wallet/service/session"
	"github.com/pandodao/coin-wallet/service/user"
	"github.com/pandodao/coin-wallet/service/wallet"
	"github.com/spf13/viper"
)

var serviceSet = wire.NewSet(
	provideBackendConfig,
	backend.New,
	user.New,
	wallet.New,
	game.New,
	provideNotifier,
	wire.Bind(new(core.Notifier), new(*notify.Feed)),
	wire.Bind(new(api.Notifications), new(*notify.Feed)),
	session.New,
	wire.Bind(new(core.SessionManager), new(*session.Manager)),
	wire.Bind(new(api.Sessions), new(*session.Manager)),
	rate.New,
	wire.Bind(new(exchange.Resolver), new(*rate.Resolver)),
	exchange.New,
)

func provideBackendConfig(v *viper.Viper) backend.Config {
	v.SetDefault("backend.timeout", "15s")
	v.SetDefault("backend.rate_limit", 10)
	v.SetDefault("backend.burst", 5)
	v.SetDefault("backend.locale", "vi")

	return backend.Config{
		Endpoint:  v.GetString("backend.endpoint"),
		Timeout:   v.GetDuration("backend.timeout"),
		RateLimit: v.GetFloat64("backend.rate_limit"),
		Burst:     v.GetInt("backend.burst"),
		Locale:    v.GetString("backend.locale"),
	}
}

func provideNotifier(v *viper.Viper, logger *slog.Logger) *notify.Feed {
	return notify.New(logger, v.GetInt("notify.capacity"))
}
