package main

import (
	"github.com/google/wire"
	"github.com/pandodao/coin-wallet/service/session"
	"github.com/pandodao/coin-wallet/worker/reconciler"
	"github.com/pandodao/coin-wallet/worker/syncer"
	"github.com/spf13/viper"
)

var workerSet = wire.NewSet(
	provideReconcilerConfig,
	wire.Bind(new(reconciler.Session), new(*session.Manager)),
	reconciler.New,
	provideSyncerConfig,
	syncer.New,
)

func provideReconcilerConfig(v *viper.Viper) reconciler.Config {
	v.SetDefault("session.reconcile_interval", "30s")

	return reconciler.Config{
		Interval: v.GetDuration("session.reconcile_interval"),
	}
}

func provideSyncerConfig(v *viper.Viper) syncer.Config {
	v.SetDefault("syncer.interval", "10s")

	return syncer.Config{
		Interval: v.GetDuration("syncer.interval"),
	}
}
