package main

import (
	"github.com/google/wire"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pandodao/coin-wallet/store/credential"
	"github.com/pandodao/coin-wallet/store/db"
	"github.com/pandodao/coin-wallet/store/property"
	"github.com/pandodao/coin-wallet/store/transfer"
	"github.com/spf13/viper"
	"github.com/tsenart/nap"
)

var storeSet = wire.NewSet(
	provideDB,
	property.New,
	credential.New,
	transfer.New,
)

func provideDB(v *viper.Viper) (*nap.DB, func(), error) {
	v.SetDefault("db.driver", "sqlite3")
	v.SetDefault("db.dsn", "coinwallet.db")

	driver := v.GetString("db.driver")
	dsn := v.GetString("db.dsn")

	conn, err := nap.Open(driver, dsn)
	if err != nil {
		return nil, nil, err
	}

	if err := db.Migrate(conn.Master()); err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	return conn, func() { _ = conn.Close() }, nil
}
