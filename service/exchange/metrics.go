package exchange

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var transfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "coinwallet_transfers_total",
	Help: "Confirmed game transfers by outcome",
}, []string{"outcome"})
