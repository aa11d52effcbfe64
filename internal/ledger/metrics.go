package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricBetsPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casino_bets_placed_total",
		Help: "Bets that passed validation and were debited optimistically.",
	}, []string{"game"})
	metricBetsSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casino_bets_settled_total",
		Help: "Bets reconciled after authoritative settlement.",
	}, []string{"game", "result"})
	metricBetsRolledBack = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casino_bets_rolled_back_total",
		Help: "Bets whose optimistic debit was reversed.",
	}, []string{"game", "reason"})
	metricFairnessHalts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "casino_fairness_halts_total",
		Help: "Authoritative results that disagreed with local recomputation.",
	})
	metricSettleSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "casino_settle_duration_seconds",
		Help:    "Latency of the authoritative settlement call.",
		Buckets: prometheus.DefBuckets,
	}, []string{"game"})
	metricReconcileDrift = promauto.NewCounter(prometheus.CounterOpts{
		Name: "casino_balance_reconciliations_total",
		Help: "Confirmed balances that differed from the local view.",
	})
)
