// Package metrics exposes Prometheus counters for the ledger's write paths.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ExpenseWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripledger_expense_writes_total",
		Help: "Expense mutations applied, by operation.",
	}, []string{"op"})

	SettlementBatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripledger_settlement_batches_generated_total",
		Help: "Settlement batches generated.",
	})

	SettlementsConfirmed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripledger_settlements_confirmed_total",
		Help: "Settlement confirmations recorded, by role.",
	}, []string{"role"})

	TrustAwardFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripledger_trust_award_failures_total",
		Help: "Best-effort trust awards that failed and were only logged.",
	})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
