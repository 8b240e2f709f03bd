// Package metrics constructs the Prometheus collectors the node exposes
// and implements the ledger's activity recorder against them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics represents the set of collectors tracked by the node.
type Metrics struct {
	requests prometheus.Counter
	errors   prometheus.Counter
	panics   prometheus.Counter

	blocksMined     prometheus.Counter
	rewardMinted    prometheus.Counter
	claimsRejected  prometheus.Counter
	rejectReasons   prometheus.Counter
	supplyExhausted prometheus.Counter
	transfersQueued prometheus.Counter
	payoutsSent     prometheus.Counter
	payoutValue     prometheus.Counter
}

// New constructs the metrics against the specified registerer.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		requests: f.NewCounter(prometheus.CounterOpts{
			Name: "meritledger_requests_total",
			Help: "Total number of HTTP requests handled.",
		}),
		errors: f.NewCounter(prometheus.CounterOpts{
			Name: "meritledger_request_errors_total",
			Help: "Total number of HTTP requests that ended in error.",
		}),
		panics: f.NewCounter(prometheus.CounterOpts{
			Name: "meritledger_panics_total",
			Help: "Total number of recovered handler panics.",
		}),
		blocksMined: f.NewCounter(prometheus.CounterOpts{
			Name: "meritledger_blocks_mined_total",
			Help: "Total number of blocks minted by this node.",
		}),
		rewardMinted: f.NewCounter(prometheus.CounterOpts{
			Name: "meritledger_reward_minted_total",
			Help: "Total currency minted by this node.",
		}),
		claimsRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "meritledger_claims_rejected_total",
			Help: "Total number of improvement claims the admission gate rejected.",
		}),
		rejectReasons: f.NewCounter(prometheus.CounterOpts{
			Name: "meritledger_claim_reject_reasons_total",
			Help: "Total number of failed admission predicates across rejected claims.",
		}),
		supplyExhausted: f.NewCounter(prometheus.CounterOpts{
			Name: "meritledger_supply_exhausted_total",
			Help: "Total number of blocks minted with a zero reward at the supply cap.",
		}),
		transfersQueued: f.NewCounter(prometheus.CounterOpts{
			Name: "meritledger_transfers_queued_total",
			Help: "Total number of transfers accepted into the pending pool.",
		}),
		payoutsSent: f.NewCounter(prometheus.CounterOpts{
			Name: "meritledger_payouts_sent_total",
			Help: "Total number of pool payout transactions queued.",
		}),
		payoutValue: f.NewCounter(prometheus.CounterOpts{
			Name: "meritledger_payout_value_total",
			Help: "Total value paid out of the bonus pool.",
		}),
	}
}

// =============================================================================
// Web middleware support.

// AddRequest increments the request counter.
func (m *Metrics) AddRequest() {
	m.requests.Inc()
}

// AddError increments the request error counter.
func (m *Metrics) AddError() {
	m.errors.Inc()
}

// AddPanic increments the recovered panic counter.
func (m *Metrics) AddPanic() {
	m.panics.Inc()
}

// =============================================================================
// Ledger recorder implementation.

// BlockMined records a freshly minted block and its reward.
func (m *Metrics) BlockMined(reward float64) {
	m.blocksMined.Inc()
	m.rewardMinted.Add(reward)
}

// ClaimRejected records a rejected claim and how many predicates it failed.
func (m *Metrics) ClaimRejected(reasons int) {
	m.claimsRejected.Inc()
	m.rejectReasons.Add(float64(reasons))
}

// SupplyExhausted records a zero-reward mint at the supply cap.
func (m *Metrics) SupplyExhausted() {
	m.supplyExhausted.Inc()
}

// TransferQueued records a transfer accepted into the pending pool.
func (m *Metrics) TransferQueued() {
	m.transfersQueued.Inc()
}

// PayoutSent records a pool payout transaction and its value.
func (m *Metrics) PayoutSent(value float64) {
	m.payoutsSent.Inc()
	m.payoutValue.Add(value)
}
