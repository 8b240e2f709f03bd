package state

import "errors"

// Set of errors the state API returns for callers to react to.
var (
	// ErrNotEnoughFunds is returned when an account attempts to commit more
	// funds than its balance minus what it already has queued in the pool.
	ErrNotEnoughFunds = errors.New("not enough funds")

	// ErrChainContention is returned when the chain tip moved too many times
	// while a candidate block was being mined.
	ErrChainContention = errors.New("chain tip moved during mining, retries exhausted")
)
