// Package state is the core API for the ledger and implements all the
// business rules and processing.
package state

import (
	"sync"

	"github.com/meritledger/meritledger/foundation/ledger/database"
	"github.com/meritledger/meritledger/foundation/ledger/genesis"
	"github.com/meritledger/meritledger/foundation/ledger/pending"
	"github.com/meritledger/meritledger/foundation/ledger/reward"
)

// EventHandler defines a function that is called when events occur in the
// processing of minting blocks.
type EventHandler func(v string, args ...any)

// TxVerifier is the predicate admitting a signed transaction into the pool.
// The default predicate checks the signature recovers to the declared
// sender. Deployments that trust an outer layer can inject their own.
type TxVerifier func(tx database.SignedTx) error

// Recorder represents the behavior for counting ledger activity. The state
// machine reports what happened; it does not know how the counts are kept.
type Recorder interface {
	BlockMined(reward float64)
	ClaimRejected(reasons int)
	SupplyExhausted()
	TransferQueued()
	PayoutSent(value float64)
}

// nopRecorder is used when no recorder is configured.
type nopRecorder struct{}

func (nopRecorder) BlockMined(reward float64) {}
func (nopRecorder) ClaimRejected(reasons int) {}
func (nopRecorder) SupplyExhausted()          {}
func (nopRecorder) TransferQueued()           {}
func (nopRecorder) PayoutSent(value float64)  {}

// =============================================================================

// Config represents the configuration required to start the ledger state.
type Config struct {
	BeneficiaryID database.AccountID
	Genesis       genesis.Genesis
	Storage       database.Storage
	Verifier      TxVerifier
	Recorder      Recorder
	EvHandler     EventHandler
}

// State manages the blockchain database and the pool of transactions
// waiting to be minted.
type State struct {
	beneficiaryID database.AccountID
	genesis       genesis.Genesis
	verifier      TxVerifier
	recorder      Recorder
	evHandler     EventHandler

	// mu keeps a mining candidate's pool snapshot and the accept plus
	// dequeue of its transactions mutually atomic. A transaction picked
	// by one candidate cannot be re-picked after another candidate
	// carried it into the chain.
	mu      sync.Mutex
	pending *pending.Pool
	db      *database.Database
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	db, err := database.New(cfg.Genesis, cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	verifier := cfg.Verifier
	if verifier == nil {
		verifier = func(tx database.SignedTx) error { return tx.Validate() }
	}

	recorder := cfg.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}

	state := State{
		beneficiaryID: cfg.BeneficiaryID,
		genesis:       cfg.Genesis,
		verifier:      verifier,
		recorder:      recorder,
		evHandler:     ev,

		pending: pending.New(),
		db:      db,
	}

	return &state, nil
}

// Shutdown cleanly brings the state down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	s.db.Close()

	return nil
}

// =============================================================================

// Genesis returns a copy of the genesis information.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// RewardParams returns the minting policy parameters derived from genesis.
func (s *State) RewardParams() reward.Params {
	return reward.Params{
		InitialReward:   s.genesis.InitialReward,
		HalvingInterval: s.genesis.HalvingInterval,
		MaxSupply:       s.genesis.MaxSupply,
	}
}
