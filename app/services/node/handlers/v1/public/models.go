package public

import (
	"math/big"

	"github.com/meritledger/meritledger/foundation/ledger/database"
	"github.com/meritledger/meritledger/foundation/ledger/verify"
)

// balance represents an account and its derived balance.
type balance struct {
	Account string  `json:"account"`
	Balance float64 `json:"balance"`
}

// balances returns the set of balances for the query.
type balances struct {
	LatestBlock string    `json:"latest_block"`
	Uncommitted int       `json:"uncommitted"`
	Balances    []balance `json:"balances"`
}

// supply reports the circulating supply against its cap.
type supply struct {
	Supply    float64 `json:"supply"`
	MaxSupply float64 `json:"max_supply"`
	Height    uint64  `json:"height"`
}

// chainState reports the outcome of a chain verification walk.
type chainState struct {
	Valid  bool   `json:"valid"`
	Height uint64 `json:"height"`
	Error  string `json:"error,omitempty"`
}

// tx is the request model for submitting a signed transfer.
type tx struct {
	ChainID      uint16                 `json:"chain_id"`
	From         string                 `json:"from" validate:"required"`
	To           string                 `json:"to" validate:"required"`
	Value        float64                `json:"value" validate:"gte=0"`
	Fee          float64                `json:"fee" validate:"gte=0"`
	Contribution *database.Contribution `json:"contribution,omitempty"`
	V            *big.Int               `json:"v" validate:"required"`
	R            *big.Int               `json:"r" validate:"required"`
	S            *big.Int               `json:"s" validate:"required"`
}

// claimRequest is the request model for submitting an improvement claim.
type claimRequest struct {
	ArtifactID       string           `json:"artifact_id" validate:"required"`
	Kind             string           `json:"kind" validate:"required"`
	Beneficiary      string           `json:"beneficiary" validate:"required"`
	BaselineAccuracy float64          `json:"baseline_accuracy"`
	ImprovedAccuracy float64          `json:"improved_accuracy"`
	Percent          float64          `json:"percent"`
	Metrics          verify.Metrics   `json:"metrics"`
	Consensus        verify.Consensus `json:"consensus"`
}

// mined is the response model for an admitted and minted claim.
type mined struct {
	Block  uint64  `json:"block"`
	Hash   string  `json:"hash"`
	Reward float64 `json:"reward"`
}
