package private

import (
	"github.com/meritledger/meritledger/foundation/ledger/database"
	"github.com/meritledger/meritledger/foundation/ledger/state"
)

// registerRequest carries what a worker node reports when joining.
type registerRequest struct {
	NodeID       string  `json:"node_id" validate:"required"`
	Cores        int     `json:"cores" validate:"gte=1"`
	Accelerators int     `json:"accelerators" validate:"gte=0"`
	MemoryGB     float64 `json:"memory_gb" validate:"gte=0"`
	Throughput   float64 `json:"throughput" validate:"gte=0"`
}

// poolShare is one node's stake in the next payout sweep.
type poolShare struct {
	NodeID       string  `json:"node_id"`
	Account      string  `json:"account"`
	Contribution float64 `json:"contribution"`
}

// poolStatus reports the bonus pool awaiting distribution.
type poolStatus struct {
	Pending  float64     `json:"pending"`
	Treasury float64     `json:"treasury"`
	Shares   []poolShare `json:"shares"`
}

// treasuryID resolves the treasury account from genesis.
func treasuryID(st *state.State) database.AccountID {
	return database.AccountID(st.Genesis().TreasuryAccount)
}
