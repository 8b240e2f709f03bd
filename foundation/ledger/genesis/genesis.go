// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"os"
	"time"
)

// Genesis represents the chain parameters and starting balances that every
// node agrees on before the first block is minted.
type Genesis struct {
	Date               time.Time          `json:"date"`
	ChainID            uint16             `json:"chain_id"`             // Unique id for this running instance.
	InitialReward      float64            `json:"initial_reward"`       // Base reward before halving and multipliers.
	HalvingInterval    uint64             `json:"halving_interval"`     // Number of blocks between reward halvings.
	MaxSupply          float64            `json:"max_supply"`           // Hard cap on the circulating supply.
	TransactionFee     float64            `json:"transaction_fee"`      // Flat fee paid by the sender of a transfer.
	Difficulty         uint               `json:"difficulty"`           // Leading zero hex digits required at genesis.
	DifficultyInterval uint64             `json:"difficulty_interval"`  // Number of blocks between difficulty retargets.
	BlockTargetSeconds uint64             `json:"block_target_seconds"` // Wall clock target for one block.
	TreasuryAccount    string             `json:"treasury_account"`     // Account funding pool payouts and bonuses.
	Balances           map[string]float64 `json:"balances"`             // Accounts funded before the first block.
}

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Save writes the genesis information to the specified path.
func Save(path string, genesis Genesis) error {
	data, err := json.MarshalIndent(genesis, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
