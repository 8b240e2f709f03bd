// Package verify implements the admission gate that decides whether an
// improvement claim may be minted. The gate is the sole minting control.
package verify

import (
	"fmt"
	"strings"
)

// Admission thresholds. A claim must clear every one of them.
const (
	MinImprovementPercent = 1.0
	MinConfirmations      = 3
	MinConsensusScore     = 0.75
	MinF1Score            = 0.5
)

// Metrics carries the quality measurements backing a claim.
type Metrics struct {
	Samples   uint64  `json:"samples"`
	Loss      float64 `json:"loss"`
	F1        float64 `json:"f1"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
}

// Consensus summarizes the distributed verification of a claim. The values
// are supplied by the caller; the gate performs no agreement protocol.
type Consensus struct {
	Nodes         int     `json:"nodes"`
	Confirmations int     `json:"confirmations"`
	Score         float64 `json:"score"`
}

// Claim is an unverified assertion of measurable improvement submitted for
// reward consideration.
type Claim struct {
	ArtifactID       string    `json:"artifact_id"`
	BaselineAccuracy float64   `json:"baseline_accuracy"`
	ImprovedAccuracy float64   `json:"improved_accuracy"`
	Percent          float64   `json:"percent"`
	Metrics          Metrics   `json:"metrics"`
	Consensus        Consensus `json:"consensus"`
}

// =============================================================================

// RejectedError reports every admission predicate a claim failed.
type RejectedError struct {
	Reasons []string
}

// Error implements the error interface.
func (re *RejectedError) Error() string {
	return fmt.Sprintf("claim rejected: %s", strings.Join(re.Reasons, "; "))
}

// =============================================================================

// Admit checks the claim against every admission predicate. A nil return
// admits the claim for mining. Admit has no side effects.
func Admit(claim Claim) error {
	var reasons []string

	if claim.Percent < MinImprovementPercent {
		reasons = append(reasons, fmt.Sprintf("improvement %.2f%% below the %.1f%% floor", claim.Percent, MinImprovementPercent))
	}

	if claim.Consensus.Confirmations < MinConfirmations {
		reasons = append(reasons, fmt.Sprintf("confirmations %d below the required %d", claim.Consensus.Confirmations, MinConfirmations))
	}

	if claim.Consensus.Score < MinConsensusScore {
		reasons = append(reasons, fmt.Sprintf("consensus score %.2f below the required %.2f", claim.Consensus.Score, MinConsensusScore))
	}

	if claim.Metrics.F1 < MinF1Score {
		reasons = append(reasons, fmt.Sprintf("f1 score %.2f below the required %.2f", claim.Metrics.F1, MinF1Score))
	}

	if len(reasons) > 0 {
		return &RejectedError{Reasons: reasons}
	}

	return nil
}
