package verify_test

import (
	"errors"
	"testing"

	"github.com/meritledger/meritledger/foundation/ledger/verify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// goodClaim returns a claim that clears every admission predicate.
func goodClaim() verify.Claim {
	return verify.Claim{
		ArtifactID:       "transformer-xl-1",
		BaselineAccuracy: 0.80,
		ImprovedAccuracy: 0.85,
		Percent:          5.0,
		Metrics: verify.Metrics{
			Samples:   10_000,
			Loss:      1.5,
			F1:        0.82,
			Precision: 0.84,
			Recall:    0.80,
		},
		Consensus: verify.Consensus{
			Nodes:         7,
			Confirmations: 5,
			Score:         0.9,
		},
	}
}

func TestAdmit(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *verify.Claim)
		reasons int
	}{
		{
			name:    "admitted",
			mutate:  func(c *verify.Claim) {},
			reasons: 0,
		},
		{
			name:    "percent below floor",
			mutate:  func(c *verify.Claim) { c.Percent = 0.5 },
			reasons: 1,
		},
		{
			name:    "percent at floor",
			mutate:  func(c *verify.Claim) { c.Percent = 1.0 },
			reasons: 0,
		},
		{
			name:    "too few confirmations",
			mutate:  func(c *verify.Claim) { c.Consensus.Confirmations = 2 },
			reasons: 1,
		},
		{
			name:    "weak consensus",
			mutate:  func(c *verify.Claim) { c.Consensus.Score = 0.74 },
			reasons: 1,
		},
		{
			name:    "low f1",
			mutate:  func(c *verify.Claim) { c.Metrics.F1 = 0.49 },
			reasons: 1,
		},
		{
			name: "everything wrong",
			mutate: func(c *verify.Claim) {
				c.Percent = 0
				c.Consensus.Confirmations = 0
				c.Consensus.Score = 0
				c.Metrics.F1 = 0
			},
			reasons: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claim := goodClaim()
			tt.mutate(&claim)

			err := verify.Admit(claim)

			if tt.reasons == 0 {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)

			var re *verify.RejectedError
			require.True(t, errors.As(err, &re), "error must carry the rejection reasons")
			assert.Len(t, re.Reasons, tt.reasons)
		})
	}
}

func TestAdmitHasNoSideEffects(t *testing.T) {
	claim := goodClaim()
	before := claim

	_ = verify.Admit(claim)

	assert.Equal(t, before, claim)
}
