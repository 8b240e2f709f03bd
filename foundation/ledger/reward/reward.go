// Package reward implements the policy that prices an admitted improvement
// claim into newly minted currency.
package reward

import "math"

// Kind classifies the category of improvement a claim asserts. The category
// determines the reward multiplier.
type Kind string

// Set of known improvement categories.
const (
	KindModelAccuracy    Kind = "model accuracy"
	KindTrainingSpeed    Kind = "training speed"
	KindResourceOptimize Kind = "resource optimization"
	KindAlgorithmImprove Kind = "algorithm improvement"
	KindKernelEnhance    Kind = "kernel enhancement"
	KindQuantumIntegrate Kind = "quantum integration"
	KindSecurityPatch    Kind = "security patch"
	KindPerformanceBoost Kind = "performance boost"
)

// multipliers carries the fixed per-category reward scaling.
var multipliers = map[Kind]float64{
	KindQuantumIntegrate: 3.0,
	KindAlgorithmImprove: 2.5,
	KindModelAccuracy:    2.0,
	KindKernelEnhance:    1.8,
	KindTrainingSpeed:    1.5,
	KindSecurityPatch:    1.5,
	KindPerformanceBoost: 1.3,
	KindResourceOptimize: 1.2,
}

// Multiplier returns the reward multiplier for the specified kind. Unknown
// kinds fall back to a neutral multiplier.
func Multiplier(kind Kind) float64 {
	m, exists := multipliers[kind]
	if !exists {
		return 1.0
	}
	return m
}

// =============================================================================

// Params carries the genesis values the policy depends on.
type Params struct {
	InitialReward   float64
	HalvingInterval uint64
	MaxSupply       float64
}

// Calculate prices an improvement of the specified kind and percentage at
// the specified chain height and circulating supply. The result is
// deterministic and never pushes the supply past the cap.
func Calculate(kind Kind, improvementPercent float64, currentSupply float64, height uint64, p Params) float64 {

	// Halve the base reward once for every completed halving interval.
	// A zero interval means the policy never halves.
	base := p.InitialReward
	if p.HalvingInterval > 0 {
		for i := uint64(0); i < height/p.HalvingInterval; i++ {
			base /= 2.0
		}
	}

	// Larger improvements earn more, but on a diminishing logarithmic scale.
	factor := 1.0 + math.Log10(1.0+improvementPercent/10.0)

	reward := base * Multiplier(kind) * factor

	// Clamp against the supply cap. A zero reward is still a valid mint.
	if currentSupply+reward > p.MaxSupply {
		reward = p.MaxSupply - currentSupply
	}
	if reward < 0 {
		reward = 0
	}

	return reward
}
