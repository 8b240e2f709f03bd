package database

import "errors"

// AccountID represents an address on the ledger. Addresses are derived one
// way from an owner identifier or public key and rendered as 64 hex digits.
type AccountID string

// ToAccountID converts a hex-encoded string to an account id and validates
// it is formatted correctly.
func ToAccountID(hex string) (AccountID, error) {
	a := AccountID(hex)
	if !a.IsAccountID() {
		return "", errors.New("invalid account format")
	}

	return a, nil
}

// IsAccountID verifies whether the underlying data represents a valid
// ledger address.
func (a AccountID) IsAccountID() bool {
	const addressLength = 64

	if len(a) != addressLength {
		return false
	}

	for _, c := range []byte(a) {
		if !isHexCharacter(c) {
			return false
		}
	}

	return true
}

// isHexCharacter returns whether c is a valid hexadecimal digit.
func isHexCharacter(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// =============================================================================

// MiningStats carries the per-account contribution history recorded as
// blocks credit the account.
type MiningStats struct {
	Contributions     uint64  `json:"contributions"`
	Mined             float64 `json:"mined"`
	AccuracyGain      float64 `json:"accuracy_gain"`
	ArtifactsImproved uint32  `json:"artifacts_improved"`
}

// Account represents the information managed for an individual account.
// The balance is a derived cache: it is only ever written while applying a
// block, and chain replay must always reproduce it.
type Account struct {
	AccountID AccountID
	Balance   float64
	Stats     MiningStats
}
