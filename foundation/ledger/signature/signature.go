// Package signature provides the hashing and signing support needed by
// the ledger.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash code of zeros. It is the previous-hash
// sentinel carried by the genesis block.
const ZeroHash = "0000000000000000000000000000000000000000000000000000000000000000"

// meritID is an arbitrary number added to the recovery id when signing.
// It marks signatures as belonging to the merit ledger the same way
// Ethereum and Bitcoin use the value of 27.
const meritID = 31

// =============================================================================

// Hash returns a fixed length hex string that uniquely represents the value.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// AddressFromID derives a stable account address from an owner identifier,
// such as a worker node id. The derivation is one way.
func AddressFromID(ownerID string) string {
	hash := sha256.Sum256([]byte(ownerID))
	return hex.EncodeToString(hash[:])
}

// AddressFromPublicKey derives the account address owned by the holder of
// the corresponding private key.
func AddressFromPublicKey(pk ecdsa.PublicKey) string {
	hash := sha256.Sum256(crypto.FromECDSAPub(&pk))
	return hex.EncodeToString(hash[:])
}

// =============================================================================

// Sign uses the specified private key to sign the value.
func Sign(value any, privateKey *ecdsa.PrivateKey) (v, r, s *big.Int, err error) {
	data, err := stamp(value)
	if err != nil {
		return nil, nil, nil, err
	}

	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return nil, nil, nil, err
	}

	// Check the signature recovers to the public key that produced it.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return nil, nil, nil, err
	}
	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, rs) {
		return nil, nil, nil, errors.New("invalid signature produced")
	}

	v, r, s = toSignatureValues(sig)
	return v, r, s, nil
}

// VerifySignature verifies the signature conforms to the ledger standards.
func VerifySignature(v, r, s *big.Int) error {
	uintV := v.Uint64() - meritID
	if uintV != 0 && uintV != 1 {
		return errors.New("invalid recovery id")
	}

	if !crypto.ValidateSignatureValues(byte(uintV), r, s, false) {
		return errors.New("invalid signature values")
	}

	return nil
}

// FromAddress extracts the address of the account that signed the value.
func FromAddress(value any, v, r, s *big.Int) (string, error) {
	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	sig := ToSignatureBytes(v, r, s)

	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", err
	}

	return AddressFromPublicKey(*publicKey), nil
}

// SignatureString returns the signature as an opaque hex string.
func SignatureString(v, r, s *big.Int) string {
	sig := ToSignatureBytes(v, r, s)
	sig[64] = byte(v.Uint64())
	return hex.EncodeToString(sig)
}

// =============================================================================

// stamp returns a 32 byte hash of the value with the merit ledger stamp
// embedded so signatures cannot be replayed on another chain.
func stamp(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	txHash := crypto.Keccak256(data)
	stamp := []byte("\x19Merit Signed Message:\n32")

	return crypto.Keccak256(stamp, txHash), nil
}

// toSignatureValues converts the signature into the r, s, v values.
func toSignatureValues(sig []byte) (v, r, s *big.Int) {
	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	v = new(big.Int).SetBytes([]byte{sig[64] + meritID})

	return v, r, s
}

// ToSignatureBytes converts the r, s, v values into the original 65 byte
// signature with the merit id removed.
func ToSignatureBytes(v, r, s *big.Int) []byte {
	sig := make([]byte, crypto.SignatureLength)

	rBytes := r.Bytes()
	copy(sig[32-len(rBytes):32], rBytes)

	sBytes := s.Bytes()
	copy(sig[64-len(sBytes):64], sBytes)

	sig[64] = byte(v.Uint64() - meritID)

	return sig
}
