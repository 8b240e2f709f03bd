package database

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/meritledger/meritledger/foundation/ledger/signature"
)

// Contribution optionally ties a transfer back to the improvement work that
// earned it, such as a pool payout.
type Contribution struct {
	Kind        string  `json:"kind"`
	Score       float64 `json:"score"`
	ArtifactRef string  `json:"artifact_ref"`
}

// Tx is the transactional information between two parties.
type Tx struct {
	ChainID      uint16        `json:"chain_id"`
	FromID       AccountID     `json:"from"`
	ToID         AccountID     `json:"to"`
	Value        float64       `json:"value"`
	Fee          float64       `json:"fee"`
	Contribution *Contribution `json:"contribution,omitempty"`
}

// NewTx constructs a new transaction.
func NewTx(chainID uint16, fromID AccountID, toID AccountID, value float64, fee float64) (Tx, error) {
	if !fromID.IsAccountID() {
		return Tx{}, fmt.Errorf("from account is not properly formatted")
	}
	if !toID.IsAccountID() {
		return Tx{}, fmt.Errorf("to account is not properly formatted")
	}

	tx := Tx{
		ChainID: chainID,
		FromID:  fromID,
		ToID:    toID,
		Value:   value,
		Fee:     fee,
	}

	return tx, nil
}

// Sign uses the specified private key to sign the transaction.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) (SignedTx, error) {
	v, r, s, err := signature.Sign(tx, privateKey)
	if err != nil {
		return SignedTx{}, err
	}

	signedTx := SignedTx{
		Tx: tx,
		V:  v,
		R:  r,
		S:  s,
	}

	return signedTx, nil
}

// =============================================================================

// SignedTx is a signed version of the transaction. The signature is opaque
// to the ledger core; how it is checked belongs to the configured verifier.
type SignedTx struct {
	Tx
	V *big.Int `json:"v"`
	R *big.Int `json:"r"`
	S *big.Int `json:"s"`
}

// Validate is the default verification predicate. It verifies the signature
// conforms to the ledger standards and recovers to the declared sender.
func (tx SignedTx) Validate() error {
	if !tx.ToID.IsAccountID() {
		return errors.New("invalid account for to account")
	}

	if err := signature.VerifySignature(tx.V, tx.R, tx.S); err != nil {
		return err
	}

	address, err := signature.FromAddress(tx.Tx, tx.V, tx.R, tx.S)
	if err != nil {
		return err
	}
	if AccountID(address) != tx.FromID {
		return fmt.Errorf("signature does not match the from account, got %s, exp %s", address, tx.FromID)
	}

	return nil
}

// SignatureString returns the signature as a string.
func (tx SignedTx) SignatureString() string {
	return signature.SignatureString(tx.V, tx.R, tx.S)
}

// String implements the fmt.Stringer interface for logging.
func (tx SignedTx) String() string {
	return fmt.Sprintf("%s:%.4f", tx.FromID, tx.Value)
}

// =============================================================================

// BlockTx represents the transaction as it is recorded inside a block.
type BlockTx struct {
	SignedTx
	ID        string `json:"id"`
	TimeStamp uint64 `json:"timestamp"`
}

// NewBlockTx constructs a new block transaction.
func NewBlockTx(signedTx SignedTx) BlockTx {
	return BlockTx{
		SignedTx:  signedTx,
		ID:        uuid.NewString(),
		TimeStamp: uint64(time.Now().UTC().Unix()),
	}
}
