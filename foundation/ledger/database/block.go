package database

import (
	"context"
	"fmt"
	"time"

	"github.com/meritledger/meritledger/foundation/ledger/genesis"
	"github.com/meritledger/meritledger/foundation/ledger/signature"
)

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	Number        uint64 `json:"number"`          // Block number in the chain, zero for genesis.
	TimeStamp     uint64 `json:"timestamp"`       // Time the block was mined.
	PrevBlockHash string `json:"prev_block_hash"` // Hash of the previous block in the chain.
	Nonce         uint64 `json:"nonce"`           // Value identified to solve the hash solution.
	Difficulty    uint   `json:"difficulty"`      // Number of leading zero hex digits the hash must carry.
}

// Improvement is the verified improvement record a block was minted for.
type Improvement struct {
	Kind         string    `json:"kind"`          // Category of the improvement.
	Percent      float64   `json:"percent"`       // Improvement percentage the claim asserted.
	Claimant     AccountID `json:"claimant"`      // Account credited with the reward.
	ArtifactHash string    `json:"artifact_hash"` // Reference to the improved artifact.
	Reward       float64   `json:"reward"`        // Amount minted for this block.
}

// Block represents an improvement record and a batch of transactions minted
// together.
type Block struct {
	Header      BlockHeader
	Improvement Improvement
	Trans       []BlockTx
}

// hashScope is the canonical serialization the block hash covers. Keeping
// it separate from Block pins the wire layout of the hash input.
type hashScope struct {
	Number        uint64    `json:"number"`
	TimeStamp     uint64    `json:"timestamp"`
	PrevBlockHash string    `json:"prev_block_hash"`
	Nonce         uint64    `json:"nonce"`
	Percent       float64   `json:"percent"`
	Claimant      AccountID `json:"claimant"`
	Reward        float64   `json:"reward"`
}

// Hash returns the unique hash for the block, recomputed from the fields
// the canonical serialization covers.
func (b Block) Hash() string {
	return signature.Hash(hashScope{
		Number:        b.Header.Number,
		TimeStamp:     b.Header.TimeStamp,
		PrevBlockHash: b.Header.PrevBlockHash,
		Nonce:         b.Header.Nonce,
		Percent:       b.Improvement.Percent,
		Claimant:      b.Improvement.Claimant,
		Reward:        b.Improvement.Reward,
	})
}

// =============================================================================

// GenesisBlock constructs the one block at number zero. Its previous hash
// is the zero sentinel and its reward seeds the treasury.
func GenesisBlock(gen genesis.Genesis) Block {
	return Block{
		Header: BlockHeader{
			Number:        0,
			TimeStamp:     uint64(gen.Date.UTC().Unix()),
			PrevBlockHash: signature.ZeroHash,
			Nonce:         0,
			Difficulty:    gen.Difficulty,
		},
		Improvement: Improvement{
			Kind:         "kernel enhancement",
			Percent:      100.0,
			Claimant:     AccountID(gen.TreasuryAccount),
			ArtifactHash: signature.ZeroHash,
			Reward:       gen.InitialReward,
		},
	}
}

// POW constructs a candidate block on top of the previous block and performs
// the proof of work search for a nonce that solves the difficulty target.
// The search holds no locks and unwinds on context cancellation without
// producing a block.
func POW(ctx context.Context, difficulty uint, prevBlock Block, improvement Improvement, trans []BlockTx, ev func(v string, args ...any)) (Block, error) {
	nb := Block{
		Header: BlockHeader{
			Number:        prevBlock.Header.Number + 1,
			TimeStamp:     uint64(time.Now().UTC().Unix()),
			PrevBlockHash: prevBlock.Hash(),
			Nonce:         0,
			Difficulty:    difficulty,
		},
		Improvement: improvement,
		Trans:       trans,
	}

	if err := nb.performPOW(ctx, ev); err != nil {
		return Block{}, err
	}

	return nb, nil
}

// performPOW does the work of mining to find a valid hash for a specified
// block. Pointer semantics are being used since a nonce is being discovered.
func (b *Block) performPOW(ctx context.Context, ev func(v string, args ...any)) error {
	ev("database: performPOW: mining: started: blk[%d] diff[%d]", b.Header.Number, b.Header.Difficulty)
	defer ev("database: performPOW: mining: completed: blk[%d]", b.Header.Number)

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: performPOW: mining: attempts[%d]", attempts)
		}

		if ctx.Err() != nil {
			ev("database: performPOW: mining: CANCELLED")
			return ctx.Err()
		}

		hash := b.Hash()
		if !isHashSolved(b.Header.Difficulty, hash) {
			b.Header.Nonce++
			continue
		}

		ev("database: performPOW: mining: SOLVED: prevBlk[%s]: newBlk[%s]: attempts[%d]", b.Header.PrevBlockHash, hash, attempts)
		return nil
	}
}

// isHashSolved checks the hash carries the required number of leading
// zero hex digits.
func isHashSolved(difficulty uint, hash string) bool {
	const match = "00000000000000000000000000000000"

	if len(hash) != 64 || difficulty > uint(len(match)) {
		return false
	}

	return hash[:difficulty] == match[:difficulty]
}

// =============================================================================

// ValidateBlock takes a block and validates it to be included after the
// specified previous block.
func (b Block) ValidateBlock(previousBlock Block, ev func(v string, args ...any)) error {
	ev("database: ValidateBlock: blk[%d]: check: block number is the next number", b.Header.Number)

	nextNumber := previousBlock.Header.Number + 1
	if b.Header.Number != nextNumber {
		return fmt.Errorf("this block is not the next number, got %d, exp %d", b.Header.Number, nextNumber)
	}

	ev("database: ValidateBlock: blk[%d]: check: parent hash matches parent block", b.Header.Number)

	if b.Header.PrevBlockHash != previousBlock.Hash() {
		return fmt.Errorf("parent block hash doesn't match our known parent, got %s, exp %s", b.Header.PrevBlockHash, previousBlock.Hash())
	}

	ev("database: ValidateBlock: blk[%d]: check: block hash has been solved", b.Header.Number)

	if !isHashSolved(b.Header.Difficulty, b.Hash()) {
		return fmt.Errorf("%s invalid block hash", b.Hash())
	}

	ev("database: ValidateBlock: blk[%d]: check: block timestamp does not precede the parent", b.Header.Number)

	if b.Header.TimeStamp < previousBlock.Header.TimeStamp {
		return fmt.Errorf("block timestamp is before parent block, parent %d, block %d", previousBlock.Header.TimeStamp, b.Header.TimeStamp)
	}

	return nil
}

// =============================================================================

// NextDifficulty determines the difficulty for the block following the tip.
// Outside a retarget boundary the tip's difficulty is reused verbatim. On a
// boundary the difficulty moves by one step depending on how the elapsed
// wall clock time for the last interval compares to the target.
func NextDifficulty(gen genesis.Genesis, tip Block, getBlock func(num uint64) (Block, error)) uint {
	next := tip.Header.Number + 1
	if gen.DifficultyInterval == 0 || next%gen.DifficultyInterval != 0 {
		return tip.Header.Difficulty
	}

	if next < gen.DifficultyInterval {
		return tip.Header.Difficulty
	}

	anchor, err := getBlock(next - gen.DifficultyInterval)
	if err != nil {
		return tip.Header.Difficulty
	}

	elapsed := tip.Header.TimeStamp - anchor.Header.TimeStamp
	expected := gen.DifficultyInterval * gen.BlockTargetSeconds

	difficulty := tip.Header.Difficulty
	switch {
	case elapsed < expected/2:
		difficulty++
	case elapsed > expected*2:
		if difficulty > 1 {
			difficulty--
		}
	}

	return difficulty
}

// =============================================================================

// BlockData represents what is serialized in the block store. The stored
// hash lets integrity verification detect a tampered entry.
type BlockData struct {
	Hash        string      `json:"hash"`
	Header      BlockHeader `json:"header"`
	Improvement Improvement `json:"improvement"`
	Trans       []BlockTx   `json:"trans"`
}

// NewBlockData constructs the value to serialize.
func NewBlockData(block Block) BlockData {
	return BlockData{
		Hash:        block.Hash(),
		Header:      block.Header,
		Improvement: block.Improvement,
		Trans:       block.Trans,
	}
}

// ToBlock converts a stored BlockData into a Block.
func ToBlock(blockData BlockData) Block {
	return Block{
		Header:      blockData.Header,
		Improvement: blockData.Improvement,
		Trans:       blockData.Trans,
	}
}
