package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/meritledger/meritledger/foundation/ledger/database"
	"github.com/meritledger/meritledger/foundation/ledger/database/storage/memory"
	"github.com/meritledger/meritledger/foundation/ledger/genesis"
	"github.com/meritledger/meritledger/foundation/ledger/signature"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const (
	treasury = "250f40ba2f4990e8c8a63b572ddc29bf61c5cc4cf95ac3bf5d36962af7c7105f"
	minerKey = "9f332e3700d8fc2446eaf6d15034cf96e0c2745e40353deef032a5dbf1dfed93"
)

var noop = func(v string, args ...any) {}

// testGenesis uses a difficulty of one so mining in tests is instant.
func testGenesis() genesis.Genesis {
	return genesis.Genesis{
		Date:               time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainID:            1,
		InitialReward:      100.0,
		HalvingInterval:    210_000,
		MaxSupply:          21_000_000.0,
		TransactionFee:     0.001,
		Difficulty:         1,
		DifficultyInterval: 100,
		BlockTargetSeconds: 60,
		TreasuryAccount:    treasury,
		Balances: map[string]float64{
			treasury: 1_000_000.0,
		},
	}
}

func newDatabase(t *testing.T) (*database.Database, *memory.Memory) {
	t.Helper()

	storage, err := memory.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct storage: %v", failed, err)
	}

	db, err := database.New(testGenesis(), storage, noop)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the database: %v", failed, err)
	}

	return db, storage
}

// mineBlock performs proof of work on top of the current tip and accepts
// the result.
func mineBlock(t *testing.T, db *database.Database, improvement database.Improvement, trans []database.BlockTx) database.Block {
	t.Helper()

	tip := db.LatestBlock()

	block, err := database.POW(context.Background(), tip.Header.Difficulty, tip, improvement, trans, noop)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to mine a block: %v", failed, err)
	}

	if err := db.AcceptBlock(block); err != nil {
		t.Fatalf("\t%s\tShould be able to accept the mined block: %v", failed, err)
	}

	return block
}

func improvementFor(claimant string, percent float64, rewardAmt float64) database.Improvement {
	return database.Improvement{
		Kind:         "model accuracy",
		Percent:      percent,
		Claimant:     database.AccountID(claimant),
		ArtifactHash: signature.Hash("artifact"),
		Reward:       rewardAmt,
	}
}

// =============================================================================

func TestGenesisSeeding(t *testing.T) {
	t.Log("Given the need to start a chain from genesis.")
	{
		db, _ := newDatabase(t)

		tip := db.LatestBlock()
		if tip.Header.Number != 0 {
			t.Fatalf("\t%s\tShould start at block 0, got %d.", failed, tip.Header.Number)
		}
		t.Logf("\t%s\tShould start at block 0.", success)

		if tip.Header.PrevBlockHash != signature.ZeroHash {
			t.Fatalf("\t%s\tShould carry the zero sentinel as the parent hash.", failed)
		}
		t.Logf("\t%s\tShould carry the zero sentinel as the parent hash.", success)

		// Genesis balances plus the genesis block reward.
		exp := 1_000_000.0 + 100.0
		if db.Supply() != exp {
			t.Fatalf("\t%s\tShould have supply %.1f, got %.1f.", failed, exp, db.Supply())
		}
		t.Logf("\t%s\tShould have the seeded supply.", success)

		if db.BalanceOf(treasury) != exp {
			t.Fatalf("\t%s\tShould credit the treasury with seed and genesis reward, got %.1f.", failed, db.BalanceOf(treasury))
		}
		t.Logf("\t%s\tShould credit the treasury with seed and genesis reward.", success)
	}
}

func TestMineAndAccept(t *testing.T) {
	t.Log("Given the need to mint a block for a verified improvement.")
	{
		db, _ := newDatabase(t)

		miner := signature.AddressFromID("node-1")
		block := mineBlock(t, db, improvementFor(miner, 5.0, 42.0), nil)

		if db.LatestBlock().Hash() != block.Hash() {
			t.Fatalf("\t%s\tShould advance the tip to the new block.", failed)
		}
		t.Logf("\t%s\tShould advance the tip to the new block.", success)

		if db.BalanceOf(database.AccountID(miner)) != 42.0 {
			t.Fatalf("\t%s\tShould credit the claimant with the reward, got %.1f.", failed, db.BalanceOf(database.AccountID(miner)))
		}
		t.Logf("\t%s\tShould credit the claimant with the reward.", success)

		accounts := db.CopyAccounts()
		stats := accounts[database.AccountID(miner)].Stats
		if stats.Contributions != 1 || stats.Mined != 42.0 || stats.ArtifactsImproved != 1 {
			t.Fatalf("\t%s\tShould update the claimant's mining stats, got %+v.", failed, stats)
		}
		t.Logf("\t%s\tShould update the claimant's mining stats.", success)

		if err := db.Verify(); err != nil {
			t.Fatalf("\t%s\tShould verify the chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould verify the chain.", success)
	}
}

func TestRejectBadParent(t *testing.T) {
	t.Log("Given the need to reject a block minted on a stale parent.")
	{
		db, _ := newDatabase(t)

		heightBefore := db.Height()

		// Mine against a fabricated parent that is not the tip.
		fakeParent := database.Block{
			Header: database.BlockHeader{
				Number:     0,
				TimeStamp:  uint64(time.Now().UTC().Unix()),
				Difficulty: 1,
			},
		}

		block, err := database.POW(context.Background(), 1, fakeParent, improvementFor(treasury, 5.0, 1.0), nil, noop)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine the stale block: %v", failed, err)
		}

		if err := db.AcceptBlock(block); err == nil {
			t.Fatalf("\t%s\tShould reject a block with the wrong parent hash.", failed)
		}
		t.Logf("\t%s\tShould reject a block with the wrong parent hash.", success)

		if db.Height() != heightBefore {
			t.Fatalf("\t%s\tShould leave the chain height unchanged, got %d.", failed, db.Height())
		}
		t.Logf("\t%s\tShould leave the chain height unchanged.", success)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	t.Log("Given the need to detect a tampered block in storage.")
	{
		db, storage := newDatabase(t)

		miner := signature.AddressFromID("node-1")
		for i := 0; i < 3; i++ {
			mineBlock(t, db, improvementFor(miner, 5.0, 10.0), nil)
		}

		if err := db.Verify(); err != nil {
			t.Fatalf("\t%s\tShould verify the untouched chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould verify the untouched chain.", success)

		// Inflate the reward in block 2 behind the database's back.
		blockData, err := storage.GetBlock(2)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to read block 2: %v", failed, err)
		}
		blockData.Improvement.Reward = 1_000_000.0
		storage.Corrupt(2, blockData)

		err = db.Verify()
		if err == nil {
			t.Fatalf("\t%s\tShould detect the tampered block.", failed)
		}
		t.Logf("\t%s\tShould detect the tampered block.", success)

		var ce *database.ChainError
		if !errors.As(err, &ce) || ce.Number != 2 {
			t.Fatalf("\t%s\tShould name block 2 as the first bad block, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould name block 2 as the first bad block.", success)
	}
}

func TestReplayMatchesCache(t *testing.T) {
	t.Log("Given the need for chain replay to reproduce the cached balances.")
	{
		db, _ := newDatabase(t)

		pk, err := crypto.HexToECDSA(minerKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to parse the key: %v", failed, err)
		}
		miner := signature.AddressFromPublicKey(pk.PublicKey)

		// Give the miner funds, then have it send some back.
		mineBlock(t, db, improvementFor(miner, 5.0, 500.0), nil)

		tx, err := database.NewTx(1, database.AccountID(miner), treasury, 100.0, 0.001)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build the transaction: %v", failed, err)
		}
		signedTx, err := tx.Sign(pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the transaction: %v", failed, err)
		}

		mineBlock(t, db, improvementFor(signature.AddressFromID("node-2"), 5.0, 10.0), []database.BlockTx{database.NewBlockTx(signedTx)})

		for _, account := range []string{miner, treasury, signature.AddressFromID("node-2")} {
			cached := db.BalanceOf(database.AccountID(account))
			replayed, err := db.ReplayBalance(database.AccountID(account))
			if err != nil {
				t.Fatalf("\t%s\tShould be able to replay %s: %v", failed, account, err)
			}
			if cached != replayed {
				t.Fatalf("\t%s\tShould replay to the cached balance for %s, cache %.4f, replay %.4f.", failed, account, cached, replayed)
			}
		}
		t.Logf("\t%s\tShould replay to the cached balance for every account.", success)
	}
}

func TestPOWCancellation(t *testing.T) {
	t.Log("Given the need to abandon mining on context cancellation.")
	{
		db, _ := newDatabase(t)
		tip := db.LatestBlock()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// An unreachable difficulty keeps the search running until the
		// cancellation check fires.
		_, err := database.POW(ctx, 32, tip, improvementFor(treasury, 5.0, 1.0), nil, noop)
		if err == nil {
			t.Fatalf("\t%s\tShould return the cancellation error.", failed)
		}
		t.Logf("\t%s\tShould return the cancellation error.", success)

		if db.Height() != 1 {
			t.Fatalf("\t%s\tShould leave the chain untouched, height %d.", failed, db.Height())
		}
		t.Logf("\t%s\tShould leave the chain untouched.", success)
	}
}

func TestNextDifficulty(t *testing.T) {
	gen := testGenesis()
	gen.DifficultyInterval = 4
	gen.BlockTargetSeconds = 60

	// Fabricate an anchor and a tip at the retarget boundary.
	anchor := database.Block{
		Header: database.BlockHeader{Number: 0, TimeStamp: 1_000},
	}
	getBlock := func(num uint64) (database.Block, error) {
		return anchor, nil
	}

	tests := []struct {
		name    string
		elapsed uint64
		current uint
		exp     uint
	}{
		{name: "fast interval raises", elapsed: 100, current: 4, exp: 5},
		{name: "slow interval lowers", elapsed: 500, current: 4, exp: 3},
		{name: "on target holds", elapsed: 240, current: 4, exp: 4},
		{name: "floor of one", elapsed: 500, current: 1, exp: 1},
	}

	t.Log("Given the need to retarget difficulty at interval boundaries.")
	{
		for testID, tt := range tests {
			tip := database.Block{
				Header: database.BlockHeader{
					Number:     3,
					TimeStamp:  anchor.Header.TimeStamp + tt.elapsed,
					Difficulty: tt.current,
				},
			}

			got := database.NextDifficulty(gen, tip, getBlock)
			if got != tt.exp {
				t.Fatalf("\t%s\tTest %d:\t%s: got %d, exp %d.", failed, testID, tt.name, got, tt.exp)
			}
			t.Logf("\t%s\tTest %d:\t%s.", success, testID, tt.name)
		}

		// Off the boundary the difficulty is reused verbatim.
		tip := database.Block{
			Header: database.BlockHeader{Number: 4, TimeStamp: 2_000, Difficulty: 7},
		}
		if got := database.NextDifficulty(gen, tip, getBlock); got != 7 {
			t.Fatalf("\t%s\tShould reuse the tip difficulty off the boundary, got %d.", failed, got)
		}
		t.Logf("\t%s\tShould reuse the tip difficulty off the boundary.", success)
	}
}
