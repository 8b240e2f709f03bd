package pending_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/meritledger/meritledger/foundation/ledger/database"
	"github.com/meritledger/meritledger/foundation/ledger/pending"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// Throwaway keys for signing pooled transactions in tests.
var keys = []string{
	"9f332e3700d8fc2446eaf6d15034cf96e0c2745e40353deef032a5dbf1dfed93",
	"aed31b6b5a341af8f27e66fb0b7633cf20fc27049e3eb7f6f623a4655b719ebb",
}

const (
	accountA = database.AccountID("6b86b273ff34fce19d6b804eff5a3f5747ada4eaa22f1d49c01e52ddb7875b4b")
	accountB = database.AccountID("d4735e3a265e16eee03f59718b9b5d03019c07d8b6c51f90da3a666eec13ab35")
)

func sign(hexKey string, tx database.Tx) (database.BlockTx, error) {
	pk, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return database.BlockTx{}, err
	}

	signedTx, err := tx.Sign(pk)
	if err != nil {
		return database.BlockTx{}, err
	}

	return database.NewBlockTx(signedTx), nil
}

func TestCRUD(t *testing.T) {
	type table struct {
		name string
		txs  []database.Tx
	}

	tt := []table{
		{
			name: "upsert-delete",
			txs: []database.Tx{
				{ChainID: 1, FromID: accountA, ToID: accountB, Value: 100},
				{ChainID: 1, FromID: accountB, ToID: accountA, Value: 75},
			},
		},
	}

	t.Log("Given the need to manage the transaction pool.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a set of %d transactions.", testID, len(tst.txs))
			{
				f := func(t *testing.T) {
					pool := pending.New()

					for i, tx := range tst.txs {
						blockTx, err := sign(keys[i], tx)
						if err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to sign the transaction: %v", failed, testID, err)
						}
						pool.Upsert(blockTx)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to upsert the transactions.", success, testID)

					if pool.Count() != len(tst.txs) {
						t.Fatalf("\t%s\tTest %d:\tShould have %d transactions in the pool, got %d.", failed, testID, len(tst.txs), pool.Count())
					}
					t.Logf("\t%s\tTest %d:\tShould have %d transactions in the pool.", success, testID, len(tst.txs))

					picked := pool.PickAll()
					for _, tx := range picked {
						pool.Delete(tx)
					}

					if pool.Count() != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould have an empty pool after deletes, got %d.", failed, testID, pool.Count())
					}
					t.Logf("\t%s\tTest %d:\tShould have an empty pool after deletes.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestPickAllOrder(t *testing.T) {
	t.Log("Given the need to pick pooled transactions in a deterministic order.")
	{
		pool := pending.New()

		var want []string
		for i := 0; i < 4; i++ {
			tx := database.Tx{ChainID: 1, FromID: accountA, ToID: accountB, Value: float64(i + 1)}
			blockTx, err := sign(keys[0], tx)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to sign the transaction: %v", failed, err)
			}

			// Force distinct timestamps so the order under test is the
			// timestamp order, not the id tiebreak.
			blockTx.TimeStamp = uint64(1000 + i)

			pool.Upsert(blockTx)
			want = append(want, blockTx.ID)
		}

		first := pool.PickAll()
		second := pool.PickAll()

		if len(first) != len(want) {
			t.Fatalf("\t%s\tShould pick every pooled transaction, got %d, exp %d.", failed, len(first), len(want))
		}
		t.Logf("\t%s\tShould pick every pooled transaction.", success)

		for i := range first {
			if first[i].ID != want[i] {
				t.Fatalf("\t%s\tShould return transactions oldest first, index %d got %s, exp %s.", failed, i, first[i].ID, want[i])
			}
			if first[i].ID != second[i].ID {
				t.Fatalf("\t%s\tShould return the same order on every call, index %d differs.", failed, i)
			}
		}
		t.Logf("\t%s\tShould return transactions oldest first on every call.", success)
	}
}

func TestQueuedDebits(t *testing.T) {
	t.Log("Given the need to total an account's queued outgoing funds.")
	{
		pool := pending.New()

		txs := []database.Tx{
			{ChainID: 1, FromID: accountA, ToID: accountB, Value: 100, Fee: 0.001},
			{ChainID: 1, FromID: accountA, ToID: accountB, Value: 50, Fee: 0.001},
			{ChainID: 1, FromID: accountB, ToID: accountA, Value: 25, Fee: 0.001},
		}
		keyIdx := []int{0, 0, 1}

		for i, tx := range txs {
			blockTx, err := sign(keys[keyIdx[i]], tx)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to sign the transaction: %v", failed, err)
			}
			pool.Upsert(blockTx)
		}

		got := pool.QueuedDebits(accountA)
		exp := 150.002

		if diff := got - exp; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("\t%s\tShould total the account's debits, got %.4f, exp %.4f.", failed, got, exp)
		}
		t.Logf("\t%s\tShould total the account's debits.", success)
	}
}
