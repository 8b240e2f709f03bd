package signature_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/meritledger/meritledger/foundation/ledger/signature"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const testKey = "9f332e3700d8fc2446eaf6d15034cf96e0c2745e40353deef032a5dbf1dfed93"

type payload struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func TestSignRecover(t *testing.T) {
	t.Log("Given the need to sign a value and recover the signer.")
	{
		pk, err := crypto.HexToECDSA(testKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to parse the private key: %v", failed, err)
		}

		value := payload{Name: "payout", Value: 12.5}

		v, r, s, err := signature.Sign(value, pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the value: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to sign the value.", success)

		if err := signature.VerifySignature(v, r, s); err != nil {
			t.Fatalf("\t%s\tShould produce a valid signature: %v", failed, err)
		}
		t.Logf("\t%s\tShould produce a valid signature.", success)

		address, err := signature.FromAddress(value, v, r, s)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to recover the address: %v", failed, err)
		}

		exp := signature.AddressFromPublicKey(pk.PublicKey)
		if address != exp {
			t.Fatalf("\t%s\tShould recover the signer's address, got %s, exp %s.", failed, address, exp)
		}
		t.Logf("\t%s\tShould recover the signer's address.", success)

		// A different value must not recover to the same signer.
		other, err := signature.FromAddress(payload{Name: "payout", Value: 13.5}, v, r, s)
		if err == nil && other == exp {
			t.Fatalf("\t%s\tShould not recover the signer for a different value.", failed)
		}
		t.Logf("\t%s\tShould not recover the signer for a different value.", success)
	}
}

func TestAddressDerivation(t *testing.T) {
	t.Log("Given the need for stable 64 hex digit addresses.")
	{
		addr := signature.AddressFromID("node-1")

		if len(addr) != 64 {
			t.Fatalf("\t%s\tShould derive a 64 digit address, got %d.", failed, len(addr))
		}
		t.Logf("\t%s\tShould derive a 64 digit address.", success)

		if addr != signature.AddressFromID("node-1") {
			t.Fatalf("\t%s\tShould derive the same address for the same id.", failed)
		}
		t.Logf("\t%s\tShould derive the same address for the same id.", success)

		if addr == signature.AddressFromID("node-2") {
			t.Fatalf("\t%s\tShould derive distinct addresses for distinct ids.", failed)
		}
		t.Logf("\t%s\tShould derive distinct addresses for distinct ids.", success)
	}
}

func TestHashStability(t *testing.T) {
	t.Log("Given the need for a stable content hash.")
	{
		a := signature.Hash(payload{Name: "block", Value: 1})
		b := signature.Hash(payload{Name: "block", Value: 1})
		c := signature.Hash(payload{Name: "block", Value: 2})

		if a != b {
			t.Fatalf("\t%s\tShould hash identical values identically.", failed)
		}
		t.Logf("\t%s\tShould hash identical values identically.", success)

		if a == c {
			t.Fatalf("\t%s\tShould hash different values differently.", failed)
		}
		t.Logf("\t%s\tShould hash different values differently.", success)

		if len(a) != 64 {
			t.Fatalf("\t%s\tShould produce 64 hex digits, got %d.", failed, len(a))
		}
		t.Logf("\t%s\tShould produce 64 hex digits.", success)
	}
}
