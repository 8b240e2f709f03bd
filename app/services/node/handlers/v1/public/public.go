// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/meritledger/meritledger/business/web/errs"
	"github.com/meritledger/meritledger/foundation/events"
	"github.com/meritledger/meritledger/foundation/ledger/database"
	"github.com/meritledger/meritledger/foundation/ledger/reward"
	"github.com/meritledger/meritledger/foundation/ledger/state"
	"github.com/meritledger/meritledger/foundation/ledger/verify"
	"github.com/meritledger/meritledger/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of public endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
	WS    websocket.Upgrader
}

// Genesis returns the genesis information for the chain.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Genesis(), http.StatusOK)
}

// Supply returns the circulating supply against the cap.
func (h Handlers) Supply(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := supply{
		Supply:    h.State.Supply(),
		MaxSupply: h.State.Genesis().MaxSupply,
		Height:    h.State.Height(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Balances returns the derived balances, for one account or for all.
func (h Handlers) Balances(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account := web.Param(r, "account")

	var bals []balance

	switch account {
	case "":
		for accountID, act := range h.State.Accounts() {
			bals = append(bals, balance{Account: string(accountID), Balance: act.Balance})
		}

	default:
		accountID, err := database.ToAccountID(account)
		if err != nil {
			return errs.NewRequestError(err, http.StatusBadRequest)
		}
		bals = append(bals, balance{Account: account, Balance: h.State.QueryBalance(accountID)})
	}

	resp := balances{
		LatestBlock: h.State.LatestBlock().Hash(),
		Uncommitted: len(h.State.PendingTransfers()),
		Balances:    bals,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// BlocksByAccount returns the blocks referencing the specified account, or
// the whole chain when no account is specified.
func (h Handlers) BlocksByAccount(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account := web.Param(r, "account")

	var accountID database.AccountID
	if account != "" {
		var err error
		accountID, err = database.ToAccountID(account)
		if err != nil {
			return errs.NewRequestError(err, http.StatusBadRequest)
		}
	}

	blocks, err := h.State.QueryBlocksByAccount(accountID)
	if err != nil {
		return err
	}

	blockData := make([]database.BlockData, len(blocks))
	for i, block := range blocks {
		blockData[i] = database.NewBlockData(block)
	}

	return web.Respond(ctx, w, blockData, http.StatusOK)
}

// VerifyChain walks the stored chain checking hashes and linkage.
func (h Handlers) VerifyChain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := chainState{
		Valid:  true,
		Height: h.State.Height(),
	}

	if err := h.State.VerifyChain(); err != nil {
		resp.Valid = false
		resp.Error = err.Error()
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// PendingTransfers returns the transactions waiting to be minted.
func (h Handlers) PendingTransfers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.PendingTransfers(), http.StatusOK)
}

// SubmitTransfer accepts a signed transaction into the pending pool.
func (h Handlers) SubmitTransfer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var requestTx tx
	if err := web.Decode(r, &requestTx); err != nil {
		return errs.NewRequestError(err, http.StatusBadRequest)
	}

	fromID, err := database.ToAccountID(requestTx.From)
	if err != nil {
		return errs.NewRequestError(err, http.StatusBadRequest)
	}
	toID, err := database.ToAccountID(requestTx.To)
	if err != nil {
		return errs.NewRequestError(err, http.StatusBadRequest)
	}

	signedTx := database.SignedTx{
		Tx: database.Tx{
			ChainID:      requestTx.ChainID,
			FromID:       fromID,
			ToID:         toID,
			Value:        requestTx.Value,
			Fee:          requestTx.Fee,
			Contribution: requestTx.Contribution,
		},
		V: requestTx.V,
		R: requestTx.R,
		S: requestTx.S,
	}

	if err := h.State.SubmitTransfer(signedTx); err != nil {
		if errors.Is(err, state.ErrNotEnoughFunds) {
			return err
		}
		return errs.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transaction added to the pool",
	}

	return web.Respond(ctx, w, resp, http.StatusAccepted)
}

// SubmitClaim runs an improvement claim through the admission gate and
// mints a block when the claim is admitted.
func (h Handlers) SubmitClaim(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req claimRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewRequestError(err, http.StatusBadRequest)
	}

	beneficiaryID, err := database.ToAccountID(req.Beneficiary)
	if err != nil {
		return errs.NewRequestError(fmt.Errorf("beneficiary: %w", err), http.StatusBadRequest)
	}

	claim := verify.Claim{
		ArtifactID:       req.ArtifactID,
		BaselineAccuracy: req.BaselineAccuracy,
		ImprovedAccuracy: req.ImprovedAccuracy,
		Percent:          req.Percent,
		Metrics:          req.Metrics,
		Consensus:        req.Consensus,
	}

	block, amount, err := h.State.SubmitImprovement(ctx, claim, reward.Kind(req.Kind), beneficiaryID)
	if err != nil {
		return err
	}

	resp := mined{
		Block:  block.Header.Number,
		Hash:   block.Hash(),
		Reward: amount,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Events upgrades the connection to a websocket and streams node events
// until the client disconnects.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	h.Log.Infow("events", "traceid", v.TraceID, "message", "websocket open")
	defer h.Log.Infow("events", "traceid", v.TraceID, "message", "websocket closed")

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	// Detect the client hanging up.
	closed := make(chan struct{})
	c.SetCloseHandler(func(code int, text string) error {
		close(closed)
		return nil
	})

	// The read pump only exists to run the close handler.
	go func() {
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}
		case <-closed:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}
