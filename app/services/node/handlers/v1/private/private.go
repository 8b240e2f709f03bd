// Package private maintains the group of handlers for the operator API.
package private

import (
	"context"
	"errors"
	"net/http"

	"github.com/meritledger/meritledger/business/web/errs"
	"github.com/meritledger/meritledger/foundation/ledger/coordinator"
	"github.com/meritledger/meritledger/foundation/ledger/state"
	"github.com/meritledger/meritledger/foundation/web"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

// Handlers manages the set of private endpoints.
type Handlers struct {
	Log         *zap.SugaredLogger
	State       *state.State
	Coordinator *coordinator.Coordinator

	// Registration pacing keeps a worker restart loop from hammering
	// the registry.
	limiter ratelimit.Limiter
}

// NewHandlers constructs the handlers with the registration limiter set.
func NewHandlers(log *zap.SugaredLogger, st *state.State, crd *coordinator.Coordinator) Handlers {
	return Handlers{
		Log:         log,
		State:       st,
		Coordinator: crd,
		limiter:     ratelimit.New(5),
	}
}

// Register adds a worker node to the coordinator and returns its first
// training assignment.
func (h Handlers) Register(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if h.limiter != nil {
		h.limiter.Take()
	}

	var req registerRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewRequestError(err, http.StatusBadRequest)
	}

	task, err := h.Coordinator.Register(coordinator.Registration{
		NodeID:       req.NodeID,
		Cores:        req.Cores,
		Accelerators: req.Accelerators,
		MemoryGB:     req.MemoryGB,
		Throughput:   req.Throughput,
	})
	if err != nil {
		if errors.Is(err, coordinator.ErrRegistryFull) {
			return errs.NewRequestError(err, http.StatusServiceUnavailable)
		}
		return errs.NewRequestError(err, http.StatusConflict)
	}

	return web.Respond(ctx, w, task, http.StatusCreated)
}

// Remove marks a worker node inactive.
func (h Handlers) Remove(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	nodeID := web.Param(r, "id")

	if err := h.Coordinator.Remove(nodeID); err != nil {
		return errs.NewRequestError(err, http.StatusNotFound)
	}

	return web.Respond(ctx, w, nil, http.StatusNoContent)
}

// Status returns a point-in-time view of the coordinator.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Coordinator.Status(), http.StatusOK)
}

// Pools returns the bonus pool and the per-node contributions awaiting the
// next payout sweep.
func (h Handlers) Pools(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	status := h.Coordinator.Status()

	resp := poolStatus{
		Pending:  status.PoolPending,
		Treasury: h.State.QueryBalance(treasuryID(h.State)),
	}
	for _, node := range status.Nodes {
		resp.Shares = append(resp.Shares, poolShare{
			NodeID:       node.NodeID,
			Account:      string(node.AccountID),
			Contribution: node.Contribution,
		})
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
