// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/meritledger/meritledger/app/services/node/handlers/v1/private"
	"github.com/meritledger/meritledger/app/services/node/handlers/v1/public"
	"github.com/meritledger/meritledger/foundation/events"
	"github.com/meritledger/meritledger/foundation/ledger/coordinator"
	"github.com/meritledger/meritledger/foundation/ledger/state"
	"github.com/meritledger/meritledger/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log         *zap.SugaredLogger
	State       *state.State
	Coordinator *coordinator.Coordinator
	Events      *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Evts:  cfg.Events,
	}

	app.Handle(http.MethodGet, version, "/genesis/list", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/supply", pbl.Supply)
	app.Handle(http.MethodGet, version, "/balances/list", pbl.Balances)
	app.Handle(http.MethodGet, version, "/balances/list/:account", pbl.Balances)
	app.Handle(http.MethodGet, version, "/blocks/list", pbl.BlocksByAccount)
	app.Handle(http.MethodGet, version, "/blocks/list/:account", pbl.BlocksByAccount)
	app.Handle(http.MethodGet, version, "/chain/verify", pbl.VerifyChain)
	app.Handle(http.MethodGet, version, "/tx/uncommitted/list", pbl.PendingTransfers)
	app.Handle(http.MethodPost, version, "/tx/send", pbl.SubmitTransfer)
	app.Handle(http.MethodPost, version, "/claims/submit", pbl.SubmitClaim)
	app.Handle(http.MethodGet, version, "/events", pbl.Events)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.NewHandlers(cfg.Log, cfg.State, cfg.Coordinator)

	app.Handle(http.MethodPost, version, "/node/register", prv.Register)
	app.Handle(http.MethodDelete, version, "/node/:id", prv.Remove)
	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
	app.Handle(http.MethodGet, version, "/pools/list", prv.Pools)
}
