// Package public maintains the group of handlers for public access.
package public

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/textchain/blockchain/foundation/blockchain/state"
	"github.com/textchain/blockchain/foundation/events"
	"github.com/textchain/blockchain/foundation/nameservice"
	"github.com/textchain/blockchain/foundation/web"
	"go.uber.org/zap"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log         *zap.SugaredLogger
	State       *state.State
	NS          *nameservice.NameService
	Evts        *events.Events
	DevSigning  bool
	MineTimeout time.Duration
}

// Routes binds all the public routes. The paths are the fixed contract
// the UI consumes, they are not versioned.
func Routes(app *web.App, cfg Config) {
	pbl := Handlers{
		Log:         cfg.Log,
		State:       cfg.State,
		NS:          cfg.NS,
		WS:          websocket.Upgrader{},
		Evts:        cfg.Evts,
		DevSigning:  cfg.DevSigning,
		MineTimeout: cfg.MineTimeout,
	}

	app.Handle(http.MethodGet, "", "/events", pbl.Events)
	app.Handle(http.MethodGet, "", "/genesis", pbl.Genesis)
	app.Handle(http.MethodGet, "", "/chain", pbl.Chain)
	app.Handle(http.MethodGet, "", "/chain/validate", pbl.ValidateChain)
	app.Handle(http.MethodGet, "", "/pending", pbl.Pending)
	app.Handle(http.MethodGet, "", "/wallets/new", pbl.NewWallet)
	app.Handle(http.MethodPost, "", "/transactions/new", pbl.SubmitTransaction)
	app.Handle(http.MethodPost, "", "/transactions/new_with_key", pbl.SubmitTransactionWithKey)
	app.Handle(http.MethodPost, "", "/mine", pbl.Mine)
}
