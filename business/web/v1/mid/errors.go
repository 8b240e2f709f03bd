package mid

import (
	"context"
	"errors"
	"net/http"

	"github.com/meritledger/meritledger/business/web/errs"
	"github.com/meritledger/meritledger/foundation/ledger/state"
	"github.com/meritledger/meritledger/foundation/ledger/verify"
	"github.com/meritledger/meritledger/foundation/web"
	"go.uber.org/zap"
)

// Errors handles errors coming out of the call chain. It detects normal
// application errors which are used to respond to the client in a uniform
// way. Unexpected errors (status >= 500) are logged.
func Errors(log *zap.SugaredLogger) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if err := handler(ctx, w, r); err != nil {
				log.Errorw("ERROR", "traceid", web.GetTraceID(ctx), "message", err)

				var er errs.ErrorResponse
				var status int

				var re *verify.RejectedError
				switch {
				case errs.IsRequestError(err):
					reqErr := errs.GetRequestError(err)
					er = errs.ErrorResponse{Error: reqErr.Error()}
					status = reqErr.Status

				case errors.As(err, &re):
					er = errs.ErrorResponse{Error: re.Error()}
					status = http.StatusUnprocessableEntity

				case errors.Is(err, state.ErrNotEnoughFunds):
					er = errs.ErrorResponse{Error: err.Error()}
					status = http.StatusConflict

				default:
					er = errs.ErrorResponse{Error: http.StatusText(http.StatusInternalServerError)}
					status = http.StatusInternalServerError
				}

				if err := web.Respond(ctx, w, er, status); err != nil {
					return err
				}

				// If we receive the shutdown err we need to return it back
				// to the base handler to shut down the service.
				if web.IsShutdown(err) {
					return err
				}
			}

			return nil
		}

		return h
	}

	return m
}
