package mid

import (
	"context"
	"net/http"

	"github.com/meritledger/meritledger/business/sys/metrics"
	"github.com/meritledger/meritledger/foundation/web"
)

// Metrics updates the request counters.
func Metrics(mtr *metrics.Metrics) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			mtr.AddRequest()

			err := handler(ctx, w, r)
			if err != nil {
				mtr.AddError()
			}

			return err
		}

		return h
	}

	return m
}
