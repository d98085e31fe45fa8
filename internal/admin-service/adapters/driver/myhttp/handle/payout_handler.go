package handle

import (
	"context"
	"errors"
	"net/http"
	"time"

	"food-dash/internal/mylogger"
	"food-dash/internal/order-service/core/domain/model"
	"food-dash/internal/order-service/core/myerrors"
	"food-dash/internal/order-service/core/ports"
)

// PayoutHandler settles pending payouts. It drives the same payout
// service the order service exposes to cafes and drivers, here with
// the admin-only completion operation.
type PayoutHandler struct {
	payoutService ports.IPayoutService
	mylog         mylogger.Logger
}

func NewPayoutHandler(mylog mylogger.Logger, payoutService ports.IPayoutService) *PayoutHandler {
	return &PayoutHandler{
		payoutService: payoutService,
		mylog:         mylog,
	}
}

func (ph *PayoutHandler) CompletePayout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payoutId := r.PathValue("payout_id")

		actor := model.Actor{
			UserId: r.Header.Get("X-UserId"),
			Role:   r.Header.Get("X-Role"),
		}

		ctx, cancel := context.WithTimeout(r.Context(), WaitTime*time.Second)
		defer cancel()

		res, err := ph.payoutService.CompletePayout(ctx, actor, payoutId)
		if err != nil {
			switch {
			case errors.Is(err, myerrors.ErrNotFound):
				jsonError(w, http.StatusNotFound, err)
			case errors.Is(err, myerrors.ErrConflict):
				jsonError(w, http.StatusConflict, err)
			case errors.Is(err, myerrors.ErrForbidden):
				jsonError(w, http.StatusForbidden, err)
			default:
				jsonError(w, http.StatusInternalServerError, err)
			}
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}
