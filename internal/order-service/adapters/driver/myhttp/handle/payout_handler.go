package handle

import (
	"encoding/json"
	"net/http"

	"food-dash/internal/mylogger"
	"food-dash/internal/order-service/core/domain/dto"
	"food-dash/internal/order-service/core/ports"
)

type PayoutHandler struct {
	payoutService ports.IPayoutService
	log           mylogger.Logger
}

func NewPayoutHandler(ps ports.IPayoutService, log mylogger.Logger) *PayoutHandler {
	return &PayoutHandler{
		payoutService: ps,
		log:           log,
	}
}

func (ph *PayoutHandler) RequestPayout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.PayoutRequestDto{}

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := ph.payoutService.RequestPayout(r.Context(), actorFrom(r), req)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusCreated, "payout", res)
	}
}

func (ph *PayoutHandler) ListPayouts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := ph.payoutService.ListPayouts(r.Context(), actorFrom(r))
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, "payouts", res)
	}
}

func (ph *PayoutHandler) Earnings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := ph.payoutService.Earnings(r.Context(), actorFrom(r))
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, "earnings", res)
	}
}

func (ph *PayoutHandler) CompletePayout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payoutId := r.PathValue("payout_id")

		res, err := ph.payoutService.CompletePayout(r.Context(), actorFrom(r), payoutId)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, "payout", res)
	}
}
