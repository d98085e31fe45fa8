package handle

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"food-dash/internal/mylogger"
	"food-dash/internal/order-service/core/domain/dto"
	"food-dash/internal/order-service/core/ports"
)

type OrderHandler struct {
	orderService ports.IOrderService
	log          mylogger.Logger
}

func NewOrderHandler(os ports.IOrderService, log mylogger.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: os,
		log:          log,
	}
}

func (oh *OrderHandler) CreateOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.CreateOrderRequestDto{}

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := oh.orderService.CreateOrder(r.Context(), actorFrom(r), req)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusCreated, "order", res)
	}
}

func (oh *OrderHandler) GetOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderId := r.PathValue("order_id")

		res, err := oh.orderService.GetOrder(r.Context(), actorFrom(r), orderId)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, "order", res)
	}
}

func (oh *OrderHandler) ListOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := oh.orderService.ListOrders(r.Context(), actorFrom(r))
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, "orders", res)
	}
}

func (oh *OrderHandler) AvailableOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := oh.orderService.AvailableOrders(r.Context())
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, "orders", res)
	}
}

func (oh *OrderHandler) Accept() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderId := r.PathValue("order_id")

		res, err := oh.orderService.Accept(r.Context(), actorFrom(r), orderId)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, "order", res)
	}
}

func (oh *OrderHandler) Assign() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderId := r.PathValue("order_id")

		req := dto.AssignRequestDto{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := oh.orderService.Assign(r.Context(), actorFrom(r), orderId, req.DriverId)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, "order", res)
	}
}

func (oh *OrderHandler) Claim() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderId := r.PathValue("order_id")

		res, err := oh.orderService.Claim(r.Context(), actorFrom(r), orderId)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, "order", res)
	}
}

func (oh *OrderHandler) Pickup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderId := r.PathValue("order_id")

		res, err := oh.orderService.Pickup(r.Context(), actorFrom(r), orderId)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, "order", res)
	}
}

func (oh *OrderHandler) Deliver() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderId := r.PathValue("order_id")

		res, err := oh.orderService.Deliver(r.Context(), actorFrom(r), orderId)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, "order", res)
	}
}

func (oh *OrderHandler) Complete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderId := r.PathValue("order_id")

		res, err := oh.orderService.Complete(r.Context(), actorFrom(r), orderId)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, "order", res)
	}
}

func (oh *OrderHandler) Cancel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderId := r.PathValue("order_id")

		// The reason is optional, so an empty body is fine.
		req := dto.CancelRequestDto{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := oh.orderService.Cancel(r.Context(), actorFrom(r), orderId, req.Reason)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, "order", res)
	}
}

func (oh *OrderHandler) Dispute() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderId := r.PathValue("order_id")

		req := dto.DisputeRequestDto{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := oh.orderService.Dispute(r.Context(), actorFrom(r), orderId, req)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, "order", res)
	}
}

// Webhook is the unauthenticated gateway callback endpoint; callers are
// matched by tx_ref only.
func (oh *OrderHandler) Webhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.WebhookRequestDto{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := oh.orderService.RecordWebhook(r.Context(), req)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, "order", res)
	}
}
