package ports

import (
	"context"

	"food-dash/internal/order-service/core/domain/dto"
	"food-dash/internal/order-service/core/domain/model"
)

type IOrderService interface {
	CreateOrder(ctx context.Context, actor model.Actor, req dto.CreateOrderRequestDto) (dto.OrderDto, error)
	GetOrder(ctx context.Context, actor model.Actor, orderId string) (dto.OrderDto, error)
	ListOrders(ctx context.Context, actor model.Actor) ([]dto.OrderDto, error)
	AvailableOrders(ctx context.Context) ([]dto.AvailableOrderDto, error)

	Accept(ctx context.Context, actor model.Actor, orderId string) (dto.OrderDto, error)
	Assign(ctx context.Context, actor model.Actor, orderId, driverId string) (dto.OrderDto, error)
	Claim(ctx context.Context, actor model.Actor, orderId string) (dto.OrderDto, error)
	Pickup(ctx context.Context, actor model.Actor, orderId string) (dto.OrderDto, error)
	Deliver(ctx context.Context, actor model.Actor, orderId string) (dto.OrderDto, error)
	Complete(ctx context.Context, actor model.Actor, orderId string) (dto.OrderDto, error)
	Cancel(ctx context.Context, actor model.Actor, orderId, reason string) (dto.OrderDto, error)
	Dispute(ctx context.Context, actor model.Actor, orderId string, req dto.DisputeRequestDto) (dto.OrderDto, error)

	RecordWebhook(ctx context.Context, req dto.WebhookRequestDto) (dto.OrderDto, error)
}

type IPayoutService interface {
	RequestPayout(ctx context.Context, actor model.Actor, req dto.PayoutRequestDto) (dto.PayoutDto, error)
	ListPayouts(ctx context.Context, actor model.Actor) ([]dto.PayoutDto, error)
	Earnings(ctx context.Context, actor model.Actor) (model.Earnings, error)
	CompletePayout(ctx context.Context, actor model.Actor, payoutId string) (dto.PayoutDto, error)
}
