package ports

import (
	"context"

	messagebrokerdto "food-dash/internal/order-service/core/domain/message_broker_dto"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	QueueOrderOffers = "order_offers"
	QueueNotify      = "notifications"
)

type INotifyBroker interface {
	Close() error

	// PublishNotify is fire-and-forget; callers log failures and move on.
	PublishNotify(ctx context.Context, msg messagebrokerdto.Notify) error
	PublishOrderOffer(ctx context.Context, msg messagebrokerdto.OrderOffer) error

	ConsumeOrderOffers(ctx context.Context, queue, consumerName string) (<-chan amqp.Delivery, error)
}
