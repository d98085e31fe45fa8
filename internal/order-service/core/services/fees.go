package services

import (
	"food-dash/internal/order-service/core/domain/model"
)

// FeePolicy resolves the delivery fee for a cafe/customer address pair.
// The geo/fee collaborator is pluggable; the default is a fixed amount
// from config.
type FeePolicy func(cafe, customer model.Address) float64

func FixedDeliveryFee(amountETB float64) FeePolicy {
	return func(cafe, customer model.Address) float64 {
		return amountETB
	}
}

// computeFees builds the fee breakdown once at order creation. It is
// never recomputed afterwards.
func computeFees(items []model.OrderItem, deliveryETB, platformETB, paymentETB float64) model.FeeBreakdown {
	foodTotal := 0.0
	for _, item := range items {
		foodTotal += item.SubtotalETB
	}

	return model.FeeBreakdown{
		FoodTotalETB:   foodTotal,
		DeliveryETB:    deliveryETB,
		PlatformFeeETB: platformETB,
		PaymentFeeETB:  paymentETB,
		TotalETB:       foodTotal + deliveryETB + platformETB + paymentETB,
	}
}
