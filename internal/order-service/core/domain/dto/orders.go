package dto

import (
	"food-dash/internal/order-service/core/domain/model"
)

// API transfer data

type CreateOrderRequestDto struct {
	CafeId  string                `json:"cafe_id"`
	Items   []OrderItemRequestDto `json:"items"`
	Gateway string                `json:"gateway"`

	DeliveryAddress string  `json:"delivery_address"`
	DeliveryLat     float64 `json:"delivery_latitude"`
	DeliveryLng     float64 `json:"delivery_longitude"`
}

type OrderItemRequestDto struct {
	ItemId       string  `json:"item_id"`
	Name         string  `json:"name"`
	Qty          int     `json:"qty"`
	UnitPriceETB float64 `json:"unit_price_etb"`
}

type AssignRequestDto struct {
	DriverId string `json:"driver_id"`
}

type CancelRequestDto struct {
	Reason string `json:"reason"`
}

type DisputeRequestDto struct {
	Reason string `json:"reason"`
	Notes  string `json:"notes"`
}

type OrderDto struct {
	OrderId    string             `json:"order_id"`
	Code       string             `json:"code"`
	CustomerId string             `json:"customer_id"`
	CafeId     string             `json:"cafe_id"`
	DriverId   *string            `json:"driver_id"`
	Items      []model.OrderItem  `json:"items"`
	Fees       model.FeeBreakdown `json:"fees"`
	Pay        model.Payment      `json:"pay"`
	Status     string             `json:"status"`
	Addresses  model.Addresses    `json:"addresses"`
	Timestamps model.Milestones   `json:"timestamps"`
	Dispute    *model.Dispute     `json:"dispute,omitempty"`
}

func OrderFromModel(m model.Order) OrderDto {
	return OrderDto{
		OrderId:    m.ID,
		Code:       m.Code,
		CustomerId: m.CustomerId,
		CafeId:     m.CafeId,
		DriverId:   m.DriverId,
		Items:      m.Items,
		Fees:       m.Fees,
		Pay:        m.Pay,
		Status:     m.Status,
		Addresses:  m.Addresses,
		Timestamps: m.Timestamps,
		Dispute:    m.Dispute,
	}
}

// AvailableOrderDto is the trimmed view drivers see when browsing
// unclaimed orders.
type AvailableOrderDto struct {
	OrderId     string        `json:"order_id"`
	Code        string        `json:"code"`
	CafeAddress model.Address `json:"cafe_address"`
	DeliveryETB float64       `json:"delivery_etb"`
	PlacedAt    string        `json:"placed_at"`
}

type WebhookRequestDto struct {
	TxRef   string `json:"tx_ref"`
	Event   string `json:"event"`
	Status  string `json:"status"`
	Payload string `json:"payload"`
}
