package dto

import "food-dash/internal/order-service/core/domain/model"

type PayoutRequestDto struct {
	AmountETB     float64 `json:"amount_etb"`
	PaymentMethod string  `json:"payment_method"`
}

type PayoutDto struct {
	PayoutId      string  `json:"payout_id"`
	UserId        string  `json:"user_id"`
	AmountETB     float64 `json:"amount_etb"`
	Status        string  `json:"status"`
	PaymentMethod string  `json:"payment_method"`
	TransactionId string  `json:"transaction_id"`
}

func PayoutFromModel(m model.Payout) PayoutDto {
	return PayoutDto{
		PayoutId:      m.ID,
		UserId:        m.UserId,
		AmountETB:     m.AmountETB,
		Status:        m.Status,
		PaymentMethod: m.PaymentMethod,
		TransactionId: m.TransactionId,
	}
}
