package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"food-dash/internal/mylogger"
	"food-dash/internal/order-service/core/domain/dto"
	messagebrokerdto "food-dash/internal/order-service/core/domain/message_broker_dto"
	"food-dash/internal/order-service/core/domain/model"
	"food-dash/internal/order-service/core/myerrors"
	"food-dash/internal/order-service/core/ports"
)

var allowedPayoutMethods = map[string]bool{
	"chapa":         true,
	"telebirr":      true,
	"bank_transfer": true,
}

type PayoutService struct {
	ctx         context.Context
	mylog       mylogger.Logger
	payoutsRepo ports.IPayoutsRepo
	ledgerRepo  ports.ILedgerRepo
	broker      ports.INotifyBroker
}

func NewPayoutService(ctx context.Context,
	mylog mylogger.Logger,
	payoutsRepo ports.IPayoutsRepo,
	ledgerRepo ports.ILedgerRepo,
	broker ports.INotifyBroker,
) ports.IPayoutService {
	return &PayoutService{
		ctx:         ctx,
		mylog:       mylog,
		payoutsRepo: payoutsRepo,
		ledgerRepo:  ledgerRepo,
		broker:      broker,
	}
}

func (ps *PayoutService) RequestPayout(ctx context.Context, actor model.Actor, req dto.PayoutRequestDto) (dto.PayoutDto, error) {
	log := ps.mylog.Action("RequestPayout")

	if actor.Role != model.RoleCafe && actor.Role != model.RoleDriver {
		return dto.PayoutDto{}, myerrors.Forbidden("only cafes and drivers may request payouts")
	}
	if req.AmountETB <= 0 {
		return dto.PayoutDto{}, myerrors.Validation("payout amount must be positive")
	}
	if !allowedPayoutMethods[strings.ToLower(req.PaymentMethod)] {
		return dto.PayoutDto{}, myerrors.Validation("unknown payment method %q", req.PaymentMethod)
	}

	m := model.Payout{
		UserId:        actor.UserId,
		AmountETB:     req.AmountETB,
		Status:        model.PayoutPending,
		PaymentMethod: strings.ToLower(req.PaymentMethod),
		TransactionId: uuid.NewString(),
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	// The store checks available balance inside the insert; a check
	// here first would race with concurrent requests.
	id, err := ps.payoutsRepo.Create(dbCtx, m)
	if err != nil {
		if !errors.Is(err, myerrors.ErrInsufficientBalance) {
			log.Error("cannot create payout", err)
		}
		return dto.PayoutDto{}, err
	}
	m.ID = id

	log.Info("payout requested", "payout_id", id, "user_id", actor.UserId, "amount_etb", req.AmountETB)
	return dto.PayoutFromModel(m), nil
}

func (ps *PayoutService) ListPayouts(ctx context.Context, actor model.Actor) ([]dto.PayoutDto, error) {
	payouts, err := ps.payoutsRepo.ListByUser(ctx, actor.UserId)
	if err != nil {
		return nil, err
	}

	res := make([]dto.PayoutDto, 0, len(payouts))
	for _, p := range payouts {
		res = append(res, dto.PayoutFromModel(p))
	}
	return res, nil
}

func (ps *PayoutService) Earnings(ctx context.Context, actor model.Actor) (model.Earnings, error) {
	if actor.Role != model.RoleCafe && actor.Role != model.RoleDriver {
		return model.Earnings{}, myerrors.Forbidden("only cafes and drivers have earnings")
	}
	return ps.earnings(ctx, actor.UserId)
}

func (ps *PayoutService) CompletePayout(ctx context.Context, actor model.Actor, payoutId string) (dto.PayoutDto, error) {
	log := ps.mylog.Action("CompletePayout")

	if actor.Role != model.RoleAdmin {
		return dto.PayoutDto{}, myerrors.Forbidden("only admins may complete payouts")
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	payout, err := ps.payoutsRepo.Complete(dbCtx, payoutId)
	if err != nil {
		return dto.PayoutDto{}, err
	}

	msg := messagebrokerdto.Notify{
		UserId: payout.UserId,
		Type:   messagebrokerdto.NotifyPayoutCompleted,
		Payload: map[string]any{
			"payout_id":  payout.ID,
			"amount_etb": payout.AmountETB,
		},
		Timestamp:     time.Now().Format(time.RFC3339),
		CorrelationID: generateCorrelationID(),
	}
	if err := ps.broker.PublishNotify(ctx, msg); err != nil {
		log.Warn("failed to publish payout notification", "payout_id", payoutId, "reason", err.Error())
	}

	log.Info("payout completed", "payout_id", payoutId, "amount_etb", payout.AmountETB)
	return dto.PayoutFromModel(payout), nil
}

// earnings derives balances from the ledger: available is lifetime
// credits minus everything already paid or locked in pending payouts.
func (ps *PayoutService) earnings(ctx context.Context, userId string) (model.Earnings, error) {
	credits, err := ps.ledgerRepo.CreditsTotal(ctx, userId)
	if err != nil {
		return model.Earnings{}, err
	}

	paid, pending, err := ps.payoutsRepo.Totals(ctx, userId)
	if err != nil {
		return model.Earnings{}, err
	}

	return model.Earnings{
		AvailableETB: credits - paid - pending,
		PendingETB:   pending,
		LifetimeETB:  credits,
	}, nil
}
