package services

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"food-dash/internal/config"
	"food-dash/internal/mylogger"
	"food-dash/internal/order-service/core/domain/dto"
	messagebrokerdto "food-dash/internal/order-service/core/domain/message_broker_dto"
	"food-dash/internal/order-service/core/domain/model"
	"food-dash/internal/order-service/core/myerrors"
	"food-dash/internal/order-service/core/ports"
)

const dbTimeout = time.Second * 15

type OrderService struct {
	ctx         context.Context
	mylog       mylogger.Logger
	cfg         *config.Config
	ordersRepo  ports.IOrdersRepo
	driversRepo ports.IDriversRepo
	cafesRepo   ports.ICafesRepo
	dispatch    *DispatchCoordinator
	broker      ports.INotifyBroker
	feePolicy   FeePolicy
}

func NewOrderService(ctx context.Context,
	mylog mylogger.Logger,
	cfg *config.Config,
	ordersRepo ports.IOrdersRepo,
	driversRepo ports.IDriversRepo,
	cafesRepo ports.ICafesRepo,
	dispatch *DispatchCoordinator,
	broker ports.INotifyBroker,
	feePolicy FeePolicy,
) ports.IOrderService {
	return &OrderService{
		ctx:         ctx,
		mylog:       mylog,
		cfg:         cfg,
		ordersRepo:  ordersRepo,
		driversRepo: driversRepo,
		cafesRepo:   cafesRepo,
		dispatch:    dispatch,
		broker:      broker,
		feePolicy:   feePolicy,
	}
}

func (os *OrderService) CreateOrder(ctx context.Context, actor model.Actor, req dto.CreateOrderRequestDto) (dto.OrderDto, error) {
	log := os.mylog.Action("CreateOrder")

	if actor.Role != model.RoleCustomer {
		return dto.OrderDto{}, myerrors.Forbidden("only customers may place orders")
	}
	if err := validateCreateOrder(req); err != nil {
		return dto.OrderDto{}, err
	}

	cafe, err := os.cafesRepo.GetById(ctx, req.CafeId)
	if err != nil {
		return dto.OrderDto{}, err
	}

	items := make([]model.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, model.OrderItem{
			ItemId:      it.ItemId,
			Name:        it.Name,
			Qty:         it.Qty,
			UnitPrice:   it.UnitPriceETB,
			SubtotalETB: it.UnitPriceETB * float64(it.Qty),
		})
	}

	cafeAddr := model.Address{Text: cafe.Address, Latitude: cafe.Latitude, Longitude: cafe.Longitude}
	customerAddr := model.Address{Text: req.DeliveryAddress, Latitude: req.DeliveryLat, Longitude: req.DeliveryLng}

	deliveryFee := os.feePolicy(cafeAddr, customerAddr)
	fees := computeFees(items, deliveryFee, os.cfg.App.PlatformFee, os.cfg.App.PaymentFee)

	m := model.Order{
		Code:       newOrderCode(),
		CustomerId: actor.UserId,
		CafeId:     cafe.ID,
		Items:      items,
		Fees:       fees,
		Pay: model.Payment{
			Gateway: req.Gateway,
			Status:  model.PayPending,
			TxRef:   uuid.NewString(),
		},
		Status: model.StatusPending,
		Addresses: model.Addresses{
			Customer: customerAddr,
			Cafe:     cafeAddr,
		},
		Timestamps: model.Milestones{PlacedAt: time.Now()},
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	orderId, err := os.ordersRepo.Create(dbCtx, m)
	if err != nil {
		log.Error("cannot create order", err)
		return dto.OrderDto{}, err
	}
	m.ID = orderId

	log.Info("order placed", "order_id", orderId, "code", m.Code, "total_etb", fees.TotalETB)

	// Fire-and-forget offer to online drivers.
	offer := messagebrokerdto.OrderOffer{
		OrderId:       orderId,
		Code:          m.Code,
		CafeId:        cafe.ID,
		CafeAddress:   cafeAddr,
		DeliveryETB:   fees.DeliveryETB,
		PlacedAt:      m.Timestamps.PlacedAt.Format(time.RFC3339),
		CorrelationID: generateCorrelationID(),
	}
	if err := os.broker.PublishOrderOffer(ctx, offer); err != nil {
		log.Warn("failed to publish order offer", "order_id", orderId, "reason", err.Error())
	}

	return dto.OrderFromModel(m), nil
}

func (os *OrderService) GetOrder(ctx context.Context, actor model.Actor, orderId string) (dto.OrderDto, error) {
	order, err := os.ordersRepo.FindById(ctx, orderId)
	if err != nil {
		return dto.OrderDto{}, err
	}

	if err := os.authorizeView(ctx, actor, order); err != nil {
		return dto.OrderDto{}, err
	}

	return dto.OrderFromModel(order), nil
}

func (os *OrderService) ListOrders(ctx context.Context, actor model.Actor) ([]dto.OrderDto, error) {
	var (
		orders []model.Order
		err    error
	)

	switch actor.Role {
	case model.RoleCustomer:
		orders, err = os.ordersRepo.ListByCustomer(ctx, actor.UserId)
	case model.RoleCafe:
		cafe, cafeErr := os.cafesRepo.GetByUserId(ctx, actor.UserId)
		if cafeErr != nil {
			return nil, cafeErr
		}
		orders, err = os.ordersRepo.ListByCafe(ctx, cafe.ID)
	case model.RoleDriver:
		driver, driverErr := os.driversRepo.GetByUserId(ctx, actor.UserId)
		if driverErr != nil {
			return nil, driverErr
		}
		orders, err = os.ordersRepo.ListByDriver(ctx, driver.ID)
	case model.RoleAdmin:
		orders, err = os.ordersRepo.ListAvailable(ctx)
	default:
		return nil, myerrors.Forbidden("unknown role %q", actor.Role)
	}
	if err != nil {
		return nil, err
	}

	res := make([]dto.OrderDto, 0, len(orders))
	for _, o := range orders {
		res = append(res, dto.OrderFromModel(o))
	}
	return res, nil
}

func (os *OrderService) AvailableOrders(ctx context.Context) ([]dto.AvailableOrderDto, error) {
	orders, err := os.ordersRepo.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]dto.AvailableOrderDto, 0, len(orders))
	for _, o := range orders {
		res = append(res, dto.AvailableOrderDto{
			OrderId:     o.ID,
			Code:        o.Code,
			CafeAddress: o.Addresses.Cafe,
			DeliveryETB: o.Fees.DeliveryETB,
			PlacedAt:    o.Timestamps.PlacedAt.Format(time.RFC3339),
		})
	}
	return res, nil
}

// ======================= transitions =======================

func (os *OrderService) Accept(ctx context.Context, actor model.Actor, orderId string) (dto.OrderDto, error) {
	return os.applyCafeTransition(ctx, actor, orderId, TriggerAccept)
}

func (os *OrderService) Assign(ctx context.Context, actor model.Actor, orderId, driverId string) (dto.OrderDto, error) {
	log := os.mylog.Action("Assign")

	rule := transitions[TriggerAssign]
	if !rule.roleAllowed(actor.Role) {
		return dto.OrderDto{}, myerrors.Forbidden("role %q may not assign", actor.Role)
	}

	order, err := os.ordersRepo.FindById(ctx, orderId)
	if err != nil {
		return dto.OrderDto{}, err
	}

	cafe, err := os.cafesRepo.GetByUserId(ctx, actor.UserId)
	if err != nil {
		return dto.OrderDto{}, err
	}
	if order.CafeId != cafe.ID {
		return dto.OrderDto{}, myerrors.Forbidden("order belongs to another cafe")
	}
	if err := os.precheck(TriggerAssign, rule, order); err != nil {
		return dto.OrderDto{}, err
	}

	driver, err := os.driversRepo.GetById(ctx, driverId)
	if err != nil {
		return dto.OrderDto{}, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	updated, err := os.dispatch.Assign(dbCtx, orderId, driver, rule.from)
	if err != nil {
		return dto.OrderDto{}, err
	}

	os.notify(ctx, driver.UserId, messagebrokerdto.NotifyOrderAssigned, map[string]any{
		"order_id": orderId,
		"code":     updated.Code,
	})
	log.Info("driver assigned by cafe", "order_id", orderId, "driver_id", driverId)

	return dto.OrderFromModel(updated), nil
}

func (os *OrderService) Claim(ctx context.Context, actor model.Actor, orderId string) (dto.OrderDto, error) {
	log := os.mylog.Action("Claim")

	rule := transitions[TriggerClaim]
	if !rule.roleAllowed(actor.Role) {
		return dto.OrderDto{}, myerrors.Forbidden("role %q may not claim", actor.Role)
	}

	driver, err := os.driversRepo.GetByUserId(ctx, actor.UserId)
	if err != nil {
		return dto.OrderDto{}, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	updated, err := os.dispatch.Claim(dbCtx, orderId, driver, rule.from)
	if err != nil {
		return dto.OrderDto{}, err
	}

	os.notify(ctx, updated.CustomerId, messagebrokerdto.NotifyOrderAssigned, map[string]any{
		"order_id": orderId,
		"code":     updated.Code,
	})
	log.Info("order claimed", "order_id", orderId, "driver_id", driver.ID)

	return dto.OrderFromModel(updated), nil
}

func (os *OrderService) Pickup(ctx context.Context, actor model.Actor, orderId string) (dto.OrderDto, error) {
	return os.applyDriverTransition(ctx, actor, orderId, TriggerPickup)
}

func (os *OrderService) Deliver(ctx context.Context, actor model.Actor, orderId string) (dto.OrderDto, error) {
	log := os.mylog.Action("Deliver")

	rule := transitions[TriggerDeliver]
	if !rule.roleAllowed(actor.Role) {
		return dto.OrderDto{}, myerrors.Forbidden("role %q may not deliver", actor.Role)
	}

	order, err := os.ordersRepo.FindById(ctx, orderId)
	if err != nil {
		return dto.OrderDto{}, err
	}

	driver, err := os.driversRepo.GetByUserId(ctx, actor.UserId)
	if err != nil {
		return dto.OrderDto{}, err
	}
	if order.DriverId == nil || *order.DriverId != driver.ID {
		return dto.OrderDto{}, myerrors.Forbidden("you are not the assigned driver for this order")
	}
	if err := os.precheck(TriggerDeliver, rule, order); err != nil {
		return dto.OrderDto{}, err
	}

	cafe, err := os.cafesRepo.GetById(ctx, order.CafeId)
	if err != nil {
		return dto.OrderDto{}, err
	}

	entries := deliveryLedger(order, cafe.UserId, driver.UserId)

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	updated, err := os.ordersRepo.Deliver(dbCtx, orderId, driver.ID, entries)
	if err != nil {
		log.Error("delivery transition failed", err, "order_id", orderId)
		return dto.OrderDto{}, err
	}

	os.notify(ctx, updated.CustomerId, messagebrokerdto.NotifyOrderDelivered, map[string]any{
		"order_id": orderId,
		"code":     updated.Code,
	})
	log.Info("order delivered", "order_id", orderId, "driver_id", driver.ID)

	return dto.OrderFromModel(updated), nil
}

func (os *OrderService) Complete(ctx context.Context, actor model.Actor, orderId string) (dto.OrderDto, error) {
	return os.applyCustomerTransition(ctx, actor, orderId, TriggerComplete)
}

func (os *OrderService) Cancel(ctx context.Context, actor model.Actor, orderId, reason string) (dto.OrderDto, error) {
	log := os.mylog.Action("Cancel")

	rule := transitions[TriggerCancel]
	if !rule.roleAllowed(actor.Role) {
		return dto.OrderDto{}, myerrors.Forbidden("role %q may not cancel", actor.Role)
	}

	order, err := os.ordersRepo.FindById(ctx, orderId)
	if err != nil {
		return dto.OrderDto{}, err
	}
	if actor.Role != model.RoleAdmin && order.CustomerId != actor.UserId {
		return dto.OrderDto{}, myerrors.Forbidden("you may only cancel your own orders")
	}
	if err := os.precheck(TriggerCancel, rule, order); err != nil {
		return dto.OrderDto{}, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	updated, err := os.ordersRepo.Cancel(dbCtx, orderId, rule.from)
	if err != nil {
		return dto.OrderDto{}, err
	}

	cafe, cafeErr := os.cafesRepo.GetById(ctx, order.CafeId)
	if cafeErr == nil {
		os.notify(ctx, cafe.UserId, messagebrokerdto.NotifyOrderCancelled, map[string]any{
			"order_id": orderId,
			"code":     updated.Code,
			"reason":   reason,
		})
	}
	log.Info("order cancelled", "order_id", orderId, "reason", reason)

	return dto.OrderFromModel(updated), nil
}

func (os *OrderService) Dispute(ctx context.Context, actor model.Actor, orderId string, req dto.DisputeRequestDto) (dto.OrderDto, error) {
	log := os.mylog.Action("Dispute")

	rule := transitions[TriggerDispute]
	if !rule.roleAllowed(actor.Role) {
		return dto.OrderDto{}, myerrors.Forbidden("role %q may not dispute", actor.Role)
	}
	if req.Reason == "" {
		return dto.OrderDto{}, myerrors.Validation("dispute reason is required")
	}

	order, err := os.ordersRepo.FindById(ctx, orderId)
	if err != nil {
		return dto.OrderDto{}, err
	}
	if order.CustomerId != actor.UserId {
		return dto.OrderDto{}, myerrors.Forbidden("you may only dispute your own orders")
	}
	if err := os.precheck(TriggerDispute, rule, order); err != nil {
		return dto.OrderDto{}, err
	}

	d := model.Dispute{
		Open:   true,
		Reason: req.Reason,
		Notes:  req.Notes,
		At:     time.Now(),
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	updated, err := os.ordersRepo.OpenDispute(dbCtx, orderId, rule.from, d)
	if err != nil {
		return dto.OrderDto{}, err
	}

	log.Info("order disputed", "order_id", orderId, "reason", req.Reason)
	return dto.OrderFromModel(updated), nil
}

func (os *OrderService) RecordWebhook(ctx context.Context, req dto.WebhookRequestDto) (dto.OrderDto, error) {
	log := os.mylog.Action("RecordWebhook")

	if req.TxRef == "" {
		return dto.OrderDto{}, myerrors.Validation("tx_ref is required")
	}

	entry := model.WebhookEntry{
		ID:         uuid.NewString(),
		ReceivedAt: time.Now(),
		Event:      req.Event,
		Payload:    req.Payload,
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	updated, err := os.ordersRepo.AppendWebhook(dbCtx, req.TxRef, entry, req.Status)
	if err != nil {
		return dto.OrderDto{}, err
	}

	log.Info("webhook recorded", "tx_ref", req.TxRef, "event", req.Event)
	return dto.OrderFromModel(updated), nil
}

// ======================= shared transition shapes =======================

// precheck gives a friendly early rejection; the conditional update in
// the repo is the authoritative guard against concurrent transitions.
func (os *OrderService) precheck(trigger Trigger, rule transitionRule, order model.Order) error {
	if !rule.fromAllowed(order.Status) {
		return fmt.Errorf("cannot %s an order with status %q: %w", trigger, order.Status, myerrors.ErrConflict)
	}
	if rule.milestone != "" && rule.milestoneSet(order) {
		return fmt.Errorf("milestone %s already set on order: %w", rule.milestone, myerrors.ErrInternal)
	}
	return nil
}

func (os *OrderService) applyCafeTransition(ctx context.Context, actor model.Actor, orderId string, trigger Trigger) (dto.OrderDto, error) {
	log := os.mylog.Action(string(trigger))

	rule := transitions[trigger]
	if !rule.roleAllowed(actor.Role) {
		return dto.OrderDto{}, myerrors.Forbidden("role %q may not %s", actor.Role, trigger)
	}

	order, err := os.ordersRepo.FindById(ctx, orderId)
	if err != nil {
		return dto.OrderDto{}, err
	}

	cafe, err := os.cafesRepo.GetByUserId(ctx, actor.UserId)
	if err != nil {
		return dto.OrderDto{}, err
	}
	if order.CafeId != cafe.ID {
		return dto.OrderDto{}, myerrors.Forbidden("order belongs to another cafe")
	}
	if err := os.precheck(trigger, rule, order); err != nil {
		return dto.OrderDto{}, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	updated, err := os.ordersRepo.ApplyTransition(dbCtx, orderId, rule.from, rule.to, rule.milestone)
	if err != nil {
		return dto.OrderDto{}, err
	}

	log.Info("transition applied", "order_id", orderId, "status", updated.Status)
	return dto.OrderFromModel(updated), nil
}

func (os *OrderService) applyDriverTransition(ctx context.Context, actor model.Actor, orderId string, trigger Trigger) (dto.OrderDto, error) {
	log := os.mylog.Action(string(trigger))

	rule := transitions[trigger]
	if !rule.roleAllowed(actor.Role) {
		return dto.OrderDto{}, myerrors.Forbidden("role %q may not %s", actor.Role, trigger)
	}

	order, err := os.ordersRepo.FindById(ctx, orderId)
	if err != nil {
		return dto.OrderDto{}, err
	}

	driver, err := os.driversRepo.GetByUserId(ctx, actor.UserId)
	if err != nil {
		return dto.OrderDto{}, err
	}
	if order.DriverId == nil || *order.DriverId != driver.ID {
		return dto.OrderDto{}, myerrors.Forbidden("you are not the assigned driver for this order")
	}
	if err := os.precheck(trigger, rule, order); err != nil {
		return dto.OrderDto{}, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	updated, err := os.ordersRepo.ApplyTransition(dbCtx, orderId, rule.from, rule.to, rule.milestone)
	if err != nil {
		return dto.OrderDto{}, err
	}

	log.Info("transition applied", "order_id", orderId, "status", updated.Status)
	return dto.OrderFromModel(updated), nil
}

func (os *OrderService) applyCustomerTransition(ctx context.Context, actor model.Actor, orderId string, trigger Trigger) (dto.OrderDto, error) {
	log := os.mylog.Action(string(trigger))

	rule := transitions[trigger]
	if !rule.roleAllowed(actor.Role) {
		return dto.OrderDto{}, myerrors.Forbidden("role %q may not %s", actor.Role, trigger)
	}

	order, err := os.ordersRepo.FindById(ctx, orderId)
	if err != nil {
		return dto.OrderDto{}, err
	}
	if actor.Role != model.RoleAdmin && order.CustomerId != actor.UserId {
		return dto.OrderDto{}, myerrors.Forbidden("order belongs to another customer")
	}
	if err := os.precheck(trigger, rule, order); err != nil {
		return dto.OrderDto{}, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	updated, err := os.ordersRepo.ApplyTransition(dbCtx, orderId, rule.from, rule.to, rule.milestone)
	if err != nil {
		return dto.OrderDto{}, err
	}

	log.Info("transition applied", "order_id", orderId, "status", updated.Status)
	return dto.OrderFromModel(updated), nil
}

func (os *OrderService) authorizeView(ctx context.Context, actor model.Actor, order model.Order) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleCustomer:
		if order.CustomerId == actor.UserId {
			return nil
		}
	case model.RoleCafe:
		cafe, err := os.cafesRepo.GetByUserId(ctx, actor.UserId)
		if err == nil && order.CafeId == cafe.ID {
			return nil
		}
	case model.RoleDriver:
		driver, err := os.driversRepo.GetByUserId(ctx, actor.UserId)
		if err == nil && order.DriverId != nil && *order.DriverId == driver.ID {
			return nil
		}
	}
	return myerrors.Forbidden("you are not authorized to view this order")
}

func (os *OrderService) notify(ctx context.Context, userId, notifyType string, payload map[string]any) {
	msg := messagebrokerdto.Notify{
		UserId:        userId,
		Type:          notifyType,
		Payload:       payload,
		Timestamp:     time.Now().Format(time.RFC3339),
		CorrelationID: generateCorrelationID(),
	}
	if err := os.broker.PublishNotify(ctx, msg); err != nil {
		os.mylog.Action("notify").Warn("failed to publish notification", "user_id", userId, "type", notifyType, "reason", err.Error())
	}
}

// deliveryLedger builds the immutable entries appended when an order is
// delivered. Their sum equals the order's total fee breakdown; entry
// ids are assigned by the store on insert.
func deliveryLedger(order model.Order, cafeUserId, driverUserId string) []model.LedgerEntry {
	now := time.Now()
	return []model.LedgerEntry{
		{
			OrderId:   order.ID,
			At:        now,
			Type:      model.LedgerCafeCredit,
			PartyId:   cafeUserId,
			AmountETB: order.Fees.FoodTotalETB,
			Ref:       order.Code,
		},
		{
			OrderId:   order.ID,
			At:        now,
			Type:      model.LedgerDriverCredit,
			PartyId:   driverUserId,
			AmountETB: order.Fees.DeliveryETB,
			Ref:       order.Code,
		},
		{
			OrderId:   order.ID,
			At:        now,
			Type:      model.LedgerPlatformCredit,
			PartyId:   "platform",
			AmountETB: order.Fees.PlatformFeeETB + order.Fees.PaymentFeeETB,
			Ref:       order.Code,
		},
	}
}

// ======================= validation =======================

var allowedGateways = map[string]bool{
	"chapa":    true,
	"telebirr": true,
	"cash":     true,
}

func validateCreateOrder(req dto.CreateOrderRequestDto) error {
	if req.CafeId == "" {
		return myerrors.Validation("cafe_id is required")
	}
	if len(req.Items) == 0 {
		return myerrors.Validation("order must contain at least one item")
	}
	for _, it := range req.Items {
		if it.ItemId == "" || it.Name == "" {
			return myerrors.Validation("item id and name are required")
		}
		if it.Qty < 1 {
			return myerrors.Validation("item %q quantity must be at least 1", it.Name)
		}
		if it.UnitPriceETB < 0 {
			return myerrors.Validation("item %q price must not be negative", it.Name)
		}
	}
	if !allowedGateways[strings.ToLower(req.Gateway)] {
		return myerrors.Validation("unknown payment gateway %q", req.Gateway)
	}
	if req.DeliveryAddress == "" {
		return myerrors.Validation("delivery address is required")
	}
	if math.Abs(req.DeliveryLat) > 90 || math.Abs(req.DeliveryLng) > 180 {
		return myerrors.Validation("invalid delivery coordinates")
	}
	return nil
}

// ======================= helpers =======================

const codeCharSet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newOrderCode returns the human-readable short code customers quote to
// support.
func newOrderCode() string {
	b := make([]byte, 6)
	for i := range b {
		b[i] = codeCharSet[rand.Intn(len(codeCharSet))]
	}
	return "ORD-" + string(b)
}

func generateCorrelationID() string {
	return "req_" + uuid.NewString()[:8]
}
