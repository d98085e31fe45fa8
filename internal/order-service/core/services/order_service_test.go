package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-dash/internal/config"
	"food-dash/internal/mylogger"
	"food-dash/internal/order-service/core/domain/dto"
	messagebrokerdto "food-dash/internal/order-service/core/domain/message_broker_dto"
	"food-dash/internal/order-service/core/domain/model"
	"food-dash/internal/order-service/core/myerrors"
)

// fakeStore is a mutex-guarded in-memory stand-in for the orders,
// drivers and cafes tables. Its conditional mutations mirror the SQL
// guards in the db adapters, so concurrency tests exercise the same
// win/lose outcomes the real storage produces.
type fakeStore struct {
	mu      sync.Mutex
	orders  map[string]model.Order
	drivers map[string]model.Driver
	cafes   map[string]model.Cafe
	ledger  []model.LedgerEntry
	seq     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:  make(map[string]model.Order),
		drivers: make(map[string]model.Driver),
		cafes:   make(map[string]model.Cafe),
	}
}

func (s *fakeStore) nextId(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *fakeStore) addCafe(c model.Cafe) model.Cafe {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = s.nextId("cafe")
	}
	s.cafes[c.ID] = c
	return c
}

func (s *fakeStore) addDriver(d model.Driver) model.Driver {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == "" {
		d.ID = s.nextId("driver")
	}
	s.drivers[d.ID] = d
	return d
}

func stampMilestone(o *model.Order, milestone string, at time.Time) {
	switch milestone {
	case MilestoneAccepted:
		o.Timestamps.AcceptedAt = &at
	case MilestoneAssigned:
		o.Timestamps.AssignedAt = &at
	case MilestonePickedUp:
		o.Timestamps.PickedUpAt = &at
	case MilestoneDelivered:
		o.Timestamps.DeliveredAt = &at
	case MilestoneCompleted:
		o.Timestamps.CompletedAt = &at
	}
}

func statusIn(status string, from []string) bool {
	for _, s := range from {
		if status == s {
			return true
		}
	}
	return false
}

// fakeOrders implements ports.IOrdersRepo over the shared store.
type fakeOrders struct{ store *fakeStore }

func (r *fakeOrders) Create(ctx context.Context, m model.Order) (string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	m.ID = r.store.nextId("order")
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	r.store.orders[m.ID] = m
	return m.ID, nil
}

func (r *fakeOrders) FindById(ctx context.Context, orderId string) (model.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.orders[orderId]
	if !ok {
		return model.Order{}, myerrors.ErrOrderNotFound
	}
	return o, nil
}

func (r *fakeOrders) ListByCustomer(ctx context.Context, customerId string) ([]model.Order, error) {
	return r.list(func(o model.Order) bool { return o.CustomerId == customerId }), nil
}

func (r *fakeOrders) ListByCafe(ctx context.Context, cafeId string) ([]model.Order, error) {
	return r.list(func(o model.Order) bool { return o.CafeId == cafeId }), nil
}

func (r *fakeOrders) ListByDriver(ctx context.Context, driverId string) ([]model.Order, error) {
	return r.list(func(o model.Order) bool { return o.DriverId != nil && *o.DriverId == driverId }), nil
}

func (r *fakeOrders) ListAvailable(ctx context.Context) ([]model.Order, error) {
	return r.list(func(o model.Order) bool {
		return o.DriverId == nil && (o.Status == model.StatusPending || o.Status == model.StatusAccepted)
	}), nil
}

func (r *fakeOrders) list(keep func(model.Order) bool) []model.Order {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var res []model.Order
	for _, o := range r.store.orders {
		if keep(o) {
			res = append(res, o)
		}
	}
	return res
}

func (r *fakeOrders) ApplyTransition(ctx context.Context, orderId string, from []string, to string, milestone string) (model.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.orders[orderId]
	if !ok {
		return model.Order{}, myerrors.ErrOrderNotFound
	}
	if !statusIn(o.Status, from) {
		return model.Order{}, myerrors.ErrStatusChanged
	}
	o.Status = to
	if milestone != "" {
		stampMilestone(&o, milestone, time.Now())
	}
	o.UpdatedAt = time.Now()
	r.store.orders[orderId] = o
	return o, nil
}

func (r *fakeOrders) BindDriver(ctx context.Context, orderId, driverId string, from []string, requireOnline bool) (model.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.orders[orderId]
	if !ok {
		return model.Order{}, myerrors.ErrOrderNotFound
	}
	if o.DriverId != nil {
		return model.Order{}, myerrors.ErrOrderTaken
	}
	if !statusIn(o.Status, from) {
		return model.Order{}, myerrors.ErrStatusChanged
	}
	d, ok := r.store.drivers[driverId]
	if !ok {
		return model.Order{}, myerrors.ErrDriverNotFound
	}
	if d.ActiveOrderId != nil {
		return model.Order{}, myerrors.ErrDriverBusy
	}
	if requireOnline && d.Status != model.DriverOnline {
		return model.Order{}, myerrors.ErrDriverOffline
	}

	now := time.Now()
	o.DriverId = &driverId
	o.Status = model.StatusAssigned
	o.Timestamps.AssignedAt = &now
	o.UpdatedAt = now
	r.store.orders[orderId] = o

	d.ActiveOrderId = &orderId
	d.Status = model.DriverOnDelivery
	r.store.drivers[driverId] = d
	return o, nil
}

func (r *fakeOrders) Deliver(ctx context.Context, orderId, driverId string, entries []model.LedgerEntry) (model.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.orders[orderId]
	if !ok {
		return model.Order{}, myerrors.ErrOrderNotFound
	}
	if o.DriverId == nil || *o.DriverId != driverId || o.Status != model.StatusInTransit {
		return model.Order{}, myerrors.ErrStatusChanged
	}

	now := time.Now()
	o.Status = model.StatusDelivered
	o.Timestamps.DeliveredAt = &now
	o.UpdatedAt = now
	r.store.orders[orderId] = o

	r.store.ledger = append(r.store.ledger, entries...)

	d := r.store.drivers[driverId]
	d.ActiveOrderId = nil
	d.Status = model.DriverOnline
	r.store.drivers[driverId] = d
	return o, nil
}

func (r *fakeOrders) Cancel(ctx context.Context, orderId string, from []string) (model.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.orders[orderId]
	if !ok {
		return model.Order{}, myerrors.ErrOrderNotFound
	}
	if !statusIn(o.Status, from) {
		return model.Order{}, myerrors.ErrStatusChanged
	}
	o.Status = model.StatusCancelled
	o.UpdatedAt = time.Now()
	r.store.orders[orderId] = o

	if o.DriverId != nil {
		d := r.store.drivers[*o.DriverId]
		d.ActiveOrderId = nil
		d.Status = model.DriverOnline
		r.store.drivers[*o.DriverId] = d
	}
	return o, nil
}

func (r *fakeOrders) OpenDispute(ctx context.Context, orderId string, from []string, d model.Dispute) (model.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.orders[orderId]
	if !ok {
		return model.Order{}, myerrors.ErrOrderNotFound
	}
	if !statusIn(o.Status, from) {
		return model.Order{}, myerrors.ErrStatusChanged
	}
	o.Status = model.StatusDisputed
	o.Dispute = &d
	o.UpdatedAt = time.Now()
	r.store.orders[orderId] = o
	return o, nil
}

func (r *fakeOrders) AppendWebhook(ctx context.Context, txRef string, entry model.WebhookEntry, newStatus string) (model.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, o := range r.store.orders {
		if o.Pay.TxRef != txRef {
			continue
		}
		o.Pay.WebhookLog = append(o.Pay.WebhookLog, entry)
		if newStatus != "" {
			o.Pay.Status = newStatus
		}
		o.UpdatedAt = time.Now()
		r.store.orders[id] = o
		return o, nil
	}
	return model.Order{}, myerrors.ErrOrderNotFound
}

// fakeDrivers implements ports.IDriversRepo over the shared store.
type fakeDrivers struct{ store *fakeStore }

func (r *fakeDrivers) GetById(ctx context.Context, driverId string) (model.Driver, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	d, ok := r.store.drivers[driverId]
	if !ok {
		return model.Driver{}, myerrors.ErrDriverNotFound
	}
	return d, nil
}

func (r *fakeDrivers) GetByUserId(ctx context.Context, userId string) (model.Driver, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, d := range r.store.drivers {
		if d.UserId == userId {
			return d, nil
		}
	}
	return model.Driver{}, myerrors.ErrDriverNotFound
}

func (r *fakeDrivers) UpdateLocation(ctx context.Context, driverId string, lat, lng float64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	d, ok := r.store.drivers[driverId]
	if !ok {
		return myerrors.ErrDriverNotFound
	}
	d.Latitude, d.Longitude = lat, lng
	r.store.drivers[driverId] = d
	return nil
}

func (r *fakeDrivers) SetStatus(ctx context.Context, driverId, status string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	d, ok := r.store.drivers[driverId]
	if !ok {
		return myerrors.ErrDriverNotFound
	}
	if d.ActiveOrderId != nil {
		return myerrors.ErrDriverBusy
	}
	d.Status = status
	r.store.drivers[driverId] = d
	return nil
}

// fakeCafes implements ports.ICafesRepo over the shared store.
type fakeCafes struct{ store *fakeStore }

func (r *fakeCafes) GetById(ctx context.Context, cafeId string) (model.Cafe, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.cafes[cafeId]
	if !ok {
		return model.Cafe{}, myerrors.ErrCafeNotFound
	}
	return c, nil
}

func (r *fakeCafes) GetByUserId(ctx context.Context, userId string) (model.Cafe, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, c := range r.store.cafes {
		if c.UserId == userId {
			return c, nil
		}
	}
	return model.Cafe{}, myerrors.ErrCafeNotFound
}

// fakeBroker records everything published.
type fakeBroker struct {
	mu       sync.Mutex
	offers   []messagebrokerdto.OrderOffer
	notifies []messagebrokerdto.Notify
}

func (b *fakeBroker) Close() error { return nil }

func (b *fakeBroker) PublishNotify(ctx context.Context, msg messagebrokerdto.Notify) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notifies = append(b.notifies, msg)
	return nil
}

func (b *fakeBroker) PublishOrderOffer(ctx context.Context, msg messagebrokerdto.OrderOffer) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.offers = append(b.offers, msg)
	return nil
}

func (b *fakeBroker) ConsumeOrderOffers(ctx context.Context, queue, consumerName string) (<-chan amqp.Delivery, error) {
	return nil, nil
}

func (b *fakeBroker) notifiesFor(userId string) []messagebrokerdto.Notify {
	b.mu.Lock()
	defer b.mu.Unlock()
	var res []messagebrokerdto.Notify
	for _, n := range b.notifies {
		if n.UserId == userId {
			res = append(res, n)
		}
	}
	return res
}

// ======================= harness =======================

type fixture struct {
	svc    *OrderService
	store  *fakeStore
	broker *fakeBroker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log, err := mylogger.New("order-service-test", mylogger.LevelError)
	require.NoError(t, err)

	cfg := &config.Config{
		App: &config.Appconfig{
			DeliveryFee: 50,
			PlatformFee: 10,
			PaymentFee:  5,
		},
	}

	store := newFakeStore()
	orders := &fakeOrders{store: store}
	drivers := &fakeDrivers{store: store}
	cafes := &fakeCafes{store: store}
	broker := &fakeBroker{}
	dispatch := NewDispatchCoordinator(log, orders, drivers)

	svc := NewOrderService(context.Background(), log, cfg, orders, drivers, cafes, dispatch, broker, FixedDeliveryFee(cfg.App.DeliveryFee))

	return &fixture{
		svc:    svc.(*OrderService),
		store:  store,
		broker: broker,
	}
}

func (f *fixture) seedCafe() model.Cafe {
	return f.store.addCafe(model.Cafe{
		UserId:    "cafe-user-1",
		Name:      "Merkato Bites",
		Address:   "Bole Road 12",
		Latitude:  9.01,
		Longitude: 38.76,
		Status:    model.CafeOpen,
	})
}

func (f *fixture) seedDriver(userId, status string) model.Driver {
	return f.store.addDriver(model.Driver{
		UserId:       userId,
		VehicleType:  "motorbike",
		VehiclePlate: "AA-12345",
		Status:       status,
	})
}

func validCreateReq(cafeId string) dto.CreateOrderRequestDto {
	return dto.CreateOrderRequestDto{
		CafeId:  cafeId,
		Gateway: "telebirr",
		Items: []dto.OrderItemRequestDto{
			{ItemId: "item-1", Name: "Doro Wat", Qty: 2, UnitPriceETB: 180},
			{ItemId: "item-2", Name: "Injera", Qty: 4, UnitPriceETB: 15},
		},
		DeliveryAddress: "Kazanchis, Addis Ababa",
		DeliveryLat:     9.02,
		DeliveryLng:     38.78,
	}
}

func (f *fixture) placeOrder(t *testing.T) dto.OrderDto {
	t.Helper()
	cafe := f.seedCafe()
	order, err := f.svc.CreateOrder(context.Background(), model.Actor{UserId: "cust-1", Role: model.RoleCustomer}, validCreateReq(cafe.ID))
	require.NoError(t, err)
	return order
}

// ======================= tests =======================

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)
	cafe := f.seedCafe()
	actor := model.Actor{UserId: "cust-1", Role: model.RoleCustomer}

	order, err := f.svc.CreateOrder(context.Background(), actor, validCreateReq(cafe.ID))
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, order.Status)
	assert.Equal(t, "cust-1", order.CustomerId)
	assert.Equal(t, cafe.ID, order.CafeId)
	assert.Nil(t, order.DriverId)
	assert.True(t, strings.HasPrefix(order.Code, "ORD-"))
	assert.Len(t, order.Code, 10)

	// 2*180 + 4*15 = 420 food, plus 50 + 10 + 5 in fees.
	assert.Equal(t, 420.0, order.Fees.FoodTotalETB)
	assert.Equal(t, 50.0, order.Fees.DeliveryETB)
	assert.Equal(t, 485.0, order.Fees.TotalETB)
	assert.Equal(t, 360.0, order.Items[0].SubtotalETB)

	assert.Equal(t, model.PayPending, order.Pay.Status)
	assert.NotEmpty(t, order.Pay.TxRef)
	assert.False(t, order.Timestamps.PlacedAt.IsZero())

	require.Len(t, f.broker.offers, 1)
	assert.Equal(t, order.OrderId, f.broker.offers[0].OrderId)
	assert.Equal(t, 50.0, f.broker.offers[0].DeliveryETB)
}

func TestCreateOrderRejections(t *testing.T) {
	f := newFixture(t)
	cafe := f.seedCafe()
	actor := model.Actor{UserId: "cust-1", Role: model.RoleCustomer}

	t.Run("non-customer is forbidden", func(t *testing.T) {
		_, err := f.svc.CreateOrder(context.Background(), model.Actor{UserId: "drv-user", Role: model.RoleDriver}, validCreateReq(cafe.ID))
		assert.ErrorIs(t, err, myerrors.ErrForbidden)
	})

	t.Run("unknown cafe", func(t *testing.T) {
		_, err := f.svc.CreateOrder(context.Background(), actor, validCreateReq("no-such-cafe"))
		assert.ErrorIs(t, err, myerrors.ErrNotFound)
	})

	invalid := []struct {
		name   string
		mutate func(*dto.CreateOrderRequestDto)
	}{
		{"missing cafe id", func(r *dto.CreateOrderRequestDto) { r.CafeId = "" }},
		{"no items", func(r *dto.CreateOrderRequestDto) { r.Items = nil }},
		{"zero quantity", func(r *dto.CreateOrderRequestDto) { r.Items[0].Qty = 0 }},
		{"negative price", func(r *dto.CreateOrderRequestDto) { r.Items[0].UnitPriceETB = -1 }},
		{"unknown gateway", func(r *dto.CreateOrderRequestDto) { r.Gateway = "paypal" }},
		{"missing address", func(r *dto.CreateOrderRequestDto) { r.DeliveryAddress = "" }},
		{"latitude out of range", func(r *dto.CreateOrderRequestDto) { r.DeliveryLat = 91 }},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			req := validCreateReq(cafe.ID)
			tc.mutate(&req)
			_, err := f.svc.CreateOrder(context.Background(), actor, req)
			assert.ErrorIs(t, err, myerrors.ErrValidation)
		})
	}
}

func TestAccept(t *testing.T) {
	t.Run("cafe accepts a pending order", func(t *testing.T) {
		f := newFixture(t)
		order := f.placeOrder(t)

		updated, err := f.svc.Accept(context.Background(), model.Actor{UserId: "cafe-user-1", Role: model.RoleCafe}, order.OrderId)
		require.NoError(t, err)
		assert.Equal(t, model.StatusAccepted, updated.Status)
		assert.NotNil(t, updated.Timestamps.AcceptedAt)
	})

	t.Run("another cafe may not accept", func(t *testing.T) {
		f := newFixture(t)
		order := f.placeOrder(t)
		f.store.addCafe(model.Cafe{UserId: "cafe-user-2", Name: "Other", Status: model.CafeOpen})

		_, err := f.svc.Accept(context.Background(), model.Actor{UserId: "cafe-user-2", Role: model.RoleCafe}, order.OrderId)
		assert.ErrorIs(t, err, myerrors.ErrForbidden)
	})

	t.Run("double accept conflicts", func(t *testing.T) {
		f := newFixture(t)
		order := f.placeOrder(t)
		cafeActor := model.Actor{UserId: "cafe-user-1", Role: model.RoleCafe}

		_, err := f.svc.Accept(context.Background(), cafeActor, order.OrderId)
		require.NoError(t, err)
		_, err = f.svc.Accept(context.Background(), cafeActor, order.OrderId)
		assert.ErrorIs(t, err, myerrors.ErrConflict)
	})
}

func TestClaim(t *testing.T) {
	t.Run("driver claims a pending order", func(t *testing.T) {
		f := newFixture(t)
		order := f.placeOrder(t)
		driver := f.seedDriver("drv-user-1", model.DriverOnline)

		updated, err := f.svc.Claim(context.Background(), model.Actor{UserId: "drv-user-1", Role: model.RoleDriver}, order.OrderId)
		require.NoError(t, err)
		assert.Equal(t, model.StatusAssigned, updated.Status)
		require.NotNil(t, updated.DriverId)
		assert.Equal(t, driver.ID, *updated.DriverId)
		assert.NotNil(t, updated.Timestamps.AssignedAt)

		bound := f.store.drivers[driver.ID]
		require.NotNil(t, bound.ActiveOrderId)
		assert.Equal(t, order.OrderId, *bound.ActiveOrderId)
		assert.Equal(t, model.DriverOnDelivery, bound.Status)

		// Customer hears about the assignment.
		assert.NotEmpty(t, f.broker.notifiesFor("cust-1"))
	})

	t.Run("offline driver may still claim", func(t *testing.T) {
		f := newFixture(t)
		order := f.placeOrder(t)
		f.seedDriver("drv-user-1", model.DriverOffline)

		_, err := f.svc.Claim(context.Background(), model.Actor{UserId: "drv-user-1", Role: model.RoleDriver}, order.OrderId)
		assert.NoError(t, err)
	})

	t.Run("busy driver is rejected", func(t *testing.T) {
		f := newFixture(t)
		order := f.placeOrder(t)
		other := "some-other-order"
		f.store.addDriver(model.Driver{UserId: "drv-user-1", Status: model.DriverOnDelivery, ActiveOrderId: &other})

		_, err := f.svc.Claim(context.Background(), model.Actor{UserId: "drv-user-1", Role: model.RoleDriver}, order.OrderId)
		assert.ErrorIs(t, err, myerrors.ErrDriverBusy)
	})

	t.Run("claimed order cannot be claimed again", func(t *testing.T) {
		f := newFixture(t)
		order := f.placeOrder(t)
		f.seedDriver("drv-user-1", model.DriverOnline)
		f.seedDriver("drv-user-2", model.DriverOnline)

		_, err := f.svc.Claim(context.Background(), model.Actor{UserId: "drv-user-1", Role: model.RoleDriver}, order.OrderId)
		require.NoError(t, err)

		_, err = f.svc.Claim(context.Background(), model.Actor{UserId: "drv-user-2", Role: model.RoleDriver}, order.OrderId)
		assert.ErrorIs(t, err, myerrors.ErrOrderTaken)
	})
}

// Exactly one of many simultaneous claims may win; every loser gets a
// conflict, never a partial bind.
func TestClaimRace(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t)

	const racers = 16
	for i := 0; i < racers; i++ {
		f.seedDriver(fmt.Sprintf("drv-user-%d", i), model.DriverOnline)
	}

	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := model.Actor{UserId: fmt.Sprintf("drv-user-%d", i), Role: model.RoleDriver}
			_, errs[i] = f.svc.Claim(context.Background(), actor, order.OrderId)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, myerrors.ErrConflict)
		}
	}
	assert.Equal(t, 1, winners)

	// Exactly one driver holds the order.
	bound := 0
	for _, d := range f.store.drivers {
		if d.ActiveOrderId != nil {
			require.Equal(t, order.OrderId, *d.ActiveOrderId)
			bound++
		}
	}
	assert.Equal(t, 1, bound)
}

func TestAssign(t *testing.T) {
	cafeActor := model.Actor{UserId: "cafe-user-1", Role: model.RoleCafe}

	t.Run("cafe assigns an online driver", func(t *testing.T) {
		f := newFixture(t)
		order := f.placeOrder(t)
		driver := f.seedDriver("drv-user-1", model.DriverOnline)

		_, err := f.svc.Accept(context.Background(), cafeActor, order.OrderId)
		require.NoError(t, err)

		updated, err := f.svc.Assign(context.Background(), cafeActor, order.OrderId, driver.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusAssigned, updated.Status)
		require.NotNil(t, updated.DriverId)
		assert.Equal(t, driver.ID, *updated.DriverId)

		// Driver hears about the assignment.
		assert.NotEmpty(t, f.broker.notifiesFor("drv-user-1"))
	})

	t.Run("offline driver cannot be assigned", func(t *testing.T) {
		f := newFixture(t)
		order := f.placeOrder(t)
		driver := f.seedDriver("drv-user-1", model.DriverOffline)

		_, err := f.svc.Accept(context.Background(), cafeActor, order.OrderId)
		require.NoError(t, err)

		_, err = f.svc.Assign(context.Background(), cafeActor, order.OrderId, driver.ID)
		assert.ErrorIs(t, err, myerrors.ErrDriverOffline)
	})

	t.Run("assignment requires an accepted order", func(t *testing.T) {
		f := newFixture(t)
		order := f.placeOrder(t)
		driver := f.seedDriver("drv-user-1", model.DriverOnline)

		_, err := f.svc.Assign(context.Background(), cafeActor, order.OrderId, driver.ID)
		assert.ErrorIs(t, err, myerrors.ErrConflict)
	})
}

func TestDeliver(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t)
	driver := f.seedDriver("drv-user-1", model.DriverOnline)
	drvActor := model.Actor{UserId: "drv-user-1", Role: model.RoleDriver}

	_, err := f.svc.Claim(context.Background(), drvActor, order.OrderId)
	require.NoError(t, err)
	_, err = f.svc.Pickup(context.Background(), drvActor, order.OrderId)
	require.NoError(t, err)

	t.Run("only the bound driver may deliver", func(t *testing.T) {
		f.seedDriver("drv-user-2", model.DriverOnline)
		_, err := f.svc.Deliver(context.Background(), model.Actor{UserId: "drv-user-2", Role: model.RoleDriver}, order.OrderId)
		assert.ErrorIs(t, err, myerrors.ErrForbidden)
	})

	updated, err := f.svc.Deliver(context.Background(), drvActor, order.OrderId)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDelivered, updated.Status)
	assert.NotNil(t, updated.Timestamps.DeliveredAt)

	// The ledger settles the whole fee breakdown, no more, no less.
	require.Len(t, f.store.ledger, 3)
	var sum float64
	byParty := make(map[string]float64)
	for _, e := range f.store.ledger {
		assert.Equal(t, order.OrderId, e.OrderId)
		assert.Equal(t, order.Code, e.Ref)
		assert.Empty(t, e.ID, "entry ids are assigned by the store")
		sum += e.AmountETB
		byParty[e.PartyId] += e.AmountETB
	}
	assert.InDelta(t, order.Fees.TotalETB, sum, 0.001)
	assert.Equal(t, order.Fees.FoodTotalETB, byParty["cafe-user-1"])
	assert.Equal(t, order.Fees.DeliveryETB, byParty["drv-user-1"])
	assert.Equal(t, order.Fees.PlatformFeeETB+order.Fees.PaymentFeeETB, byParty["platform"])

	// Driver freed for the next order.
	released := f.store.drivers[driver.ID]
	assert.Nil(t, released.ActiveOrderId)
	assert.Equal(t, model.DriverOnline, released.Status)

	t.Run("delivering twice conflicts", func(t *testing.T) {
		_, err := f.svc.Deliver(context.Background(), drvActor, order.OrderId)
		assert.ErrorIs(t, err, myerrors.ErrConflict)
	})
}

func TestCancel(t *testing.T) {
	custActor := model.Actor{UserId: "cust-1", Role: model.RoleCustomer}

	t.Run("customer cancels a pending order", func(t *testing.T) {
		f := newFixture(t)
		order := f.placeOrder(t)

		updated, err := f.svc.Cancel(context.Background(), custActor, order.OrderId, "changed my mind")
		require.NoError(t, err)
		assert.Equal(t, model.StatusCancelled, updated.Status)

		// Cafe hears about the cancellation.
		notes := f.broker.notifiesFor("cafe-user-1")
		require.NotEmpty(t, notes)
		assert.Equal(t, "changed my mind", notes[0].Payload["reason"])
	})

	t.Run("another customer may not cancel", func(t *testing.T) {
		f := newFixture(t)
		order := f.placeOrder(t)

		_, err := f.svc.Cancel(context.Background(), model.Actor{UserId: "cust-2", Role: model.RoleCustomer}, order.OrderId, "")
		assert.ErrorIs(t, err, myerrors.ErrForbidden)
	})

	t.Run("admin may cancel any order", func(t *testing.T) {
		f := newFixture(t)
		order := f.placeOrder(t)

		_, err := f.svc.Cancel(context.Background(), model.Actor{UserId: "admin-1", Role: model.RoleAdmin}, order.OrderId, "fraud check")
		assert.NoError(t, err)
	})

	t.Run("assigned orders are past the point of no return", func(t *testing.T) {
		f := newFixture(t)
		order := f.placeOrder(t)
		f.seedDriver("drv-user-1", model.DriverOnline)

		_, err := f.svc.Claim(context.Background(), model.Actor{UserId: "drv-user-1", Role: model.RoleDriver}, order.OrderId)
		require.NoError(t, err)

		_, err = f.svc.Cancel(context.Background(), custActor, order.OrderId, "too late")
		assert.ErrorIs(t, err, myerrors.ErrConflict)
	})
}

func TestDispute(t *testing.T) {
	custActor := model.Actor{UserId: "cust-1", Role: model.RoleCustomer}

	deliver := func(t *testing.T, f *fixture, orderId string) {
		t.Helper()
		f.seedDriver("drv-user-1", model.DriverOnline)
		drvActor := model.Actor{UserId: "drv-user-1", Role: model.RoleDriver}
		_, err := f.svc.Claim(context.Background(), drvActor, orderId)
		require.NoError(t, err)
		_, err = f.svc.Pickup(context.Background(), drvActor, orderId)
		require.NoError(t, err)
		_, err = f.svc.Deliver(context.Background(), drvActor, orderId)
		require.NoError(t, err)
	}

	t.Run("customer disputes a delivered order", func(t *testing.T) {
		f := newFixture(t)
		order := f.placeOrder(t)
		deliver(t, f, order.OrderId)

		updated, err := f.svc.Dispute(context.Background(), custActor, order.OrderId, dto.DisputeRequestDto{Reason: "cold food", Notes: "arrived an hour late"})
		require.NoError(t, err)
		assert.Equal(t, model.StatusDisputed, updated.Status)
		require.NotNil(t, updated.Dispute)
		assert.True(t, updated.Dispute.Open)
		assert.Equal(t, "cold food", updated.Dispute.Reason)
	})

	t.Run("reason is required", func(t *testing.T) {
		f := newFixture(t)
		order := f.placeOrder(t)
		deliver(t, f, order.OrderId)

		_, err := f.svc.Dispute(context.Background(), custActor, order.OrderId, dto.DisputeRequestDto{})
		assert.ErrorIs(t, err, myerrors.ErrValidation)
	})

	t.Run("pending orders cannot be disputed", func(t *testing.T) {
		f := newFixture(t)
		order := f.placeOrder(t)

		_, err := f.svc.Dispute(context.Background(), custActor, order.OrderId, dto.DisputeRequestDto{Reason: "nope"})
		assert.ErrorIs(t, err, myerrors.ErrConflict)
	})
}

func TestRecordWebhook(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t)

	t.Run("tx_ref is required", func(t *testing.T) {
		_, err := f.svc.RecordWebhook(context.Background(), dto.WebhookRequestDto{Event: "charge.success"})
		assert.ErrorIs(t, err, myerrors.ErrValidation)
	})

	t.Run("unknown tx_ref", func(t *testing.T) {
		_, err := f.svc.RecordWebhook(context.Background(), dto.WebhookRequestDto{TxRef: "bogus", Event: "charge.success"})
		assert.ErrorIs(t, err, myerrors.ErrNotFound)
	})

	t.Run("callbacks append and flip pay status", func(t *testing.T) {
		updated, err := f.svc.RecordWebhook(context.Background(), dto.WebhookRequestDto{
			TxRef:   order.Pay.TxRef,
			Event:   "charge.success",
			Status:  model.PayPaid,
			Payload: `{"amount":"485.00"}`,
		})
		require.NoError(t, err)
		assert.Equal(t, model.PayPaid, updated.Pay.Status)
		require.Len(t, updated.Pay.WebhookLog, 1)
		assert.Equal(t, "charge.success", updated.Pay.WebhookLog[0].Event)

		// A duplicate callback appends without losing history.
		updated, err = f.svc.RecordWebhook(context.Background(), dto.WebhookRequestDto{TxRef: order.Pay.TxRef, Event: "charge.success"})
		require.NoError(t, err)
		assert.Len(t, updated.Pay.WebhookLog, 2)
		assert.Equal(t, model.PayPaid, updated.Pay.Status)
	})
}

func TestViewAuthorization(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t)
	f.seedDriver("drv-user-1", model.DriverOnline)

	view := func(userId, role string) error {
		_, err := f.svc.GetOrder(context.Background(), model.Actor{UserId: userId, Role: role}, order.OrderId)
		return err
	}

	assert.NoError(t, view("cust-1", model.RoleCustomer))
	assert.NoError(t, view("cafe-user-1", model.RoleCafe))
	assert.NoError(t, view("admin-1", model.RoleAdmin))
	assert.ErrorIs(t, view("cust-2", model.RoleCustomer), myerrors.ErrForbidden)
	assert.ErrorIs(t, view("drv-user-1", model.RoleDriver), myerrors.ErrForbidden)

	_, err := f.svc.Claim(context.Background(), model.Actor{UserId: "drv-user-1", Role: model.RoleDriver}, order.OrderId)
	require.NoError(t, err)
	assert.NoError(t, view("drv-user-1", model.RoleDriver))
}

// A full happy path from checkout to completion: every milestone is
// stamped exactly once and the final order carries them all.
func TestLifecycle(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t)
	f.seedDriver("drv-user-1", model.DriverOnline)

	cafeActor := model.Actor{UserId: "cafe-user-1", Role: model.RoleCafe}
	drvActor := model.Actor{UserId: "drv-user-1", Role: model.RoleDriver}
	custActor := model.Actor{UserId: "cust-1", Role: model.RoleCustomer}

	_, err := f.svc.Accept(context.Background(), cafeActor, order.OrderId)
	require.NoError(t, err)
	_, err = f.svc.Claim(context.Background(), drvActor, order.OrderId)
	require.NoError(t, err)
	_, err = f.svc.Pickup(context.Background(), drvActor, order.OrderId)
	require.NoError(t, err)
	_, err = f.svc.Deliver(context.Background(), drvActor, order.OrderId)
	require.NoError(t, err)

	final, err := f.svc.Complete(context.Background(), custActor, order.OrderId)
	require.NoError(t, err)

	assert.Equal(t, model.StatusCompleted, final.Status)
	ts := final.Timestamps
	assert.False(t, ts.PlacedAt.IsZero())
	assert.NotNil(t, ts.AcceptedAt)
	assert.NotNil(t, ts.AssignedAt)
	assert.NotNil(t, ts.PickedUpAt)
	assert.NotNil(t, ts.DeliveredAt)
	assert.NotNil(t, ts.CompletedAt)
	assert.Len(t, f.store.ledger, 3)
}
