package myhttp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"food-dash/internal/config"
	"food-dash/internal/mylogger"
	"food-dash/internal/order-service/adapters/driven/bm"
	"food-dash/internal/order-service/adapters/driven/db"
	"food-dash/internal/order-service/adapters/driver/myhttp/handle"
	"food-dash/internal/order-service/adapters/driver/myhttp/middleware"
	"food-dash/internal/order-service/core/domain/model"
	"food-dash/internal/order-service/core/ports"
	"food-dash/internal/order-service/core/services"
)

var ErrServerClosed = errors.New("Server closed")

const WaitTime = 10

type Server struct {
	mux    *http.ServeMux
	cfg    *config.Config
	srv    *http.Server
	mylog  mylogger.Logger
	db     *db.DB
	mb     ports.INotifyBroker
	ctx    context.Context
	appCtx context.Context
	mu     sync.Mutex
	wg     sync.WaitGroup
}

func NewServer(ctx, appCtx context.Context, mylog mylogger.Logger, cfg *config.Config) *Server {
	s := &Server{
		ctx:    ctx,
		appCtx: appCtx,
		cfg:    cfg,
		mylog:  mylog,
		mux:    http.NewServeMux(),
	}

	return s
}

// Run initializes routes and starts listening. It returns when the server stops.
func (s *Server) Run() error {
	mylog := s.mylog.Action("server_started")

	// Initialize database connection
	db, err := db.New(s.ctx, s.cfg.DB, mylog)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	s.db = db
	mylog.Info("Successful database connection")

	// Initialize RabbitMQ connection
	mb, err := bm.New(s.appCtx, *s.cfg.RabbitMq, s.mylog)
	if err != nil {
		return fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	s.mb = mb
	mylog.Info("Successful message broker connection")

	// Configure routes and handlers
	s.Configure()

	s.mu.Lock()
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%v", s.cfg.Srv.OrderServicePort),
		Handler: s.mux,
	}
	s.mu.Unlock()

	mylog = mylog.WithGroup("details").With("port", s.cfg.Srv.OrderServicePort)

	mylog.Info("server is running")
	return s.startHTTPServer()
}

// Stop provides a programmatic shutdown. Accepts a context for timeout control.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mylog.Info("Shutting down HTTP server...")

	s.wg.Wait()

	if s.srv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, WaitTime*time.Second)
		defer cancel()

		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.mylog.Error("Failed to shut down HTTP server gracefully", err)
			return fmt.Errorf("http server shutdown: %w", err)
		}
	}

	if s.mb != nil {
		if err := s.mb.Close(); err != nil {
			s.mylog.Error("Failed to close message broker", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.mylog.Error("Failed to close database", err)
			return fmt.Errorf("db close: %w", err)
		}
		s.mylog.Info("Database closed")
	}

	s.mylog.Info("HTTP server shut down gracefully")
	return nil
}

func (s *Server) startHTTPServer() error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		} else {
			errCh <- nil
		}
	}()

	select {
	case <-s.ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Configure wires repositories, services, handlers and routes.
func (s *Server) Configure() {
	// Repositories
	ordersRepo := db.NewOrdersRepo(s.db)
	driversRepo := db.NewDriversRepo(s.db)
	cafesRepo := db.NewCafesRepo(s.db)
	ledgerRepo := db.NewLedgerRepo(s.db)
	payoutsRepo := db.NewPayoutsRepo(s.db)
	idempotencyRepo := db.NewIdempotencyRepo(s.db)

	// services
	dispatch := services.NewDispatchCoordinator(s.mylog, ordersRepo, driversRepo)
	feePolicy := services.FixedDeliveryFee(s.cfg.App.DeliveryFee)
	orderService := services.NewOrderService(s.appCtx, s.mylog, s.cfg, ordersRepo, driversRepo, cafesRepo, dispatch, s.mb, feePolicy)
	payoutService := services.NewPayoutService(s.appCtx, s.mylog, payoutsRepo, ledgerRepo, s.mb)

	// handlers
	orderHandler := handle.NewOrderHandler(orderService, s.mylog)
	payoutHandler := handle.NewPayoutHandler(payoutService, s.mylog)

	authMiddleware := middleware.NewAuthMiddleware(s.cfg.App.JwtSecret)
	idem := middleware.NewIdempotencyMiddleware(idempotencyRepo, time.Duration(s.cfg.App.IdempotencyTTL)*time.Second, s.mylog)

	s.routes(orderHandler, payoutHandler, authMiddleware, idem)
}

// routes registers the route table. Creation uses POST, lifecycle
// transitions use PUT, and every mutating call goes through the
// idempotency guard.
func (s *Server) routes(
	orderHandler *handle.OrderHandler,
	payoutHandler *handle.PayoutHandler,
	authMiddleware *middleware.AuthMiddleware,
	idem *middleware.IdempotencyMiddleware,
) {
	auth := authMiddleware.Wrap

	s.mux.Handle("POST /orders", auth(idem.Wrap(orderHandler.CreateOrder()), model.RoleCustomer))
	s.mux.Handle("GET /orders", auth(orderHandler.ListOrders()))
	s.mux.Handle("GET /orders/available", auth(orderHandler.AvailableOrders(), model.RoleDriver))
	s.mux.Handle("GET /orders/{order_id}", auth(orderHandler.GetOrder()))

	s.mux.Handle("PUT /orders/{order_id}/accept", auth(idem.Wrap(orderHandler.Accept()), model.RoleCafe))
	s.mux.Handle("PUT /orders/{order_id}/assign", auth(idem.Wrap(orderHandler.Assign()), model.RoleCafe))
	s.mux.Handle("POST /orders/{order_id}/claim", auth(idem.Wrap(orderHandler.Claim()), model.RoleDriver))
	s.mux.Handle("PUT /orders/{order_id}/pickup", auth(idem.Wrap(orderHandler.Pickup()), model.RoleDriver))
	s.mux.Handle("PUT /orders/{order_id}/deliver", auth(idem.Wrap(orderHandler.Deliver()), model.RoleDriver))
	s.mux.Handle("PUT /orders/{order_id}/complete", auth(idem.Wrap(orderHandler.Complete()), model.RoleCustomer, model.RoleAdmin))
	s.mux.Handle("PUT /orders/{order_id}/cancel", auth(idem.Wrap(orderHandler.Cancel()), model.RoleCustomer, model.RoleAdmin))
	s.mux.Handle("PUT /orders/{order_id}/dispute", auth(idem.Wrap(orderHandler.Dispute()), model.RoleCustomer))

	// Gateway callbacks carry no user token and no idempotency key;
	// tx_ref is the only lookup key and replays are absorbed by it.
	s.mux.Handle("POST /payments/webhook", orderHandler.Webhook())

	s.mux.Handle("POST /payouts", auth(idem.Wrap(payoutHandler.RequestPayout()), model.RoleCafe, model.RoleDriver))
	s.mux.Handle("GET /payouts", auth(payoutHandler.ListPayouts(), model.RoleCafe, model.RoleDriver))
	s.mux.Handle("GET /earnings", auth(payoutHandler.Earnings(), model.RoleCafe, model.RoleDriver))
}
