package myhttp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	admindb "food-dash/internal/admin-service/adapters/driven/db"
	"food-dash/internal/admin-service/adapters/driver/myhttp/handle"
	"food-dash/internal/admin-service/core/services"
	"food-dash/internal/config"
	"food-dash/internal/mylogger"
	"food-dash/internal/order-service/adapters/driven/bm"
	"food-dash/internal/order-service/adapters/driven/db"
	"food-dash/internal/order-service/adapters/driver/myhttp/middleware"
	"food-dash/internal/order-service/core/domain/model"
	"food-dash/internal/order-service/core/ports"

	orderservices "food-dash/internal/order-service/core/services"
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
	return &Server{
		ctx:    ctx,
		appCtx: appCtx,
		cfg:    cfg,
		mylog:  mylog,
		mux:    http.NewServeMux(),
	}
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

	// Initialize RabbitMQ connection, used for payout notifications
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
		Addr:    fmt.Sprintf(":%v", s.cfg.Srv.AdminServicePort),
		Handler: s.mux,
	}
	s.mu.Unlock()

	mylog = mylog.WithGroup("details").With("port", s.cfg.Srv.AdminServicePort)

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

// Configure wires repositories, services, handlers and routes. The
// payout completion path reuses the order side's payout service so the
// settlement rules live in exactly one place.
func (s *Server) Configure() {
	// Repositories
	overviewRepo := admindb.NewOverviewRepo(s.db)
	activeOrdersRepo := admindb.NewActiveOrdersRepo(s.db)
	payoutsRepo := db.NewPayoutsRepo(s.db)
	ledgerRepo := db.NewLedgerRepo(s.db)

	// services
	overviewService := services.NewOverviewService(s.appCtx, s.mylog, overviewRepo)
	activeOrdersService := services.NewActiveOrdersService(s.appCtx, s.mylog, activeOrdersRepo)
	payoutService := orderservices.NewPayoutService(s.appCtx, s.mylog, payoutsRepo, ledgerRepo, s.mb)

	// handlers
	overviewHandler := handle.NewOverviewHandler(s.mylog, overviewService)
	activeOrdersHandler := handle.NewActiveOrdersHandler(s.mylog, activeOrdersService)
	payoutHandler := handle.NewPayoutHandler(s.mylog, payoutService)

	authMiddleware := middleware.NewAuthMiddleware(s.cfg.App.JwtSecret)
	auth := authMiddleware.Wrap

	// Register routes
	s.mux.Handle("GET /admin/overview", auth(overviewHandler.GetSystemOverview(), model.RoleAdmin))
	s.mux.Handle("GET /admin/orders/active", auth(activeOrdersHandler.GetActiveOrders(), model.RoleAdmin))
	s.mux.Handle("PUT /admin/payouts/{payout_id}/complete", auth(payoutHandler.CompletePayout(), model.RoleAdmin))
}
