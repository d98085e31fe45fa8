package myhttp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"food-dash/internal/config"
	"food-dash/internal/driver-gateway/adapters/driver/myhttp/handle"
	"food-dash/internal/driver-gateway/adapters/driver/myhttp/ws"
	"food-dash/internal/driver-gateway/core/services"
	"food-dash/internal/mylogger"
	"food-dash/internal/order-service/adapters/driven/bm"
	"food-dash/internal/order-service/adapters/driven/db"
	"food-dash/internal/order-service/adapters/driver/myhttp/middleware"
	"food-dash/internal/order-service/core/domain/model"
	"food-dash/internal/order-service/core/ports"
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
	if err := s.Configure(); err != nil {
		return err
	}

	s.mu.Lock()
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%v", s.cfg.Srv.DriverGatewayPort),
		Handler: s.mux,
	}
	s.mu.Unlock()

	mylog = mylog.WithGroup("details").With("port", s.cfg.Srv.DriverGatewayPort)

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

// Configure wires the repositories, the gateway service, the websocket
// dispatcher and the offer consumer.
func (s *Server) Configure() error {
	driversRepo := db.NewDriversRepo(s.db)

	gatewayService := services.NewGatewayService(s.appCtx, s.mylog, driversRepo)

	driverHandler := handle.NewDriverHandler(gatewayService, s.mylog)
	dispatcher := ws.NewDispatcher(s.appCtx, s.mylog, gatewayService)

	authMiddleware := middleware.NewAuthMiddleware(s.cfg.App.JwtSecret)
	auth := authMiddleware.Wrap

	// Fan order offers out to every connected driver.
	deliveries, err := s.mb.ConsumeOrderOffers(s.appCtx, ports.QueueOrderOffers, "driver-gateway")
	if err != nil {
		return fmt.Errorf("failed to consume order offers: %w", err)
	}
	go func() {
		log := s.mylog.Action("order_offer_consumer")
		for {
			select {
			case <-s.appCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					log.Warn("offer channel closed")
					return
				}
				dispatcher.BroadcastOrderOffer(d.Body)
				if err := d.Ack(false); err != nil {
					log.Error("failed to ack offer", err)
				}
			}
		}
	}()

	// Register routes
	s.mux.Handle("PUT /drivers/status", auth(driverHandler.SetStatus(), model.RoleDriver))
	s.mux.Handle("GET /drivers/me", auth(driverHandler.Me(), model.RoleDriver))

	// websocket routes
	s.mux.Handle("/ws/drivers/{driver_id}", auth(dispatcher.WsHandler(), model.RoleDriver))

	return nil
}
