package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	websocketdto "food-dash/internal/driver-gateway/core/domain/websocket_dto"
	messagebrokerdto "food-dash/internal/order-service/core/domain/message_broker_dto"
)

type DriverSim struct {
	ctx    context.Context
	cfg    simConfig
	http   *HTTPClient
	ws     *WebSocketClient
	logger *Logger

	driverId string
	lat, lng float64
}

func NewDriverSim(ctx context.Context, cfg simConfig, logger *Logger) *DriverSim {
	return &DriverSim{
		ctx:    ctx,
		cfg:    cfg,
		http:   NewHTTPClient(logger),
		ws:     NewWebSocketClient(ctx, logger),
		logger: logger,
		lat:    cfg.Latitude,
		lng:    cfg.Longitude,
	}
}

func (d *DriverSim) Run() error {
	if err := d.authenticate(); err != nil {
		return err
	}

	me, err := d.http.Me()
	if err != nil {
		return fmt.Errorf("resolving driver profile: %w", err)
	}
	d.driverId = me.DriverId

	if _, err := d.http.SetStatus("online"); err != nil {
		return fmt.Errorf("going online: %w", err)
	}
	d.logger.Info("driver %s online at (%.4f, %.4f)", d.driverId, d.lat, d.lng)

	wsURL := fmt.Sprintf("%s/ws/drivers/%s", GatewayWSURL, d.driverId)
	if err := d.ws.Connect(wsURL, d.http.token); err != nil {
		return err
	}
	defer d.ws.Close()

	go func() {
		if err := d.ws.ReadMessages(d.handleEvent); err != nil {
			d.logger.Error("websocket read loop: %v", err)
		}
	}()

	return d.pingLoop()
}

func (d *DriverSim) authenticate() error {
	var auth authResponse
	var err error
	if d.cfg.Register {
		auth, err = d.http.Register(d.cfg)
	} else {
		auth, err = d.http.Login(d.cfg.Email, d.cfg.Password)
	}
	if err != nil {
		return fmt.Errorf("authenticating: %w", err)
	}
	d.http.token = auth.AccessToken
	d.logger.Info("authenticated as %s (%s)", auth.UserId, auth.Role)
	return nil
}

// pingLoop drifts the driver a little each tick and reports the new
// position, like a phone in a moving vehicle would.
func (d *DriverSim) pingLoop() error {
	ticker := time.NewTicker(LocationUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			if _, err := d.http.SetStatus("offline"); err != nil {
				d.logger.Warn("going offline: %v", err)
			}
			return nil
		case <-ticker.C:
			d.lat += (rand.Float64() - 0.5) / 1000
			d.lng += (rand.Float64() - 0.5) / 1000

			payload, err := json.Marshal(websocketdto.LocationUpdate{Latitude: d.lat, Longitude: d.lng})
			if err != nil {
				return err
			}
			event := websocketdto.Event{Type: websocketdto.EventLocationUpdate, Payload: payload}
			if err := d.ws.SendJSON(event); err != nil {
				return fmt.Errorf("sending location update: %w", err)
			}
		}
	}
}

func (d *DriverSim) handleEvent(raw []byte) error {
	var event websocketdto.Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return fmt.Errorf("unmarshaling event: %w", err)
	}

	switch event.Type {
	case websocketdto.EventOrderOffer:
		var offer messagebrokerdto.OrderOffer
		if err := json.Unmarshal(event.Payload, &offer); err != nil {
			return fmt.Errorf("unmarshaling offer: %w", err)
		}
		d.logger.WebSocket("offer %s from %s, delivery %.2f ETB", offer.Code, offer.CafeAddress.Text, offer.DeliveryETB)

		if !d.cfg.AutoClaim {
			return nil
		}
		order, err := d.http.ClaimOrder(offer.OrderId)
		if err != nil {
			d.logger.Warn("claim lost for %s: %v", offer.Code, err)
			return nil
		}
		d.logger.Info("claimed order %s (%s)", order.Code, order.Status)

	case websocketdto.EventError:
		var p websocketdto.ErrorPayload
		_ = json.Unmarshal(event.Payload, &p)
		d.logger.Warn("server error frame: %s", p.Message)

	default:
		d.logger.WebSocket("frame %s: %s", event.Type, raw)
	}
	return nil
}
