package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"food-dash/internal/driver-gateway/core/ports"
	"food-dash/internal/mylogger"

	websocketdto "food-dash/internal/driver-gateway/core/domain/websocket_dto"

	"github.com/gorilla/websocket"
)

// websocketUpgrader is used to upgrade incoming HTTP requests into a
// persistent websocket connection.
var websocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// ClientList maps a driver id to its live connection. One connection
// per driver; a reconnect replaces the old one.
type ClientList map[string]*Client

type Dispatcher struct {
	clients ClientList
	sync.RWMutex
	ctx context.Context
	log mylogger.Logger
	gw  ports.IGatewayService
}

// NewDispatcher takes the application context, not a request one:
// client pumps must outlive the HTTP handler that upgraded them.
func NewDispatcher(ctx context.Context, log mylogger.Logger, gw ports.IGatewayService) *Dispatcher {
	return &Dispatcher{
		clients: make(ClientList),
		ctx:     ctx,
		log:     log,
		gw:      gw,
	}
}

// WsHandler upgrades the driver connection. The path driver id must
// belong to the authenticated user.
func (d *Dispatcher) WsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := d.log.Action("wsHandler")
		driverId := r.PathValue("driver_id")

		driver, err := d.gw.DriverByUserId(r.Context(), r.Header.Get("X-UserId"))
		if err != nil || driver.ID != driverId {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		conn, err := websocketUpgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("cannot upgrade", err)
			return
		}

		client := NewClient(d.ctx, conn, d, driverId)
		d.AddClient(client)
		go client.ReadMessages()
		go client.WriteMessages()
	}
}

func (d *Dispatcher) AddClient(client *Client) {
	d.Lock()
	defer d.Unlock()

	if old, ok := d.clients[client.driverId]; ok {
		old.conn.Close()
	}
	d.clients[client.driverId] = client
}

func (d *Dispatcher) RemoveClient(client *Client) {
	d.Lock()
	defer d.Unlock()

	if d.clients[client.driverId] == client {
		delete(d.clients, client.driverId)
		client.conn.Close()
	}
}

// Broadcast fans an event out to every connected driver. Slow clients
// are skipped rather than blocking the loop.
func (d *Dispatcher) Broadcast(event websocketdto.Event) {
	d.RLock()
	defer d.RUnlock()

	for _, client := range d.clients {
		select {
		case client.egress <- event:
		default:
		}
	}
}

// BroadcastOrderOffer wraps the raw offer payload in the envelope
// drivers expect.
func (d *Dispatcher) BroadcastOrderOffer(payload []byte) {
	d.Broadcast(websocketdto.Event{
		Type:    websocketdto.EventOrderOffer,
		Payload: json.RawMessage(payload),
	})
}
