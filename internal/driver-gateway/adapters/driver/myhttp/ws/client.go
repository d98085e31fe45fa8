package ws

import (
	"context"
	"encoding/json"
	"time"

	websocketdto "food-dash/internal/driver-gateway/core/domain/websocket_dto"

	"github.com/gorilla/websocket"
)

const (
	pongWait     = time.Second * 60
	pingInterval = (pongWait * 9) / 10
	egressBuffer = 16
)

type Client struct {
	ctx      context.Context
	conn     *websocket.Conn
	dis      *Dispatcher
	egress   chan websocketdto.Event
	driverId string
}

func NewClient(ctx context.Context, conn *websocket.Conn, dis *Dispatcher, driverId string) *Client {
	return &Client{
		ctx:      ctx,
		conn:     conn,
		dis:      dis,
		egress:   make(chan websocketdto.Event, egressBuffer),
		driverId: driverId,
	}
}

// ReadMessages pumps inbound frames. Location updates go straight to
// the repository; anything else yields an error frame back.
func (c *Client) ReadMessages() {
	defer c.dis.RemoveClient(c)

	log := c.dis.log.Action("wsRead").With("driver_id", c.driverId)

	c.conn.SetReadLimit(1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error("unexpected close", err)
			}
			break
		}

		var event websocketdto.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			c.sendError("malformed frame")
			continue
		}

		switch event.Type {
		case websocketdto.EventLocationUpdate:
			var loc websocketdto.LocationUpdate
			if err := json.Unmarshal(event.Payload, &loc); err != nil {
				c.sendError("malformed location payload")
				continue
			}
			if err := c.dis.gw.UpdateLocation(c.ctx, c.driverId, loc.Latitude, loc.Longitude); err != nil {
				log.Error("failed to store location", err)
				c.sendError("location update rejected")
			}
		default:
			c.sendError("unknown event type")
		}
	}
}

// WriteMessages pumps outbound frames and keepalive pings.
func (c *Client) WriteMessages() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.dis.RemoveClient(c)
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		case event, ok := <-c.egress:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) sendError(msg string) {
	payload, _ := json.Marshal(websocketdto.ErrorPayload{Message: msg})
	select {
	case c.egress <- websocketdto.Event{Type: websocketdto.EventError, Payload: payload}:
	default:
	}
}
