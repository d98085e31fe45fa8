package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"food-dash/internal/mylogger"
	"food-dash/internal/order-service/core/domain/model"

	websocketdto "food-dash/internal/driver-gateway/core/domain/websocket_dto"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu   sync.Mutex
	locs []websocketdto.LocationUpdate
}

func (f *fakeGateway) UpdateLocation(ctx context.Context, driverId string, lat, lng float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locs = append(f.locs, websocketdto.LocationUpdate{Latitude: lat, Longitude: lng})
	return nil
}

func (f *fakeGateway) SetAvailability(ctx context.Context, userId, status string) (model.Driver, error) {
	return model.Driver{}, nil
}

func (f *fakeGateway) DriverByUserId(ctx context.Context, userId string) (model.Driver, error) {
	if userId != "usr-1" {
		return model.Driver{}, errors.New("unknown user")
	}
	return model.Driver{ID: "drv-1", UserId: "usr-1"}, nil
}

func newTestDispatcher(t *testing.T, gw *fakeGateway) *Dispatcher {
	t.Helper()
	log, err := mylogger.New("gateway-test", mylogger.LevelError)
	require.NoError(t, err)
	return NewDispatcher(context.Background(), log, gw)
}

func dialDriver(t *testing.T, srv *httptest.Server, driverId, userId string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/drivers/" + driverId
	header := http.Header{"X-UserId": []string{userId}}
	return websocket.DefaultDialer.Dial(url, header)
}

// A driver socket has to keep pumping after the upgrade handler
// returns; its lifetime is the dispatcher's context, never the
// request's.
func TestSocketOutlivesUpgradeRequest(t *testing.T) {
	gw := &fakeGateway{}
	d := newTestDispatcher(t, gw)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/drivers/{driver_id}", d.WsHandler())
	srv := httptest.NewServer(mux)
	defer srv.Close()

	conn, resp, err := dialDriver(t, srv, "drv-1", "usr-1")
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	require.Eventually(t, func() bool {
		d.RLock()
		defer d.RUnlock()
		return len(d.clients) == 1
	}, time.Second, 10*time.Millisecond)

	// By now the HTTP handler that upgraded us has long returned.
	offer, _ := json.Marshal(map[string]string{"order_id": "ord-1"})
	d.BroadcastOrderOffer(offer)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event websocketdto.Event
	require.NoError(t, conn.ReadJSON(&event))
	require.Equal(t, websocketdto.EventOrderOffer, event.Type)
	require.JSONEq(t, string(offer), string(event.Payload))

	// Inbound frames keep flowing as well.
	loc, _ := json.Marshal(websocketdto.LocationUpdate{Latitude: 9.01, Longitude: 38.74})
	require.NoError(t, conn.WriteJSON(websocketdto.Event{Type: websocketdto.EventLocationUpdate, Payload: loc}))
	require.Eventually(t, func() bool {
		gw.mu.Lock()
		defer gw.mu.Unlock()
		return len(gw.locs) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestWsHandlerRejectsForeignDriverId(t *testing.T) {
	gw := &fakeGateway{}
	d := newTestDispatcher(t, gw)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/drivers/{driver_id}", d.WsHandler())
	srv := httptest.NewServer(mux)
	defer srv.Close()

	conn, resp, err := dialDriver(t, srv, "drv-2", "usr-1")
	require.Error(t, err)
	require.Nil(t, conn)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}
