package websocketdto

import "encoding/json"

// Event types flowing over the driver socket.
const (
	EventLocationUpdate = "location_update"
	EventOrderOffer     = "order_offer"
	EventError          = "error"
)

// Event is the envelope for every websocket frame, both directions.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// LocationUpdate is sent by the driver app; last write wins, stale
// pings simply overwrite.
type LocationUpdate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
