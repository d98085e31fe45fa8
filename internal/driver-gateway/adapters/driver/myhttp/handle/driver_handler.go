package handle

import (
	"encoding/json"
	"net/http"

	"food-dash/internal/driver-gateway/core/ports"
	"food-dash/internal/mylogger"
)

type DriverHandler struct {
	gw  ports.IGatewayService
	log mylogger.Logger
}

func NewDriverHandler(gw ports.IGatewayService, log mylogger.Logger) *DriverHandler {
	return &DriverHandler{
		gw:  gw,
		log: log,
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

type driverResponse struct {
	DriverId      string  `json:"driver_id"`
	Status        string  `json:"status"`
	ActiveOrderId *string `json:"active_order_id,omitempty"`
}

// SetStatus flips the driver online/offline. Refused while a delivery
// is in flight.
func (dh *DriverHandler) SetStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := statusRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		driver, err := dh.gw.SetAvailability(r.Context(), r.Header.Get("X-UserId"), req.Status)
		if err != nil {
			JsonError(w, statusFor(err), err)
			return
		}

		jsonResponse(w, http.StatusOK, driverResponse{
			DriverId:      driver.ID,
			Status:        driver.Status,
			ActiveOrderId: driver.ActiveOrderId,
		})
	}
}

// Me returns the caller's driver profile.
func (dh *DriverHandler) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		driver, err := dh.gw.DriverByUserId(r.Context(), r.Header.Get("X-UserId"))
		if err != nil {
			JsonError(w, statusFor(err), err)
			return
		}

		jsonResponse(w, http.StatusOK, driverResponse{
			DriverId:      driver.ID,
			Status:        driver.Status,
			ActiveOrderId: driver.ActiveOrderId,
		})
	}
}
