package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
)

type HTTPClient struct {
	client *http.Client
	token  string
	logger *Logger
}

func NewHTTPClient(logger *Logger) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{Timeout: HTTPTimeout},
		logger: logger,
	}
}

func (h *HTTPClient) doJSON(method, url string, body interface{}, out interface{}, headers map[string]string) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	h.logger.HTTP("%s %s -> %d", method, url, resp.StatusCode)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: status %d: %s", method, url, resp.StatusCode, data)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("unmarshaling response: %w", err)
		}
	}
	return nil
}

// Request/response models, mirroring the service APIs.

type registerRequest struct {
	Username string        `json:"username"`
	Email    string        `json:"email"`
	Password string        `json:"password"`
	Role     string        `json:"role"`
	Driver   driverProfile `json:"driver"`
}

type driverProfile struct {
	VehicleType   string `json:"vehicle_type"`
	VehiclePlate  string `json:"vehicle_plate"`
	LicenseNumber string `json:"license_number"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	UserId      string `json:"user_id"`
	Role        string `json:"role"`
	AccessToken string `json:"jwt_access"`
}

type driverResponse struct {
	DriverId      string  `json:"driver_id"`
	Status        string  `json:"status"`
	ActiveOrderId *string `json:"active_order_id,omitempty"`
}

type orderResponse struct {
	OrderId string `json:"order_id"`
	Code    string `json:"code"`
	Status  string `json:"status"`
}

// orderEnvelope matches the order service's success envelope.
type orderEnvelope struct {
	Order orderResponse `json:"order"`
}

func (h *HTTPClient) Register(cfg simConfig) (authResponse, error) {
	req := registerRequest{
		Username: cfg.Username,
		Email:    cfg.Email,
		Password: cfg.Password,
		Role:     "driver",
		Driver: driverProfile{
			VehicleType:   "motorbike",
			VehiclePlate:  "SIM-" + uuid.NewString()[:8],
			LicenseNumber: "SIM-LICENSE",
		},
	}
	var res authResponse
	err := h.doJSON(http.MethodPost, AuthBaseURL+"/auth/register", req, &res, nil)
	return res, err
}

func (h *HTTPClient) Login(email, password string) (authResponse, error) {
	var res authResponse
	err := h.doJSON(http.MethodPost, AuthBaseURL+"/auth/login", loginRequest{Email: email, Password: password}, &res, nil)
	return res, err
}

func (h *HTTPClient) Me() (driverResponse, error) {
	var res driverResponse
	err := h.doJSON(http.MethodGet, GatewayBaseURL+"/drivers/me", nil, &res, nil)
	return res, err
}

func (h *HTTPClient) SetStatus(status string) (driverResponse, error) {
	var res driverResponse
	err := h.doJSON(http.MethodPut, GatewayBaseURL+"/drivers/status", map[string]string{"status": status}, &res, nil)
	return res, err
}

// ClaimOrder races other drivers for the offer; a conflict just means
// someone else won.
func (h *HTTPClient) ClaimOrder(orderId string) (orderResponse, error) {
	var res orderEnvelope
	url := fmt.Sprintf("%s/orders/%s/claim", OrderBaseURL, orderId)
	err := h.doJSON(http.MethodPost, url, nil, &res, map[string]string{
		"Idempotency-Key": uuid.NewString(),
	})
	return res.Order, err
}
