package dto

// SystemOverview is the admin dashboard snapshot.
type SystemOverview struct {
	Timestamp  string         `json:"timestamp"`
	Metrics    MetricsParams  `json:"metrics"`
	DriverPool DriverPool     `json:"driver_pool"`
	TopCafes   []CafeActivity `json:"top_cafes"`
}

type MetricsParams struct {
	ActiveOrders       int     `json:"active_orders"`
	OrdersToday        int     `json:"orders_today"`
	RevenueTodayETB    float64 `json:"revenue_today_etb"`
	AvgDeliveryMinutes float64 `json:"avg_delivery_minutes"`
	CancellationRate   float64 `json:"cancellation_rate"`
	PendingPayoutsETB  float64 `json:"pending_payouts_etb"`
}

type DriverPool struct {
	Online     int `json:"online"`
	OnDelivery int `json:"on_delivery"`
	Offline    int `json:"offline"`
}

type CafeActivity struct {
	CafeId      string  `json:"cafe_id"`
	Name        string  `json:"name"`
	OrdersToday int     `json:"orders_today"`
	RevenueETB  float64 `json:"revenue_etb"`
}

// ActiveOrder is a row in the live orders view.
type ActiveOrder struct {
	OrderId  string  `json:"order_id"`
	Code     string  `json:"code"`
	Status   string  `json:"status"`
	CafeId   string  `json:"cafe_id"`
	DriverId *string `json:"driver_id,omitempty"`
	TotalETB float64 `json:"total_etb"`
	PlacedAt string  `json:"placed_at"`
}

type ActiveOrdersPage struct {
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Orders   []ActiveOrder `json:"orders"`
}
