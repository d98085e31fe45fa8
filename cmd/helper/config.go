package main

import (
	"os"
	"time"
)

// ANSI color codes
const (
	Reset  = "\033[0m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
	Gray   = "\033[90m"
)

const (
	LocationUpdateInterval = 3 * time.Second
	HTTPTimeout            = 10 * time.Second
)

// Service endpoints, overridable for non-local setups.
var (
	AuthBaseURL    = envOr("AUTH_URL", "http://localhost:3001")
	GatewayBaseURL = envOr("GATEWAY_URL", "http://localhost:3002")
	OrderBaseURL   = envOr("ORDER_URL", "http://localhost:3000")
	GatewayWSURL   = envOr("GATEWAY_WS_URL", "ws://localhost:3002")
)

func envOr(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

type simConfig struct {
	Email     string
	Password  string
	Register  bool
	Username  string
	Latitude  float64
	Longitude float64
	AutoClaim bool
}
