package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
)

// Driver simulator: logs a driver in, goes online, streams location
// pings over the websocket and claims offered orders. Useful for
// exercising the dispatch path locally without a real driver app.
func main() {
	email := flag.String("email", "", "driver account email")
	password := flag.String("password", "", "driver account password")
	register := flag.Bool("register", false, "register a new driver account first")
	username := flag.String("username", "sim-driver", "username when registering")
	lat := flag.Float64("lat", 9.0108, "initial latitude")
	lng := flag.Float64("lng", 38.7613, "initial longitude")
	autoClaim := flag.Bool("auto-claim", true, "claim every offered order")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("email and password are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := &Logger{}
	cfg := simConfig{
		Email:     *email,
		Password:  *password,
		Register:  *register,
		Username:  *username,
		Latitude:  *lat,
		Longitude: *lng,
		AutoClaim: *autoClaim,
	}

	sim := NewDriverSim(ctx, cfg, logger)
	if err := sim.Run(); err != nil {
		logger.Error("simulator stopped: %v", err)
	}
}
