package main

import (
	"context"
	"fmt"
	"os"

	adminservice "food-dash/internal/admin-service"
	authservice "food-dash/internal/auth-service"
	"food-dash/internal/config"
	drivergateway "food-dash/internal/driver-gateway"
	"food-dash/internal/mylogger"
	orderservice "food-dash/internal/order-service"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: app <order-service|auth-service|driver-gateway|admin-service>")
		os.Exit(1)
	}

	service := os.Args[1]

	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	mylog, err := mylogger.New(service, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	switch service {
	case "order-service":
		err = orderservice.Execute(ctx, mylog, cfg)
	case "auth-service":
		err = authservice.Execute(ctx, mylog, cfg)
	case "driver-gateway":
		err = drivergateway.Execute(ctx, mylog, cfg)
	case "admin-service":
		err = adminservice.Execute(ctx, mylog, cfg)
	default:
		fmt.Fprintf(os.Stderr, "unknown service: %s\n", service)
		os.Exit(1)
	}

	if err != nil {
		mylog.Error("service exited with error", err)
		os.Exit(1)
	}
}
