package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"commuto/internal/general/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logger.New("marketplace-service")

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		log.Info(ctx, "shutdown_signal", "Shutdown signal received", nil)
		cancel()
	}()

	if err := run(ctx, log); err != nil {
		log.Error(ctx, "service_failed", "Marketplace service terminated with error", err, nil)
		os.Exit(1)
	}

	log.Info(ctx, "shutdown_complete", "Service stopped successfully", nil)
}
