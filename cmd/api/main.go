package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sandeepkv93/product-catalog-service/internal/di"
)

func main() {
	a, err := di.InitializeApp()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := a.Run(ctx)
	if runErr != nil {
		a.Logger.Error("server stopped", "error", runErr)
	}
	stop()

	if err := a.Shutdown(context.Background()); err != nil {
		a.Logger.Error("shutdown finished with errors", "error", err)
	}
	if runErr != nil {
		os.Exit(1)
	}
}
