package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if a.Cfg.AutoMigrate {
		if err := a.Migrate(); err != nil {
			a.Log.Error("migration failed", "error", err)
			return
		}
	}
	if err := a.Start(); err != nil {
		a.Log.Error("start failed", "error", err)
		return
	}

	if err := a.Run(ctx); err != nil {
		a.Log.Error("server failed", "error", err)
	}
}
