package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"jellyflow/internal/cli"
	"jellyflow/internal/logging"
)

func main() {
	logging.InitFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		logging.L().Error("jellyflow", "err", err)
		stop()
		os.Exit(1)
	}
}
