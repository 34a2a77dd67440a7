// Command migrate applies schema migrations for the configured storage
// driver: migrate [up|down|status].
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hongminglow/finance-dashboard-be/internal/config"
	"github.com/hongminglow/finance-dashboard-be/internal/logging"
	"github.com/hongminglow/finance-dashboard-be/internal/storage/backend"
)

func main() {
	timeout := flag.Duration("timeout", 2*time.Minute, "overall migration timeout")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] up|down|status\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}
	switch command {
	case "up", "down", "status":
	default:
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	st, err := config.LoadStorage()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(os.Getenv("LOG_LEVEL"), "console")
	if err != nil {
		logger, _ = logging.New("info", "console")
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	b, err := backend.Open(ctx, st)
	if err != nil {
		logger.Fatal("open storage", zap.Error(err))
	}
	defer b.Close(ctx)

	if err := b.Migrate(ctx, command); err != nil {
		logger.Error("migrate", zap.String("driver", st.Driver), zap.String("command", command), zap.Error(err))
		_ = b.Close(ctx)
		os.Exit(1)
	}
	logger.Info("migrate finished", zap.String("driver", st.Driver), zap.String("command", command))
}
