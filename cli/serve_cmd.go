package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/codeguardian-hq/codeguardian/server"
)

// runServe starts the scan API server and blocks until interrupted.
func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", ":8000", "listen address")
	rps := fs.Float64("rate", 10, "sustained requests per second (0 disables limiting)")
	burst := fs.Int("burst", 20, "request burst size")
	debug := fs.Bool("debug", false, "enable debug logging")
	envFile := fs.String("env-file", "", "load environment variables from file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			fmt.Fprintf(os.Stderr, "error: loading %s: %v\n", *envFile, err)
			return 2
		}
	} else {
		// Best effort; a missing .env is not an error.
		_ = godotenv.Load()
	}

	log, err := newLogger(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: initializing logger: %v\n", err)
		return 2
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	manager := server.NewManager(log)
	auth := server.NewAuthService()
	srv := server.New(server.Config{
		Addr:              *addr,
		RequestsPerSecond: *rps,
		Burst:             *burst,
	}, manager, auth, log)

	log.Infow("starting server", "addr", *addr)
	if err := srv.Run(ctx); err != nil {
		log.Errorw("server stopped", "error", err)
		return 2
	}
	return 0
}

func newLogger(debug bool) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg.Encoding = "console"
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
