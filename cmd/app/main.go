package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"stockmood/pkg/config"
	"stockmood/pkg/server"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	batch := flag.Bool("batch", false, "analyze the files given as arguments and exit")
	out := flag.String("out", "", "directory for batch CSV/XLSX output")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	app, err := server.New(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *batch {
		if err := app.RunBatch(ctx, flag.Args(), *out); err != nil {
			log.Fatalf("batch failed: %v", err)
		}
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
