package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/automoto/netfps/server/core"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	port := flag.Uint("port", 0, "Server port (overrides config)")
	tickRate := flag.Int("tickrate", 0, "Simulation ticks per second (overrides config; must match the client's 64)")
	level := flag.String("level", "", "Level name (empty = first level)")
	assetsDir := flag.String("assets", "", "Directory containing levels/ (empty = embedded levels)")
	maxPlayers := flag.Int("maxplayers", 0, "Maximum connected players (overrides config)")
	flag.Parse()

	cfg := core.DefaultConfig()
	if *configPath != "" {
		loaded, err := core.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *tickRate != 0 {
		cfg.TickRate = *tickRate
	}
	if *level != "" {
		cfg.Level = *level
	}
	if *assetsDir != "" {
		cfg.AssetsDir = *assetsDir
	}
	if *maxPlayers != 0 {
		cfg.MaxPlayers = *maxPlayers
	}
	server, err := core.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Shutting down server...")
		server.Stop()
		cancel()
		os.Exit(0)
	}()

	log.Printf("Starting server on port %d (tick rate: %d/s, level: %q, max players: %d)",
		cfg.Port, cfg.TickRate, cfg.Level, cfg.MaxPlayers)
	if err := server.Start(ctx, cfg.Port); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
