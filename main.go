package main

import (
	"flag"
	"log"

	"subdel/internal/config"
	"subdel/internal/server"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Println("=== subdel — delegated subdomain manager ===")
	log.Printf("Version: %s", version)
	log.Printf("Parent zone: %s.", cfg.DNS.BaseDomain)
	log.Printf("Internal nameservers: %v", cfg.DNS.InternalNS)

	if err := server.Start(cfg, version); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
