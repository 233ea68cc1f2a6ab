package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/hybridz/stripalerts/internal/config"
	"github.com/hybridz/stripalerts/internal/led"
)

// One-shot strip reset for when the daemon died without cleaning up.
func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	strip := led.NewGatewayStrip(cfg.LED.GatewayURL, cfg.LED.GatewayToken, cfg.LED.Count, cfg.LED.Brightness)
	if err := strip.Connect(); err != nil {
		log.Fatalf("LED gateway: %v", err)
	}
	defer strip.Close()

	if err := strip.Clear(); err != nil {
		log.Fatalf("clear strip: %v", err)
	}
	log.Printf("strip cleared")
}
