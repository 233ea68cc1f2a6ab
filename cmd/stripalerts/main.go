package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hybridz/stripalerts/internal/alerts"
	"github.com/hybridz/stripalerts/internal/config"
	"github.com/hybridz/stripalerts/internal/control"
	"github.com/hybridz/stripalerts/internal/feed"
	"github.com/hybridz/stripalerts/internal/led"
)

func main() {
	// Credentials may live in a local .env file; missing file is fine.
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	// The LED gateway is the only collaborator whose startup failure is
	// fatal; everything downstream recovers or degrades.
	strip := led.NewGatewayStrip(cfg.LED.GatewayURL, cfg.LED.GatewayToken, cfg.LED.Count, cfg.LED.Brightness)
	if err := strip.Connect(); err != nil {
		log.Fatalf("LED gateway: %v", err)
	}
	defer strip.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	defaultColor, ok := alerts.ParseColor(cfg.Alerts.DefaultColor)
	if !ok {
		defaultColor = alerts.Palette[0]
		log.Printf("unknown default_color %q, using %s", cfg.Alerts.DefaultColor, defaultColor.Name)
	}

	classifier := &alerts.Classifier{
		StandardThreshold: cfg.Alerts.StandardThreshold,
		ColorThreshold:    cfg.Alerts.ColorThreshold,
		AlertDuration:     time.Duration(cfg.Alerts.AlertDuration) * time.Second,
		MaxAlertDuration:  time.Duration(cfg.Alerts.MaxAlertDuration) * time.Second,
		DefaultColor:      defaultColor,
		AlertAnimation:    cfg.LED.AlertAnimation,
		ColorAnimation:    cfg.LED.ColorAnimation,
	}

	dispatcher := alerts.NewDispatcher(cfg.Alerts.QueueDepth, time.Duration(cfg.Alerts.ColorWindow)*time.Second)

	poller := &feed.Poller{
		Client:       feed.NewClient(time.Duration(cfg.API.Timeout) * time.Second),
		StartURL:     feed.FeedURL(cfg.API.BaseURL, cfg.API.Username, cfg.API.Token, cfg.API.Longpoll),
		InitialRetry: time.Duration(cfg.Poll.InitialRetry) * time.Second,
		MaxRetry:     time.Duration(cfg.Poll.MaxRetry) * time.Second,
		RetryFactor:  cfg.Poll.RetryFactor,
	}

	renderer := &led.Renderer{
		Strip:       strip,
		Queue:       dispatcher,
		Ambient:     cfg.LED.Ambient,
		Grace:       2 * time.Second,
		IdleRecheck: time.Second,
	}

	events := make(chan feed.Event, 64)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := renderer.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("renderer: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := poller.Run(ctx, events); err != nil && ctx.Err() == nil {
			log.Printf("poller: %v", err)
		}
	}()

	go poller.StartCleanup(ctx, time.Hour)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-events:
				a := classifier.Classify(ev, dispatcher.WindowOpen())
				dispatcher.Dispatch(a)
			}
		}
	}()

	if cfg.Control.Addr != "" {
		srv := &control.Server{
			Addr: cfg.Control.Addr,
			Stats: func() control.Stats {
				return control.Stats{
					EventsFetched:    poller.Fetched(),
					EventsDuplicate:  poller.Duplicates(),
					EventsMalformed:  classifier.Malformed(),
					AlertsQueued:     dispatcher.Len(),
					AlertsDispatched: dispatcher.Dispatched(),
					AlertsCoalesced:  dispatcher.Coalesced(),
					AlertsRendered:   renderer.Rendered(),
					AlertsDropped:    renderer.Dropped(),
					ColorWindowOpen:  dispatcher.WindowOpen(),
					Degraded:         renderer.Degraded(),
				}
			},
		}
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.Printf("control: %v", err)
			}
		}()
	}

	log.Printf("stripalerts started for %s, polling %s", cfg.API.Username, cfg.API.BaseURL)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	log.Printf("received %s, shutting down", sig)

	cancel()
	wg.Wait()
	log.Printf("stripalerts stopped")
}
