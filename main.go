package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"airsched/api"
	"airsched/config"
	"airsched/handlers"
	"airsched/internal/database"
	"airsched/services/changes"
	"airsched/services/enrichment"
	"airsched/services/extractor"
	"airsched/services/fetcher"
	"airsched/services/forecast"
	"airsched/services/tracker"
	"airsched/utils"
)

func main() {
	configPath := flag.String("config", "data/settings.json", "path to the settings file")
	flag.Parse()

	manager := config.NewManager(*configPath)
	settings, err := manager.Load()
	if err != nil {
		log.Fatalf("[main] load settings: %v", err)
	}

	if settings.LogFile != "" {
		log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   settings.LogFile,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		}))
	}

	db, err := database.NewDB(database.Config{DatabasePath: settings.DatabasePath})
	if err != nil {
		log.Fatalf("[main] open database: %v", err)
	}
	defer db.Close()

	parse := extractor.New(settings.TrendingTitles)
	fetch := fetcher.New(fetcher.Options{
		SourceURL:      settings.SourceURL,
		Transports:     settings.TransportPrefixes,
		MaxRetries:     uint(settings.MaxRetries),
		BaseDelay:      time.Duration(settings.BaseDelayMs) * time.Millisecond,
		AttemptTimeout: time.Duration(settings.FetchTimeoutSecs) * time.Second,
		MinBodyBytes:   settings.MinBodyBytes,
	}, parse, nil)

	var enricher tracker.Enricher
	if settings.EnrichmentEnabled {
		enricher = enrichment.NewClient(settings.EnrichmentBaseURL, nil)
	}

	planner := forecast.New(db.Repository, forecast.Lists{
		LongRunning: settings.LongRunningTitles,
		TwoCour:     settings.TwoCourTitles,
	})

	trackerSvc := tracker.New(fetch, db.Repository, enricher, changes.New(), planner)
	trackerSvc.StartBackgroundRefresh(time.Duration(settings.RefreshIntervalHours) * time.Hour)
	defer trackerSvc.Stop()

	router := utils.NewRouter()
	refreshLimiter := api.NewIPRateLimiter(rate.Every(12*time.Second), 5)
	handler := handlers.NewScheduleHandler(trackerSvc, planner, db.Repository)
	handler.Register(router, refreshLimiter.Middleware)

	server := &http.Server{
		Addr:    settings.ListenAddr,
		Handler: router,
	}

	go func() {
		log.Printf("[main] listening on %s", settings.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("[main] shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("[main] shutdown error: %v", err)
	}
}
