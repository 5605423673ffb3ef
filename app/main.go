package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okatenko/channelpulse/app/api"
	"github.com/okatenko/channelpulse/app/cfg"
	"github.com/okatenko/channelpulse/app/database"
	"github.com/okatenko/channelpulse/app/fetch"
	"github.com/okatenko/channelpulse/app/refresh"
	"github.com/okatenko/channelpulse/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting ChannelPulse server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	schemaVersion, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", schemaVersion, "dirty", dirty)

	channelRepo := database.NewChannelRepository(db)
	videoRepo := database.NewVideoRepository(db)
	snapshotRepo := database.NewSnapshotRepository(db)

	client := fetch.NewClient(appCfg.UserAgent, 30*time.Second)
	orchestrator := fetch.NewOrchestrator(client, appCfg.InstagramCookieFile, appCfg.MaxVideosPerChannel)
	refresher := refresh.NewRefresher(channelRepo, videoRepo, orchestrator,
		time.Duration(appCfg.RefreshIntervalHours)*time.Hour)
	jobManager := refresh.NewJobManager(refresher)

	registerSeedChannels(channelRepo, appCfg.ChannelsFile)

	var scheduler tasks.SchedulerInterface
	if appCfg.SchedulerInterval > 0 {
		scheduler = tasks.NewScheduler(channelRepo, jobManager)
		scheduler.Start()
		defer scheduler.Stop()
		slog.Info("Background scheduler started", "interval_seconds", appCfg.SchedulerInterval)
	} else {
		slog.Info("Background scheduler disabled")
	}

	apiHandler := api.NewHandler(channelRepo, videoRepo, snapshotRepo, refresher, jobManager)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

// registerSeedChannels adds channels from the optional seed file. Existing
// URLs are left alone; new ones are created unrefreshed and picked up by the
// next scheduler tick.
func registerSeedChannels(channelRepo database.ChannelRepository, channelsFile string) {
	seeds, err := cfg.LoadSeeds(channelsFile)
	if err != nil {
		slog.Warn("Failed to load channel seed file", "path", channelsFile, "error", err)
		return
	}
	if len(seeds) == 0 {
		return
	}

	registered := 0
	for _, rawURL := range seeds {
		channelURL := fetch.NormalizeChannelURL(rawURL)
		if channelURL == "" {
			slog.Warn("Skipping invalid seed channel URL", "url", rawURL)
			continue
		}
		if existing, err := channelRepo.GetChannelByURL(channelURL); err == nil && existing != nil {
			continue
		}
		if _, err := channelRepo.CreateChannel(channelURL, channelURL); err != nil {
			slog.Warn("Failed to register seed channel", "url", channelURL, "error", err)
			continue
		}
		registered++
	}
	slog.Info("Seed channels registered", "new", registered, "total", len(seeds))
}
