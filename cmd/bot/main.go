package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	"Floodsim_discord_bot/internal/backend"
	"Floodsim_discord_bot/internal/config"
	"Floodsim_discord_bot/internal/handler"
	"Floodsim_discord_bot/internal/metrics"
	"Floodsim_discord_bot/internal/models"
	"Floodsim_discord_bot/internal/simulation"
	"Floodsim_discord_bot/internal/utils"
	"Floodsim_discord_bot/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.DiscordToken == "" {
		log.Fatal("DISCORD_TOKEN is required")
	}

	client, err := backend.New(cfg.BackendURL,
		backend.WithRateLimiter(utils.NewRateLimiter(cfg.BackendRPS)),
		backend.WithTimeouts(cfg.FetchTimeout, cfg.SimulateTimeout, cfg.CompareTimeout),
		backend.WithUserAgent(cfg.UserAgent),
		backend.WithBeforeCache(cfg.BeforeCacheTTL),
	)
	if err != nil {
		log.Fatalf("Failed to create backend client: %v", err)
	}

	settings, err := config.NewSettingsManager(cfg.SettingsPath)
	if err != nil {
		log.Fatalf("Failed to load guild settings: %v", err)
	}

	backendHost := cfg.BackendURL
	if u, err := url.Parse(cfg.BackendURL); err == nil {
		backendHost = u.Host
	}
	botInfo := models.NewBotInfo(version.Version, backendHost)

	h := handler.NewHandler(cfg.Prefix, handler.Deps{
		Simulator: simulation.NewSimulator(client),
		Validator: simulation.NewValidator(client),
		Sessions:  simulation.NewSessions(simulation.WithSessionTTL(cfg.SessionTTL)),
		Settings:  settings,
		BotInfo:   botInfo,
	})

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsServer = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Printf("Serving metrics on %s/metrics", cfg.MetricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Metrics server stopped: %v", err)
			}
		}()
	}

	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		log.Fatal(err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	dg.AddHandler(h.OnReady)
	dg.AddHandler(h.OnMessage)
	dg.AddHandler(h.OnInteractionCreate)

	if err := dg.Open(); err != nil {
		log.Fatal(err)
	}
	log.Printf("Floodsim bot %s started (backend: %s)", version.Version, cfg.BackendURL)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("Shutting down...")

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(ctx); err != nil {
			log.Printf("Metrics server shutdown: %v", err)
		}
		cancel()
	}
	if err := dg.Close(); err != nil {
		log.Printf("Error closing Discord session: %v", err)
	}
}
