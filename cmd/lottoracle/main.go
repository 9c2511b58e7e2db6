package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rewired-gh/lottoracle/internal/analysis"
	"github.com/rewired-gh/lottoracle/internal/config"
	"github.com/rewired-gh/lottoracle/internal/httpapi"
	"github.com/rewired-gh/lottoracle/internal/logger"
	"github.com/rewired-gh/lottoracle/internal/models"
	"github.com/rewired-gh/lottoracle/internal/scrapejob"
	"github.com/rewired-gh/lottoracle/internal/source"
	"github.com/rewired-gh/lottoracle/internal/storage"
	"github.com/rewired-gh/lottoracle/internal/telegram"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file (empty for defaults and environment only)")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)
	gin.SetMode(cfg.Server.Mode)

	var archive httpapi.Archive
	var store *storage.Storage
	if cfg.Storage.Enabled {
		store, err = storage.New(cfg.Storage.MaxRuns, cfg.Storage.DBPath)
		if err != nil {
			logger.Fatal("Failed to initialize storage: %v", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("Failed to close storage: %v", err)
			}
		}()
		archive = store
	} else {
		logger.Debug("Draw archive disabled")
	}

	sources := source.NewRegistry()
	sources.Register(models.LottoThai, source.NewSanook(source.SanookOptions{
		BaseURL:        cfg.Source.BaseURL,
		Timeout:        cfg.Source.Timeout,
		PageInterval:   cfg.Source.PageInterval,
		MaxPages:       cfg.Source.MaxPages,
		MaxRetries:     cfg.Source.MaxRetries,
		RetryDelayBase: cfg.Source.RetryDelayBase,
		UserAgent:      cfg.Source.UserAgent,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobs := scrapejob.New(ctx, sources)

	if store != nil {
		jobs.OnFinish(func(st models.JobStatus) {
			if err := store.ArchiveJob(st); err != nil {
				logger.Error("Failed to archive scrape job %s: %v", st.JobID, err)
			}
		})
	}

	if cfg.Telegram.Enabled {
		var telegramClient *telegram.Client
		if cfg.Telegram.APIEndpoint != "" {
			telegramClient, err = telegram.NewClientWithEndpoint(cfg.Telegram.APIEndpoint, cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		} else {
			telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		}
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		logger.Info("Telegram client initialized successfully")

		telegramClient.SetStatusFunc(jobs.Status)
		telegramClient.ListenForCommands(ctx)
		jobs.OnFinish(func(st models.JobStatus) {
			if err := telegramClient.SendJobResult(st); err != nil {
				logger.Warn("Failed to send scrape result to Telegram: %v", err)
			}
		})
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	api := httpapi.New(jobs, archive, analysis.Options{
		FrequencyWeight:   cfg.Analysis.FrequencyWeight,
		RecencyWeight:     cfg.Analysis.RecencyWeight,
		RecencyWindow:     cfg.Analysis.RecencyWindow,
		TrendWindow:       cfg.Analysis.TrendWindow,
		MaxAlternatives:   cfg.Analysis.MaxAlternatives,
		MinSamplesForHigh: cfg.Analysis.MinSamplesForHigh,
	})
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Listening on %s (sources: %v)", srv.Addr, sources.Types())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, cleaning up...")
	case err := <-serveErr:
		if err != nil {
			logger.Error("HTTP server failed: %v", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown: %v", err)
	}

	// Abort any running scrape and let its hooks finish before storage closes.
	cancel()
	jobs.Wait()
	logger.Info("Service stopped")
}
