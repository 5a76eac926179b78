package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reflectionsmatch/config"
	"reflectionsmatch/controllers"
	"reflectionsmatch/db"
	"reflectionsmatch/insights"
	"reflectionsmatch/live"
	"reflectionsmatch/logger"
	"reflectionsmatch/router"
	"reflectionsmatch/tools"
	"reflectionsmatch/workers"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "reflectionsmatch",
	Short: "Reflections enrichment and radar backend",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the background pipeline",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	RunE:  runMigrate,
}

var radarCmd = &cobra.Command{
	Use:   "radar",
	Short: "Run the weekly radar once for every active user",
	RunE:  runRadarOnce,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json", "path to the JSON configuration file")
	rootCmd.AddCommand(serveCmd, migrateCmd, radarCmd)
}

// app is everything the commands share.
type app struct {
	cfg       config.Configuration
	log       *logger.Logger
	db        *gorm.DB
	hub       *live.Hub
	services  *controllers.Services
	scheduler *workers.RadarScheduler
	watcher   *workers.PersonaWatcher
	closers   []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	a.log.Sync()
}

func bootstrap(ctx context.Context) (*app, error) {
	cfg := config.Get(configPath)
	log, err := logger.New(cfg.Env, cfg.LogPath)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, hub: live.NewHub()}

	db.SetConfigurations(cfg)
	conn, err := db.Connect(log)
	if err != nil {
		return nil, err
	}
	a.db = conn
	a.closers = append(a.closers, conn.Close)

	if cfg.Redis.URL != "" {
		bridge, err := live.NewRedisBridge(log, a.hub, cfg.Redis.URL, cfg.Redis.Channel)
		if err != nil {
			log.Warn("redis bridge disabled", "error", err)
		} else if err := bridge.Start(ctx); err != nil {
			log.Warn("redis bridge disabled", "error", err)
			_ = bridge.Close()
		} else {
			a.closers = append(a.closers, bridge.Close)
		}
	}

	gen, err := tools.NewGenerator(tools.GeneratorConfig{
		Provider:        cfg.AI.Provider,
		OpenAIKey:       cfg.AI.OpenAIKey,
		OpenAIModel:     cfg.AI.OpenAIModel,
		AnthropicKey:    cfg.AI.AnthropicKey,
		AnthropicModel:  cfg.AI.AnthropicModel,
		MaxOutputTokens: cfg.AI.MaxOutputTokens,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("generator: %w", err)
	}

	var bucket tools.Bucket
	if cfg.Storage.Bucket != "" {
		b, err := tools.NewGCSBucket(ctx, log, cfg.Storage.Bucket, cfg.Storage.PublicBaseURL)
		if err != nil {
			log.Warn("object storage disabled", "error", err)
		} else {
			bucket = b
			a.closers = append(a.closers, b.Close)
		}
	}

	var mailer tools.Mailer
	if cfg.Email.ResendKey != "" {
		m, err := tools.NewResendMailer(log, cfg.Email.ResendKey, cfg.Email.BaseURL, cfg.Email.From)
		if err != nil {
			log.Warn("email disabled", "error", err)
		} else {
			mailer = m
		}
	}

	var videos tools.VideoSearcher
	if cfg.YouTube.APIKey != "" {
		y, err := tools.NewYouTubeSearcher(ctx, cfg.YouTube.APIKey)
		if err != nil {
			log.Warn("video search disabled", "error", err)
		} else {
			videos = y
		}
	}

	store := db.NewStore(conn, a.hub)
	radar := insights.NewRadar(log, gen, store, videos, mailer)
	persona := insights.NewPersonaSynthesizer(log, gen, store)
	a.watcher = workers.NewPersonaWatcher(log, persona, store, a.hub, cfg.PersonaDebounce())
	a.scheduler = workers.NewRadarScheduler(log, radar, store, cfg.Radar.Parallelism)
	a.services = &controllers.Services{
		Log:       log,
		Config:    cfg,
		Store:     store,
		Hub:       a.hub,
		Recorder:  insights.NewRecorder(log, store),
		Enricher:  insights.NewEnricher(log, tools.NewImageFetcher(), gen, store),
		Persona:   persona,
		Radar:     radar,
		Coach:     insights.NewCoach(log, gen),
		Companion: insights.NewCompanion(log, gen, store),
		Bucket:    bucket,
		Mailer:    mailer,
		Scheduler: a.scheduler,
		Synthesis: a.watcher,
	}
	return a, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	s := a.services

	trigger := workers.NewEnrichmentTrigger(a.log, s.Enricher, s.Store, a.hub, a.cfg.SweepInterval(), a.cfg.Pipeline.SweepLimit)
	if a.cfg.Pipeline.DisableSweep {
		trigger.WithoutSweep()
	}
	go trigger.Run(ctx)
	go a.watcher.Run(ctx)

	if err := a.scheduler.Start(ctx, a.cfg.Radar.Schedule); err != nil {
		a.log.Error("radar scheduler not started", "error", err)
	}
	defer func() { _ = a.scheduler.Stop() }()

	if a.cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	router.Initialize(r, a.cfg, s)

	srv := &http.Server{
		Addr:              ":" + a.cfg.ApiPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("listening", "port", a.cfg.ApiPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("http shutdown", "error", err)
	}
	trigger.Wait()
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	a, err := bootstrapDB()
	if err != nil {
		return err
	}
	defer a.close()
	if err := db.Migrate(a.db); err != nil {
		return err
	}
	a.log.Info("migration done")
	return nil
}

// bootstrapDB opens only the database; migrate needs no other collaborators.
func bootstrapDB() (*app, error) {
	cfg := config.Get(configPath)
	log, err := logger.New(cfg.Env, cfg.LogPath)
	if err != nil {
		return nil, err
	}
	db.SetConfigurations(cfg)
	conn, err := db.Connect(log)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log, db: conn, closers: []func() error{conn.Close}}, nil
}

func runRadarOnce(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	sum, err := a.scheduler.RunAll(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "briefed=%d no_data=%d failed=%d\n", sum.Briefed, sum.NoData, sum.Failed)
	return nil
}
