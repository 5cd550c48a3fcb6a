package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"narrated-video-pipeline/01_script"
	"narrated-video-pipeline/02_audio"
	"narrated-video-pipeline/03_assets"
	"narrated-video-pipeline/04_compose"
	"narrated-video-pipeline/05_retention"
	"narrated-video-pipeline/config"
	"narrated-video-pipeline/pipeline"
	"narrated-video-pipeline/server"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// .env is for local dev; deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
	}
	setupLogging(cfg.Log)

	for _, dir := range cfg.Dirs() {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("failed to create directory")
		}
	}

	catalog := assets.NewCatalog(cfg.Assets.Images, cfg.Assets.Videos)
	if missing := catalog.Validate(func(p string) (string, error) {
		return assets.ResolveUnder(cfg.Paths.Static, cfg.Server.StaticPrefix, p)
	}); missing > 0 {
		log.Warn().Str("stage", "assets").Int("missing", missing).Msg("some catalog assets are not on disk")
	}
	if _, err := os.Stat(cfg.Captions.FontFile); err != nil {
		log.Warn().Str("stage", "compose").Str("font", cfg.Captions.FontFile).Msg("caption font not found, ffmpeg will fail to draw captions")
	}

	voice, err := audio.New(cfg.Audio)
	if err != nil {
		log.Fatal().Err(err).Msg("no usable TTS engine")
	}

	selector := pipeline.NewSelector(
		script.New(cfg.Script),
		voice,
		audio.NewStore(cfg.Paths.Audio, cfg.PublicPrefix(cfg.Paths.Audio)),
		assets.NewPicker(catalog, cfg.Assets.SampleCount, nil),
	)
	composer := compose.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Retention.Enabled {
		sweeper := retention.New(cfg.Retention, retention.DefaultTargets(cfg.Paths)...)
		sweeper.Start(ctx)
		defer sweeper.Stop()
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.New(cfg, selector, composer).Router,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	// let in-flight encodes finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Render.EncodeTimeout+10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func setupLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
