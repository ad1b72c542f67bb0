package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"voice-relay-service/internal/app"
	"voice-relay-service/internal/asr"
	asrgoogle "voice-relay-service/internal/asr/google"
	asrmock "voice-relay-service/internal/asr/mock"
	"voice-relay-service/internal/asr/whisper"
	"voice-relay-service/internal/config"
	"voice-relay-service/internal/events"
	httpapi "voice-relay-service/internal/http"
	"voice-relay-service/internal/ingest"
	"voice-relay-service/internal/observability"
	"voice-relay-service/internal/observability/metrics"
	"voice-relay-service/internal/pipeline"
	"voice-relay-service/internal/relay"
	"voice-relay-service/internal/transcode"
	"voice-relay-service/internal/tts"
	"voice-relay-service/internal/tts/elevenlabs"
	"voice-relay-service/internal/ws"
)

func main() {
	// Local development convenience; absent .env files are fine.
	_ = godotenv.Load()

	cfg := config.Load()
	application := app.New(cfg)
	log := application.Logger

	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("application start failed")
	}
	defer application.Shutdown()

	// Kafka publisher for final transcript events; log-only when disabled.
	publisher := events.New(&events.Config{
		Enabled:   cfg.Kafka.Enabled,
		Brokers:   cfg.Kafka.Brokers,
		Topic:     cfg.Kafka.TopicFinal,
		Principal: cfg.Kafka.Principal,
	})
	defer publisher.Close()

	registry := relay.NewRegistry(log, metrics.DefaultMetrics)
	sessions := ingest.NewManager(cfg.Pipeline.TempDir, log, metrics.DefaultMetrics)
	defer sessions.Close()

	transcriber, err := newTranscriber(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.ASR.Provider).Msg("transcriber init failed")
	}

	voices := tts.VoiceMap{
		American:  cfg.TTS.VoiceAmerican,
		Australia: cfg.TTS.VoiceAustralia,
		British:   cfg.TTS.VoiceBritish,
		Chinese:   cfg.TTS.VoiceChinese,
		India:     cfg.TTS.VoiceIndia,
	}
	ttsCfg := elevenlabs.Config{
		APIBase: cfg.TTS.APIBase,
		APIKey:  cfg.TTS.APIKey,
		Voices:  voices,
	}

	orchestrator := pipeline.New(pipeline.Deps{
		Registry:     registry,
		Sessions:     sessions,
		Transcoder:   transcode.NewFFmpeg(cfg.Pipeline.FFmpegPath),
		ASR:          transcriber,
		TTSFree:      elevenlabs.NewFree(ttsCfg, nil, metrics.DefaultMetrics),
		TTSPaid:      elevenlabs.NewPaid(ttsCfg, nil, metrics.DefaultMetrics),
		Events:       publisher,
		StageTimeout: cfg.Pipeline.StageTimeout,
		Logger:       log,
		Metrics:      metrics.DefaultMetrics,
	})

	router := httpapi.NewRouter(application, httpapi.Handlers{
		Upload: ws.NewUploadHandler(sessions, orchestrator, log),
		Text:   ws.NewTextHandler(registry, log),
		Audio:  ws.NewAudioHandler(registry, log),
	})

	server := &http.Server{
		Addr:        ":" + cfg.Service.HTTPPort,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	obsServer := observability.NewServer(":" + cfg.Service.ObsPort)
	obsServer.Start()

	go func() {
		log.Info().Str("port", cfg.Service.HTTPPort).Msg("Voice relay service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http serve failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := obsServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("observability shutdown failed")
	}
}

// newTranscriber selects the ASR provider from configuration.
func newTranscriber(cfg *config.Configuration) (asr.Transcriber, error) {
	switch cfg.ASR.Provider {
	case "google":
		return asrgoogle.New(context.Background(), asrgoogle.Config{
			LanguageCode: cfg.ASR.LanguageCode,
			SampleRateHz: cfg.ASR.SampleRateHz,
		}, metrics.DefaultMetrics)
	case "mock":
		return asrmock.New(), nil
	default:
		return whisper.New(whisper.Config{
			URL:    cfg.ASR.WhisperURL,
			Model:  cfg.ASR.WhisperModel,
			APIKey: cfg.ASR.APIKey,
		}, nil, metrics.DefaultMetrics), nil
	}
}
