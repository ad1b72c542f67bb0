// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ServiceConfig holds process-level settings.
type ServiceConfig struct {
	Principal string
	HTTPPort  string
	ObsPort   string
	Env       string
}

// ASRConfig holds transcription settings.
type ASRConfig struct {
	Provider     string // whisper, google, mock
	WhisperURL   string
	WhisperModel string
	APIKey       string
	LanguageCode string
	SampleRateHz int
}

// TTSConfig holds synthesis settings.
type TTSConfig struct {
	APIBase        string
	APIKey         string
	VoiceAmerican  string
	VoiceAustralia string
	VoiceBritish   string
	VoiceChinese   string
	VoiceIndia     string
}

// KafkaConfig holds transcript event publishing settings.
type KafkaConfig struct {
	Enabled    bool
	Brokers    []string
	TopicFinal string
	Principal  string
}

// PipelineConfig holds orchestration settings.
type PipelineConfig struct {
	StageTimeout time.Duration
	TempDir      string
	FFmpegPath   string
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string
}

// Configuration is the root config for the service.
type Configuration struct {
	Service       ServiceConfig
	ASR           ASRConfig
	TTS           TTSConfig
	Kafka         KafkaConfig
	Pipeline      PipelineConfig
	Observability ObservabilityConfig
}

// Load reads configuration from environment variables, falling back to
// defaults for anything unset or unparseable.
func Load() *Configuration {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-voice-relay")

	logFormat := "json"
	if envOrDefault("ENV", "") == "dev" {
		logFormat = "console"
	}

	return &Configuration{
		Service: ServiceConfig{
			Principal: principal,
			HTTPPort:  envOrDefault("HTTP_PORT", "8000"),
			ObsPort:   envOrDefault("OBS_PORT", "9090"),
			Env:       envOrDefault("ENV", ""),
		},
		ASR: ASRConfig{
			Provider:     strings.ToLower(envOrDefault("ASR_PROVIDER", "whisper")),
			WhisperURL:   envOrDefault("WHISPER_API_URL", "https://api.openai.com/v1/audio/transcriptions"),
			WhisperModel: envOrDefault("WHISPER_MODEL", "whisper-1"),
			APIKey:       envOrDefault("OPENAI_API_KEY", ""),
			LanguageCode: envOrDefault("ASR_LANGUAGE_CODE", "en-US"),
			SampleRateHz: envOrDefaultInt("ASR_SAMPLE_RATE_HZ", 16000),
		},
		TTS: TTSConfig{
			APIBase:        envOrDefault("ELEVENLABS_API_URL", "https://api.elevenlabs.io/v1"),
			APIKey:         envOrDefault("ELEVENLABS_API_KEY", ""),
			VoiceAmerican:  envOrDefault("VOICE_ID_AMERICAN", "EXAVITQu4vr4xnSDxMaL"),
			VoiceAustralia: envOrDefault("VOICE_ID_AUSTRALIA", "IKne3meq5aSn9XLyUdCD"),
			VoiceBritish:   envOrDefault("VOICE_ID_BRITISH", "JBFqnCBsd6RMkjVDRZzb"),
			VoiceChinese:   envOrDefault("VOICE_ID_CHINESE", "hkfHEbBvdQFNX4uWHqRF"),
			VoiceIndia:     envOrDefault("VOICE_ID_INDIA", "kL06KYMvPY56NluIQ72m"),
		},
		Kafka: KafkaConfig{
			Enabled:    envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:    envOrDefaultList("KAFKA_BROKERS", nil),
			TopicFinal: envOrDefault("KAFKA_TOPIC_FINAL", "conversation.transcript.final"),
			Principal:  envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Pipeline: PipelineConfig{
			StageTimeout: envOrDefaultDuration("PIPELINE_STAGE_TIMEOUT", 120*time.Second),
			TempDir:      envOrDefault("UPLOAD_TEMP_DIR", os.TempDir()),
			FFmpegPath:   envOrDefault("FFMPEG_PATH", "ffmpeg"),
		},
		Observability: ObservabilityConfig{
			LogLevel:  envOrDefault("LOG_LEVEL", "info"),
			LogFormat: envOrDefault("LOG_FORMAT", logFormat),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return def
	}
	return b
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
