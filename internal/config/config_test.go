package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	envVars := []string{
		"SERVICE_PRINCIPAL", "HTTP_PORT", "OBS_PORT", "ENV", "LOG_LEVEL", "LOG_FORMAT",
		"ASR_PROVIDER", "WHISPER_API_URL", "WHISPER_MODEL", "OPENAI_API_KEY",
		"ELEVENLABS_API_URL", "ELEVENLABS_API_KEY",
		"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_TOPIC_FINAL", "KAFKA_PRINCIPAL",
		"PIPELINE_STAGE_TIMEOUT", "UPLOAD_TEMP_DIR", "FFMPEG_PATH",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}

	cfg := Load()

	if cfg.Service.Principal != "svc-voice-relay" {
		t.Errorf("expected default principal 'svc-voice-relay', got %s", cfg.Service.Principal)
	}
	if cfg.Service.HTTPPort != "8000" {
		t.Errorf("expected default port '8000', got %s", cfg.Service.HTTPPort)
	}
	if cfg.ASR.Provider != "whisper" {
		t.Errorf("expected default ASR provider 'whisper', got %s", cfg.ASR.Provider)
	}
	if cfg.ASR.WhisperURL != "https://api.openai.com/v1/audio/transcriptions" {
		t.Errorf("unexpected default whisper url %s", cfg.ASR.WhisperURL)
	}
	if cfg.ASR.WhisperModel != "whisper-1" {
		t.Errorf("expected default whisper model 'whisper-1', got %s", cfg.ASR.WhisperModel)
	}
	if cfg.ASR.SampleRateHz != 16000 {
		t.Errorf("expected default sample rate 16000, got %d", cfg.ASR.SampleRateHz)
	}
	if cfg.TTS.APIBase != "https://api.elevenlabs.io/v1" {
		t.Errorf("unexpected default TTS base %s", cfg.TTS.APIBase)
	}
	if cfg.Kafka.Enabled {
		t.Error("expected Kafka disabled by default")
	}
	if cfg.Kafka.TopicFinal != "conversation.transcript.final" {
		t.Errorf("unexpected default Kafka topic %s", cfg.Kafka.TopicFinal)
	}
	if cfg.Pipeline.StageTimeout != 120*time.Second {
		t.Errorf("expected default stage timeout 120s, got %v", cfg.Pipeline.StageTimeout)
	}
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.LogLevel)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("SERVICE_PRINCIPAL", "custom-principal")
	os.Setenv("HTTP_PORT", "9999")
	os.Setenv("ASR_PROVIDER", "GOOGLE")
	os.Setenv("ASR_SAMPLE_RATE_HZ", "8000")
	os.Setenv("KAFKA_ENABLED", "true")
	os.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	os.Setenv("PIPELINE_STAGE_TIMEOUT", "30s")
	os.Setenv("LOG_LEVEL", "debug")

	defer func() {
		os.Unsetenv("SERVICE_PRINCIPAL")
		os.Unsetenv("HTTP_PORT")
		os.Unsetenv("ASR_PROVIDER")
		os.Unsetenv("ASR_SAMPLE_RATE_HZ")
		os.Unsetenv("KAFKA_ENABLED")
		os.Unsetenv("KAFKA_BROKERS")
		os.Unsetenv("PIPELINE_STAGE_TIMEOUT")
		os.Unsetenv("LOG_LEVEL")
	}()

	cfg := Load()

	if cfg.Service.Principal != "custom-principal" {
		t.Errorf("expected principal 'custom-principal', got %s", cfg.Service.Principal)
	}
	if cfg.Service.HTTPPort != "9999" {
		t.Errorf("expected port '9999', got %s", cfg.Service.HTTPPort)
	}
	if cfg.ASR.Provider != "google" {
		t.Errorf("expected lowercased provider 'google', got %s", cfg.ASR.Provider)
	}
	if cfg.ASR.SampleRateHz != 8000 {
		t.Errorf("expected sample rate 8000, got %d", cfg.ASR.SampleRateHz)
	}
	if !cfg.Kafka.Enabled {
		t.Error("expected Kafka enabled")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "k1:9092" || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("unexpected brokers %v", cfg.Kafka.Brokers)
	}
	if cfg.Pipeline.StageTimeout != 30*time.Second {
		t.Errorf("expected stage timeout 30s, got %v", cfg.Pipeline.StageTimeout)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Observability.LogLevel)
	}
}

func TestLoad_InvalidValues_FallbackToDefaults(t *testing.T) {
	os.Setenv("ASR_SAMPLE_RATE_HZ", "not-a-number")
	os.Setenv("KAFKA_ENABLED", "invalid")
	os.Setenv("PIPELINE_STAGE_TIMEOUT", "invalid")

	defer func() {
		os.Unsetenv("ASR_SAMPLE_RATE_HZ")
		os.Unsetenv("KAFKA_ENABLED")
		os.Unsetenv("PIPELINE_STAGE_TIMEOUT")
	}()

	cfg := Load()

	if cfg.ASR.SampleRateHz != 16000 {
		t.Errorf("expected default sample rate on invalid input, got %d", cfg.ASR.SampleRateHz)
	}
	if cfg.Kafka.Enabled {
		t.Error("expected Kafka disabled on invalid input")
	}
	if cfg.Pipeline.StageTimeout != 120*time.Second {
		t.Errorf("expected default stage timeout on invalid input, got %v", cfg.Pipeline.StageTimeout)
	}
}

func TestLoad_KafkaPrincipal_FallsBackToServicePrincipal(t *testing.T) {
	os.Setenv("SERVICE_PRINCIPAL", "my-service")
	os.Unsetenv("KAFKA_PRINCIPAL")

	defer os.Unsetenv("SERVICE_PRINCIPAL")

	cfg := Load()

	if cfg.Kafka.Principal != "my-service" {
		t.Errorf("expected Kafka principal to fall back to service principal, got %s", cfg.Kafka.Principal)
	}
}

func TestEnvOrDefaultBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		def      bool
		expected bool
	}{
		{"true string", "true", false, true},
		{"false string", "false", true, false},
		{"1", "1", false, true},
		{"0", "0", true, false},
		{"TRUE uppercase", "TRUE", false, true},
		{"invalid", "invalid", true, true},
		{"empty", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_BOOL_VAR"
			if tt.envValue != "" {
				os.Setenv(key, tt.envValue)
			} else {
				os.Unsetenv(key)
			}
			defer os.Unsetenv(key)

			got := envOrDefaultBool(key, tt.def)
			if got != tt.expected {
				t.Errorf("envOrDefaultBool(%s, %v) = %v, want %v", tt.envValue, tt.def, got, tt.expected)
			}
		})
	}
}
