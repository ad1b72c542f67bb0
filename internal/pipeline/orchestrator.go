// Package pipeline drives the on-stop flow: finalize the upload, transcode,
// transcribe, fan the transcript out on the text topic, then synthesize and
// stream the reply on the audio topic.
package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"voice-relay-service/internal/asr"
	"voice-relay-service/internal/events"
	"voice-relay-service/internal/ingest"
	"voice-relay-service/internal/models"
	"voice-relay-service/internal/observability/metrics"
	"voice-relay-service/internal/relay"
	"voice-relay-service/internal/transcode"
	"voice-relay-service/internal/tts"
)

// asrErrorPrefix marks a degraded transcript so the client can render a
// failure state instead of silence.
const asrErrorPrefix = "[ASR error] "

// audioMIME is the encoding the synthesis adapters stream.
const audioMIME = "audio/mpeg"

type finalFrame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type audioStartFrame struct {
	Type string `json:"type"`
	Mime string `json:"mime"`
}

type audioStopFrame struct {
	Type string `json:"type"`
}

// Orchestrator wires ingestion completion to transcription and synthesis.
// Adapter failures degrade the output but never abort the run: every stop
// event ends with a final text frame and a start/stop-bounded audio stream,
// so subscribers are never left hanging.
type Orchestrator struct {
	registry   *relay.Registry
	sessions   *ingest.Manager
	transcoder transcode.Transcoder
	asr        asr.Transcriber
	ttsFree    tts.Synthesizer
	ttsPaid    tts.Synthesizer
	events     *events.Publisher

	stageTimeout time.Duration
	log          zerolog.Logger
	metrics      *metrics.Metrics
}

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Registry   *relay.Registry
	Sessions   *ingest.Manager
	Transcoder transcode.Transcoder
	ASR        asr.Transcriber
	TTSFree    tts.Synthesizer
	TTSPaid    tts.Synthesizer
	Events     *events.Publisher

	// StageTimeout bounds each remote stage so a hung service cannot
	// stall a conversation forever. Zero disables the bound.
	StageTimeout time.Duration
	Logger       zerolog.Logger
	Metrics      *metrics.Metrics
}

// New creates an orchestrator.
func New(d Deps) *Orchestrator {
	return &Orchestrator{
		registry:     d.Registry,
		sessions:     d.Sessions,
		transcoder:   d.Transcoder,
		asr:          d.ASR,
		ttsFree:      d.TTSFree,
		ttsPaid:      d.TTSPaid,
		events:       d.Events,
		stageTimeout: d.StageTimeout,
		log:          d.Logger.With().Str("component", "pipeline").Logger(),
		metrics:      d.Metrics,
	}
}

// OnStop consumes the conversation's ingestion session and runs the full
// pipeline. The only error returned is a missing session (client protocol
// misuse); everything downstream degrades in place.
func (o *Orchestrator) OnStop(ctx context.Context, conversationID string) error {
	up, err := o.sessions.Finalize(conversationID)
	if err != nil {
		return err
	}
	defer os.Remove(up.Path)

	started := time.Now()
	log := o.log.With().Str("conversationId", conversationID).Logger()
	log.Info().Str("accent", up.Accent).Str("model", up.Model).Msg("pipeline started")

	text, degraded := o.transcribeUpload(ctx, up.Path)
	log.Info().Bool("degraded", degraded).Int("textLen", len(text)).Msg("transcription finished")

	// The final text frame always precedes the audio start frame.
	o.registry.PublishText(conversationID, finalFrame{Type: "final", Text: text})
	o.publishEvent(ctx, conversationID, up, text, degraded)

	o.streamSynthesis(ctx, conversationID, text, up.Accent, up.Model)

	o.metrics.RecordPipelineRun(time.Since(started).Seconds())
	log.Info().Dur("duration", time.Since(started)).Msg("pipeline finished")
	return nil
}

// transcribeUpload normalizes the upload and transcribes it. Failures are
// folded into a visible error-marker transcript.
func (o *Orchestrator) transcribeUpload(ctx context.Context, rawPath string) (string, bool) {
	stageCtx, cancel := o.stageContext(ctx)
	defer cancel()

	wavPath, err := o.transcoder.ToWAV16kMono(stageCtx, rawPath)
	if err != nil {
		o.metrics.RecordStageError("transcode")
		o.log.Error().Err(err).Msg("transcode failed")
		return asrErrorPrefix + err.Error(), true
	}
	defer os.Remove(wavPath)

	text, err := o.asr.Transcribe(stageCtx, wavPath)
	if err != nil {
		o.metrics.RecordStageError("transcribe")
		o.log.Error().Err(err).Msg("transcription failed")
		return asrErrorPrefix + err.Error(), true
	}
	return text, false
}

// streamSynthesis publishes the start marker, relays chunks in adapter
// order, and always closes with the stop marker.
func (o *Orchestrator) streamSynthesis(ctx context.Context, conversationID, text, accent, model string) {
	synth := o.ttsFree
	if model != ingest.DefaultModel {
		synth = o.ttsPaid
	}

	stageCtx, cancel := o.stageContext(ctx)
	defer cancel()

	o.registry.PublishAudioControl(conversationID, audioStartFrame{Type: "start", Mime: audioMIME})
	defer o.registry.PublishAudioControl(conversationID, audioStopFrame{Type: "stop"})

	chunks, errs := synth.Synthesize(stageCtx, text, accent)
	for chunk := range chunks {
		o.registry.PublishAudioBytes(conversationID, chunk)
	}
	if err := <-errs; err != nil {
		o.metrics.RecordStageError("synthesize")
		o.log.Error().Err(err).Str("conversationId", conversationID).Msg("synthesis failed")
	}
}

// publishEvent hands the transcript to the event publisher. Persistence is
// the CRUD service's job; a publish failure never disturbs the relay.
func (o *Orchestrator) publishEvent(ctx context.Context, conversationID string, up ingest.Upload, text string, degraded bool) {
	if o.events == nil {
		return
	}
	ev := models.TranscriptFinal{
		EventType:      "conversation.transcript.final",
		ConversationID: conversationID,
		Text:           text,
		Accent:         up.Accent,
		Model:          up.Model,
		Degraded:       degraded,
		Timestamp:      time.Now().UnixMilli(),
	}
	if err := o.events.PublishFinal(ctx, conversationID, ev); err != nil {
		o.metrics.RecordStageError("event")
	}
}

func (o *Orchestrator) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.stageTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.stageTimeout)
}

// Abort cleans up the conversation's session after an abnormal upload
// teardown. Safe to call when no session exists.
func (o *Orchestrator) Abort(conversationID string) {
	o.sessions.Abort(conversationID)
}
