// Package ingest tracks in-progress audio uploads, one per conversation.
// A session buffers binary frames into a temporary file until it is
// consumed exactly once by Finalize, or cleaned up by Abort.
package ingest

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"voice-relay-service/internal/observability/metrics"
)

var (
	// ErrSessionConflict is returned when a session already exists for the
	// conversation. A second start must not clobber an in-flight upload.
	ErrSessionConflict = errors.New("ingest: session already active for conversation")

	// ErrNoActiveSession is returned when there is nothing to append to,
	// finalize, or when a session was already consumed.
	ErrNoActiveSession = errors.New("ingest: no active session for conversation")
)

// DefaultAccent is used when the start frame carries no accent.
const DefaultAccent = "American English"

// DefaultModel is used when the start frame carries no model tier.
const DefaultModel = "free"

// Upload is the result of consuming a session: the buffered audio file and
// the metadata recorded at session start. The caller owns deleting Path.
type Upload struct {
	Path   string
	Accent string
	Model  string
}

type session struct {
	file   *os.File
	accent string
	model  string
}

// Manager holds at most one active session per conversation.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session

	tempDir string
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewManager creates an empty session manager writing buffers under tempDir.
func NewManager(tempDir string, log zerolog.Logger, m *metrics.Metrics) *Manager {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Manager{
		sessions: make(map[string]*session),
		tempDir:  tempDir,
		log:      log.With().Str("component", "ingest").Logger(),
		metrics:  m,
	}
}

// Begin allocates the temporary buffer and records accent and model tier.
// Empty metadata fields fall back to defaults; the model tier is
// case-insensitive.
func (m *Manager) Begin(conversationID, accent, model string) error {
	if accent == "" {
		accent = DefaultAccent
	}
	model = strings.ToLower(model)
	if model == "" {
		model = DefaultModel
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[conversationID]; ok {
		return ErrSessionConflict
	}

	f, err := os.CreateTemp(m.tempDir, "upload_*.webm")
	if err != nil {
		return fmt.Errorf("ingest: create upload buffer: %w", err)
	}

	m.sessions[conversationID] = &session{file: f, accent: accent, model: model}
	m.metrics.SessionsStarted.Inc()
	m.log.Debug().
		Str("conversationId", conversationID).
		Str("accent", accent).
		Str("model", model).
		Str("path", f.Name()).
		Msg("session started")
	return nil
}

// Append writes one binary frame to the session buffer in arrival order.
func (m *Manager) Append(conversationID string, chunk []byte) error {
	m.mu.Lock()
	s, ok := m.sessions[conversationID]
	m.mu.Unlock()
	if !ok {
		return ErrNoActiveSession
	}

	if _, err := s.file.Write(chunk); err != nil {
		return fmt.Errorf("ingest: append to upload buffer: %w", err)
	}
	m.metrics.RecordUploadBytes(len(chunk))
	return nil
}

// Finalize closes the buffer for writing and hands ownership of the file to
// the caller. The session is removed, so a second Finalize without an
// intervening Begin fails with ErrNoActiveSession.
func (m *Manager) Finalize(conversationID string) (Upload, error) {
	m.mu.Lock()
	s, ok := m.sessions[conversationID]
	if ok {
		delete(m.sessions, conversationID)
	}
	m.mu.Unlock()
	if !ok {
		return Upload{}, ErrNoActiveSession
	}

	if err := s.file.Close(); err != nil {
		os.Remove(s.file.Name())
		return Upload{}, fmt.Errorf("ingest: close upload buffer: %w", err)
	}
	m.metrics.SessionsFinalized.Inc()
	return Upload{Path: s.file.Name(), Accent: s.accent, Model: s.model}, nil
}

// Abort removes the session and deletes its buffer. Safe to call after
// Finalize or for an unknown conversation; a missing session is a no-op.
func (m *Manager) Abort(conversationID string) {
	m.mu.Lock()
	s, ok := m.sessions[conversationID]
	if ok {
		delete(m.sessions, conversationID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	s.file.Close()
	if err := os.Remove(s.file.Name()); err != nil && !os.IsNotExist(err) {
		m.log.Warn().Err(err).Str("path", s.file.Name()).Msg("failed to remove upload buffer")
	}
	m.metrics.SessionsAborted.Inc()
	m.log.Debug().Str("conversationId", conversationID).Msg("session aborted")
}

// Close aborts every outstanding session. Called on process shutdown so no
// temporary file outlives the service.
func (m *Manager) Close() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Abort(id)
	}
}

// Active reports whether a session exists for the conversation.
func (m *Manager) Active(conversationID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[conversationID]
	return ok
}
