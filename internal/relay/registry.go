// Package relay implements the per-conversation pub/sub core that fans
// transcript text and synthesized audio out to connected subscribers.
package relay

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"voice-relay-service/internal/observability/metrics"
)

// Topic identifies one of the two broadcast channels a conversation carries.
type Topic string

const (
	// TopicText carries JSON transcript frames.
	TopicText Topic = "text"
	// TopicAudio carries JSON control frames and binary audio chunks.
	TopicAudio Topic = "audio"
)

// Subscriber is one live outbound connection. Sends return an error so the
// registry can observe delivery failures without ever propagating them.
// Identity is reference equality.
type Subscriber interface {
	SendText(payload []byte) error
	SendBinary(chunk []byte) error
}

// Registry tracks, per conversation, the subscriber sets of both topics.
// It is constructed once by the composition root and injected; delivery is
// best-effort, at-most-once, with no backlog for late subscribers.
type Registry struct {
	mu     sync.Mutex
	topics map[Topic]map[string]map[Subscriber]struct{}

	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewRegistry creates an empty registry.
func NewRegistry(log zerolog.Logger, m *metrics.Metrics) *Registry {
	return &Registry{
		topics: map[Topic]map[string]map[Subscriber]struct{}{
			TopicText:  {},
			TopicAudio: {},
		},
		log:     log.With().Str("component", "relay").Logger(),
		metrics: m,
	}
}

// Subscribe registers sub for conversationID on topic, creating the
// subscriber set if needed. The websocket handshake is the caller's job.
func (r *Registry) Subscribe(topic Topic, conversationID string, sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	convs := r.topics[topic]
	set, ok := convs[conversationID]
	if !ok {
		set = make(map[Subscriber]struct{})
		convs[conversationID] = set
	}
	set[sub] = struct{}{}
	r.metrics.RecordSubscribe(string(topic))
}

// Unsubscribe removes sub if present. Removing an absent subscriber is a
// no-op; empty sets are pruned so the maps do not grow with dead
// conversations.
func (r *Registry) Unsubscribe(topic Topic, conversationID string, sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.topics[topic][conversationID]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(r.topics[topic], conversationID)
	}
	r.metrics.RecordUnsubscribe(string(topic))
}

// PublishText serializes payload once and sends it to every current text
// subscriber of the conversation.
func (r *Registry) PublishText(conversationID string, payload any) {
	r.publishJSON(TopicText, conversationID, payload)
}

// PublishAudioControl sends a JSON control frame on the audio topic.
func (r *Registry) PublishAudioControl(conversationID string, payload any) {
	r.publishJSON(TopicAudio, conversationID, payload)
}

// PublishAudioBytes sends one binary audio chunk to every current audio
// subscriber of the conversation.
func (r *Registry) PublishAudioBytes(conversationID string, chunk []byte) {
	for _, sub := range r.snapshot(TopicAudio, conversationID) {
		if err := sub.SendBinary(chunk); err != nil {
			r.dropDelivery(TopicAudio, conversationID, err)
		}
	}
	r.metrics.RecordAudioPublished(len(chunk))
}

func (r *Registry) publishJSON(topic Topic, conversationID string, payload any) {
	msg, err := json.Marshal(payload)
	if err != nil {
		r.log.Error().Err(err).Str("conversationId", conversationID).Msg("marshal publish payload")
		return
	}
	for _, sub := range r.snapshot(topic, conversationID) {
		if err := sub.SendText(msg); err != nil {
			r.dropDelivery(topic, conversationID, err)
		}
	}
	r.metrics.RecordPublish(string(topic))
}

// snapshot copies the subscriber set under the lock so sends happen outside
// it. A slow subscriber must not block concurrent subscribe/unsubscribe.
func (r *Registry) snapshot(topic Topic, conversationID string) []Subscriber {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.topics[topic][conversationID]
	if len(set) == 0 {
		return nil
	}
	subs := make([]Subscriber, 0, len(set))
	for sub := range set {
		subs = append(subs, sub)
	}
	return subs
}

// dropDelivery records a failed send. The broken subscriber cleans itself up
// through its own connection-teardown path; the publisher never retries and
// never lets one failure affect the others.
func (r *Registry) dropDelivery(topic Topic, conversationID string, err error) {
	r.metrics.RecordDeliveryFailure(string(topic))
	r.log.Debug().
		Err(err).
		Str("topic", string(topic)).
		Str("conversationId", conversationID).
		Msg("subscriber send failed")
}

// SubscriberCount reports the current set size for a conversation's topic.
func (r *Registry) SubscriberCount(topic Topic, conversationID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.topics[topic][conversationID])
}
