package outbox

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	ContentTypeCloudEvents = "application/cloudevents+json"
	defaultSource          = "app://programhub"
)

// Producer is the broker side of the outbox.
type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Envelope wraps outbox records into structured-mode CloudEvents 1.0.
type Envelope struct {
	Source      string
	TopicPrefix string
	NewID       func() string
}

type cloudEvent struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Source          string          `json:"source"`
	Subject         string          `json:"subject,omitempty"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	TraceParent     string          `json:"traceparent,omitempty"`
	Data            json.RawMessage `json:"data"`
}

// Format returns the event body and the broker headers for one record. The record id
// becomes the CloudEvent id so redelivered events can be deduplicated downstream.
func (e Envelope) Format(id, name, aggregate string, occurredAt time.Time, payload []byte, headers map[string]string) ([]byte, map[string]string, error) {
	if !json.Valid(payload) {
		return nil, nil, ErrInvalidPayload
	}
	if id == "" {
		newID := e.NewID
		if newID == nil {
			newID = uuid.NewString
		}
		id = newID()
	}
	evt := cloudEvent{
		SpecVersion:     "1.0",
		ID:              id,
		Type:            name + ".v1",
		Source:          e.source(),
		Subject:         aggregate,
		Time:            occurredAt.UTC(),
		DataContentType: "application/json",
		TraceParent:     headers["traceparent"],
		Data:            json.RawMessage(payload),
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	out := map[string]string{"content-type": ContentTypeCloudEvents}
	for k, v := range headers {
		out[k] = v
	}
	return body, out, nil
}

// Topic maps "listing.published" to "<prefix>listing.events.v1".
func (e Envelope) Topic(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return e.TopicPrefix + base + ".events.v1"
}

func (e Envelope) source() string {
	if e.Source != "" {
		return e.Source
	}
	return defaultSource
}
