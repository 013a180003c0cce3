package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrUnsupported is returned when a feature is not supported by the selected broker.
//
// For example, not all brokers support delayed delivery.
var ErrUnsupported = errors.New("messaging: unsupported operation")

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("messaging: publisher closed")

// Publisher publishes messages to a destination (topic/subject).
//
// Implementations wrap Kafka, NATS, NSQ or Google Pub/Sub.
type Publisher interface {
	io.Closer
	// Publish sends a message to the destination.
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// OutgoingMessage represents a broker-agnostic message to be published.
type OutgoingMessage struct {
	// Body is the message payload.
	Body []byte

	// Key is used by Kafka for partitioning.
	Key []byte

	// Headers are mapped to Kafka headers, NATS headers and Pub/Sub attributes.
	// NSQ has no headers and drops them.
	Headers []Header

	// Delay requests deferred delivery (NSQ only).
	Delay time.Duration
}

// Header is a key/value pair used for message headers.
type Header struct {
	Key   string
	Value []byte
}

// PublishResult carries optional broker-specific publish metadata.
type PublishResult struct {
	// MessageID is the broker-assigned message ID (Pub/Sub).
	MessageID string
	// Topic is the destination the message was written to.
	Topic string
	// Timestamp is when the message was handed to the broker.
	Timestamp time.Time
}

func headerMap(hs []Header) map[string]string {
	if len(hs) == 0 {
		return nil
	}
	m := make(map[string]string, len(hs))
	for _, h := range hs {
		if h.Key == "" {
			continue
		}
		m[h.Key] = string(h.Value)
	}
	return m
}
