package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/loginguard/internal/guard/entity"
	"github.com/shandysiswandi/loginguard/internal/pkg/instrument"
	"github.com/shandysiswandi/loginguard/internal/pkg/messaging"
	"github.com/shandysiswandi/loginguard/internal/shared/event"
)

type published struct {
	destination string
	msg         messaging.OutgoingMessage
}

type fakePublisher struct {
	out []published
	err error
}

func (f *fakePublisher) Publish(_ context.Context, destination string, msg messaging.OutgoingMessage) (messaging.PublishResult, error) {
	if f.err != nil {
		return messaging.PublishResult{}, f.err
	}
	f.out = append(f.out, published{destination: destination, msg: msg})
	return messaging.PublishResult{Topic: destination}, nil
}

func (f *fakePublisher) Close() error { return nil }

func TestPublishSecurityEvent(t *testing.T) {
	ev := entity.SecurityEvent{
		ID:         1234567890123,
		Kind:       entity.EventIPBlocked,
		UserID:     7,
		Username:   "jane",
		IP:         "203.0.113.7",
		OccurredAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Detail:     map[string]string{"duration_seconds": "3600"},
	}

	t.Run("EncodesWithHeaders", func(t *testing.T) {

		// Arrange
		pub := &fakePublisher{}
		m := NewMessaging(pub, instrument.NewNoop(), "security")
		ctx := instrument.SetCorrelationID(context.Background(), "cid-1")

		// Act
		err := m.PublishSecurityEvent(ctx, ev)

		// Assert
		if err != nil {
			t.Fatalf("PublishSecurityEvent() error = %v", err)
		}
		got := pub.out[0]
		if got.destination != "security" || string(got.msg.Key) != ev.IP {
			t.Fatalf("unexpected routing %+v", got)
		}
		if len(got.msg.Headers) != 1 || got.msg.Headers[0].Key != "cID" || string(got.msg.Headers[0].Value) != "cid-1" {
			t.Fatalf("unexpected headers %+v", got.msg.Headers)
		}
		var body event.SecurityEventMessage
		if err := json.Unmarshal(got.msg.Body, &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.ID != ev.ID || body.Kind != "guard.ip_blocked" || body.Detail["duration_seconds"] != "3600" {
			t.Fatalf("unexpected body %+v", body)
		}
	})

	t.Run("DefaultDestination", func(t *testing.T) {

		// Arrange
		pub := &fakePublisher{}
		m := NewMessaging(pub, instrument.NewNoop(), "")

		// Act
		_ = m.PublishSecurityEvent(context.Background(), ev)

		// Assert
		if pub.out[0].destination != event.SecurityEventDestination {
			t.Fatalf("destination = %q", pub.out[0].destination)
		}
	})

	t.Run("BrokerError", func(t *testing.T) {

		// Arrange
		m := NewMessaging(&fakePublisher{err: messaging.ErrClosed}, instrument.NewNoop(), "security")

		// Act
		err := m.PublishSecurityEvent(context.Background(), ev)

		// Assert
		if !errors.Is(err, messaging.ErrClosed) {
			t.Fatalf("expected ErrClosed, got %v", err)
		}
	})
}
