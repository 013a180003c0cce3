package mq

import (
	"context"
	"encoding/json"

	"github.com/samber/lo"
	"github.com/shandysiswandi/loginguard/internal/guard/entity"
	"github.com/shandysiswandi/loginguard/internal/pkg/instrument"
	"github.com/shandysiswandi/loginguard/internal/pkg/messaging"
	"github.com/shandysiswandi/loginguard/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client      messaging.Publisher
	ins         instrument.Instrumentation
	destination string
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation, destination string) *Messaging {
	return &Messaging{
		client:      client,
		ins:         ins,
		destination: lo.CoalesceOrEmpty(destination, event.SecurityEventDestination),
	}
}

// PublishSecurityEvent keys messages by IP so events of one address stay
// ordered on partitioned brokers.
func (m *Messaging) PublishSecurityEvent(ctx context.Context, ev entity.SecurityEvent) error {
	ctx, span := m.ins.Tracer("guard.outbound.mq").Start(ctx, "PublishSecurityEvent")
	defer span.End()

	body, err := json.Marshal(event.SecurityEventMessage{
		ID:         ev.ID,
		Kind:       string(ev.Kind),
		UserID:     ev.UserID,
		Username:   ev.Username,
		IP:         ev.IP,
		OccurredAt: ev.OccurredAt.UTC(),
		Detail:     ev.Detail,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, m.destination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(ev.IP),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
