package messaging

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

const (
	DriverNSQ          = "nsq"
	DriverNATS         = "nats"
	DriverKafka        = "kafka"
	DriverGooglePubSub = "google-pubsub"
)

var ErrUnknownDriver = errors.New("messaging: unknown driver")

// FactoryOptions carries the settings of every broker; only the selected
// driver's block is read.
type FactoryOptions struct {
	NSQ    NSQConfig
	Kafka  KafkaConfig
	NATS   NATSConfig
	PubSub PubSubConfig
}

var openers = map[string]func(context.Context, FactoryOptions) (Publisher, error){
	DriverNSQ:   func(_ context.Context, o FactoryOptions) (Publisher, error) { return asIface(NewNSQ(o.NSQ)) },
	DriverKafka: func(_ context.Context, o FactoryOptions) (Publisher, error) { return asIface(NewKafka(o.Kafka)) },
	DriverNATS:  func(_ context.Context, o FactoryOptions) (Publisher, error) { return asIface(NewNATS(o.NATS)) },
	DriverGooglePubSub: func(ctx context.Context, o FactoryOptions) (Publisher, error) {
		return asIface(NewPubSub(ctx, o.PubSub))
	},
}

// asIface keeps a typed nil adapter from leaking out as a non nil interface.
func asIface[T Publisher](v T, err error) (Publisher, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Drivers lists the accepted driver names in sorted order.
func Drivers() []string {
	return slices.Sorted(maps.Keys(openers))
}

// NewFromDriver connects the publisher named by driver (case and
// surrounding blanks ignored).
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Publisher, error) {
	open, ok := openers[strings.ToLower(strings.TrimSpace(driver))]
	if !ok {
		return nil, fmt.Errorf("%w %q, want one of %s", ErrUnknownDriver, driver, strings.Join(Drivers(), ", "))
	}
	return open(ctx, opts)
}
