package outbox

import (
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
	"github.com/angelmondragon/mercadito-backend/pkg/enums"
	"github.com/angelmondragon/mercadito-backend/pkg/outbox/payloads"
)

// NonRetryableError signals the publisher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error {
	return e.Err
}

type descriptor struct {
	aggregate enums.OutboxAggregateType
	factory   func() any
}

var descriptors = map[enums.OutboxEventType]descriptor{
	enums.EventOrderCreated: {
		aggregate: enums.AggregateOrder,
		factory:   func() any { return &payloads.OrderCreatedEvent{} },
	},
	enums.EventOrderStatusChanged: {
		aggregate: enums.AggregateOrder,
		factory:   func() any { return &payloads.OrderStatusChangedEvent{} },
	},
	enums.EventStoreDeleted: {
		aggregate: enums.AggregateStore,
		factory:   func() any { return &payloads.StoreDeletedEvent{} },
	},
}

// ResolvedEvent is a decoded outbox row ready to publish.
type ResolvedEvent struct {
	Envelope PayloadEnvelope
	Payload  any
}

// Resolve decodes and sanity-checks a stored row. Malformed rows come back as
// NonRetryableError since retrying cannot fix them.
func Resolve(row models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := descriptors[row.EventType]
	if !ok {
		return nil, NonRetryableError{Err: fmt.Errorf("unknown event type %q", row.EventType)}
	}
	if desc.aggregate != row.AggregateType {
		return nil, NonRetryableError{Err: fmt.Errorf("event %s expects aggregate %s, got %s", row.EventType, desc.aggregate, row.AggregateType)}
	}
	env, err := DecodeEnvelope(row.Payload)
	if err != nil {
		return nil, NonRetryableError{Err: err}
	}
	payload := desc.factory()
	if err := json.Unmarshal(env.Data, payload); err != nil {
		return nil, NonRetryableError{Err: fmt.Errorf("decode %s data: %w", row.EventType, err)}
	}
	return &ResolvedEvent{Envelope: env, Payload: payload}, nil
}
