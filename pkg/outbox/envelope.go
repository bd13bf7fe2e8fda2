package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CurrentVersion is stamped on every envelope written today.
const CurrentVersion = 1

// ActorRef identifies who produced the event. Anonymous checkouts carry none.
type ActorRef struct {
	UserID uuid.UUID `json:"userId"`
	Role   string    `json:"role,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// DecodeEnvelope parses a stored payload and checks the required fields.
func DecodeEnvelope(raw []byte) (PayloadEnvelope, error) {
	var env PayloadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return PayloadEnvelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Version <= 0 {
		return PayloadEnvelope{}, fmt.Errorf("envelope missing version")
	}
	if env.EventID == "" {
		return PayloadEnvelope{}, fmt.Errorf("envelope missing eventId")
	}
	if len(env.Data) == 0 {
		return PayloadEnvelope{}, fmt.Errorf("envelope missing data")
	}
	return env, nil
}
