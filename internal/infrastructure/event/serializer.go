package event

import (
	"encoding/json"
	"fmt"

	"github.com/miv/backend/internal/domain/shared"
)

// envelopeKeys are the BaseDomainEvent fields; Payload drops them so only
// the event-specific attributes reach workflow input.
var envelopeKeys = []string{"id", "type", "timestamp", "aggregate_id", "aggregate_type", "actor_id"}

// Serialize encodes a domain event as JSON
func Serialize(event shared.DomainEvent) ([]byte, error) {
	return json.Marshal(event)
}

// Payload flattens an event into a JSON object of its own attributes.
// Numbers decode as float64, the same as any other JSON input.
func Payload(event shared.DomainEvent) (map[string]any, error) {
	data, err := Serialize(event)
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", event.EventType(), err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", event.EventType(), err)
	}
	for _, k := range envelopeKeys {
		delete(out, k)
	}
	return out, nil
}
