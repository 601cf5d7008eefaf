package eventbus

import (
	"encoding/json"
	"fmt"

	"github.com/amirasaad/codepay/pkg/domain/events"
)

// envelope is the wire format shared by the redis and kafka drivers.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func encode(event events.Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", event.Type(), err)
	}
	return json.Marshal(envelope{Type: event.Type(), Payload: data})
}

// decode rebuilds a typed event from its envelope bytes.
func decode(raw []byte, registry map[string]func() events.Event) (string, events.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Type == "" {
		return "", nil, fmt.Errorf("envelope has no type")
	}
	constructor, ok := registry[env.Type]
	if !ok {
		return env.Type, nil, fmt.Errorf("unknown event type %q", env.Type)
	}
	evt := constructor()
	if err := json.Unmarshal(env.Payload, evt); err != nil {
		return env.Type, nil, fmt.Errorf("unmarshal %s payload: %w", env.Type, err)
	}
	return env.Type, evt, nil
}
