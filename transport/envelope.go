package transport

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Envelope is the wire form of one message between nodes. Source carries
// provenance (the name of the publishing node), ID supports optional
// duplicate detection on at-least-once substrates.
type Envelope struct {
	ID      string `json:"id"`
	Source  string `json:"source,omitempty"`
	Payload []byte `json:"payload"`
}

// NewEnvelope creates an envelope with a fresh random ID.
func NewEnvelope(source string, payload []byte) Envelope {
	return Envelope{
		ID:      uuid.NewString(),
		Source:  source,
		Payload: payload,
	}
}

// EncodeEnvelope serializes an envelope to its JSON wire form.
func EncodeEnvelope(e Envelope) ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEnvelope parses the JSON wire form. Bytes that are not a valid
// envelope are returned as-is in an envelope with no ID and no source, so
// externally injected raw payloads still flow through the graph.
func DecodeEnvelope(data []byte) Envelope {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil || e.ID == "" && e.Source == "" && e.Payload == nil {
		return Envelope{Payload: data}
	}
	return e
}
