package transport

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestEnvelope(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		env := NewEnvelope("B", []byte("Processed by B"))
		assert.NotEqual(t, "", env.ID)

		data, err := EncodeEnvelope(env)
		assert.NoError(t, err)

		decoded := DecodeEnvelope(data)
		assert.Equal(t, env, decoded)
	})

	t.Run("fresh ids per envelope", func(t *testing.T) {
		a := NewEnvelope("X", []byte("p"))
		b := NewEnvelope("X", []byte("p"))
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("raw bytes fall back to bare payload", func(t *testing.T) {
		decoded := DecodeEnvelope([]byte("start"))
		assert.Equal(t, "", decoded.ID)
		assert.Equal(t, "", decoded.Source)
		assert.Equal(t, "start", string(decoded.Payload))
	})

	t.Run("foreign json falls back to bare payload", func(t *testing.T) {
		raw := []byte(`{"hello":"world"}`)
		decoded := DecodeEnvelope(raw)
		assert.Equal(t, raw, decoded.Payload)
	})
}
