// Package codec centralizes payload encoding for persisted records.
//
// The Backend Adapter contract is JSON-valued, so every record, ref and
// statistics snapshot passes through a Codec. Codec selection is a
// breaking-change boundary: bytes written by one codec must stay
// decodable, which both built-ins guarantee (they produce standard JSON).
package codec

import "fmt"

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
//
// Persisted metadata that records a codec name (blob side-cars) is decoded
// by looking the codec up here, never by sniffing bytes.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for internal tests.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
