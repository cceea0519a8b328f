package queue

import (
	"bytes"
	"encoding/base64"
	"encoding/gob"
	"encoding/json"
	"fmt"
)

// Serializer encodes and decodes command payloads. The result must be text safe,
// as messages are stored in text columns and redis strings.
type Serializer interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSON serializer, the default one
type JSON struct{}

// Marshal encodes v to json. HTML characters are not escaped, stored messages stay readable.
func (JSON) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Unmarshal decodes json data to v
func (JSON) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// Gob serializer encodes payload with encoding/gob and wraps the binary result in base64.
// Payload types with interface fields must be registered with gob.Register.
type Gob struct{}

// Marshal encodes v with gob and base64
func (Gob) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}
	res := make([]byte, base64.StdEncoding.EncodedLen(buf.Len()))
	base64.StdEncoding.Encode(res, buf.Bytes())
	return res, nil
}

// Unmarshal decodes base64 data and then gob to v
func (Gob) Unmarshal(data []byte, v any) error {
	raw := make([]byte, base64.StdEncoding.DecodedLen(len(data)))
	n, err := base64.StdEncoding.Decode(raw, data)
	if err != nil {
		return fmt.Errorf("base64 decode: %w", err)
	}
	if err := gob.NewDecoder(bytes.NewReader(raw[:n])).Decode(v); err != nil {
		return fmt.Errorf("gob decode: %w", err)
	}
	return nil
}
