package codec

import "github.com/goccy/go-json"

// GoJSON encodes payloads as JSON using goccy/go-json, a drop-in
// encoding/json replacement with a faster implementation.
type GoJSON struct{}

func (GoJSON) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (GoJSON) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (GoJSON) Name() string { return "gojson" }

func init() {
	register(GoJSON{})
}
