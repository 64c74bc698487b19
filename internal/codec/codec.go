package codec

// Codec marshals and unmarshals payloads carried inside frames.
type Codec interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
	Name() string
}

var registry = map[string]Codec{}

func register(c Codec) {
	registry[c.Name()] = c
}

// ByName returns the registered codec with the given name, or nil if none
// is registered under that name.
func ByName(name string) Codec {
	return registry[name]
}

// Default is the codec used for schema, record, and index payloads unless
// a caller explicitly selects another one.
var Default Codec = GoJSON{}
