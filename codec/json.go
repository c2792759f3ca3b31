package codec

import (
	"strings"
	"unicode"

	jsoniter "github.com/json-iterator/go"
)

// camelAPI is frozen once; jsoniter caches per-type encoders on it.
var camelAPI = newCamelAPI()

func newCamelAPI() jsoniter.API {
	api := jsoniter.Config{
		EscapeHTML:             true,
		SortMapKeys:            true,
		ValidateJsonRawMessage: true,
	}.Froze()
	api.RegisterExtension(&camelNaming{})
	return api
}

// JSON encodes V as JSON with camelCase property names.
// The zero value is ready to use.
//
// Exported struct fields without a `json` name are written as camelCase
// ("UserName" -> "userName", "ID" -> "id"). An explicit tag name always wins.
// Decoding matches property names case-insensitively. Map keys are written
// as-is.
type JSON[V any] struct{}

var _ Codec[struct{}] = JSON[struct{}]{}

func (JSON[V]) Encode(v V) ([]byte, error) { return camelAPI.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := camelAPI.Unmarshal(b, &v)
	return v, err
}

type camelNaming struct{ jsoniter.DummyExtension }

var _ jsoniter.Extension = (*camelNaming)(nil)

func (*camelNaming) UpdateStructDescriptor(sd *jsoniter.StructDescriptor) {
	for _, b := range sd.Fields {
		name := b.Field.Name()
		if name == "" || !unicode.IsUpper([]rune(name)[0]) {
			continue // unexported
		}
		if tag, ok := b.Field.Tag().Lookup("json"); ok {
			if tagName, _, _ := strings.Cut(tag, ","); tagName != "" {
				continue
			}
		}
		camel := CamelCase(name)
		b.ToNames = []string{camel}
		b.FromNames = []string{camel}
	}
}

// CamelCase lowercases the leading run of upper-case letters of name, keeping
// the last one of the run upper-case when it starts the next word:
// "URLValue" -> "urlValue", "ID" -> "id", "Name" -> "name".
func CamelCase(name string) string {
	if name == "" {
		return name
	}
	r := []rune(name)
	if !unicode.IsUpper(r[0]) {
		return name
	}
	for i := range r {
		if i == 1 && !unicode.IsUpper(r[i]) {
			break
		}
		hasNext := i+1 < len(r)
		if i > 0 && hasNext && !unicode.IsUpper(r[i+1]) {
			if r[i+1] == ' ' {
				r[i] = unicode.ToLower(r[i])
			}
			break
		}
		r[i] = unicode.ToLower(r[i])
	}
	return string(r)
}
