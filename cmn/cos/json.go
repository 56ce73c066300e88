package cos

import (
	jsoniter "github.com/json-iterator/go"
)

// JSON is the shared jsoniter configuration: compact, no HTML-escaping,
// map keys sorted for byte-reproducible output (Design Note "Nested
// open-ended maps ... deterministic key iteration").
var JSON = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// MustMarshal panics on error; used only where the input is already
// known-good in-memory data (never on externally sourced ping bytes).
func MustMarshal(v any) []byte {
	b, err := JSON.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
