package generation

import (
	"encoding/json"
	"fmt"
)

// Result is the structured object carried by the terminal "result" record,
// usually the regenerated resource.
type Result map[string]any

// ParseResult decodes the data of a result record. The payload must be a
// JSON object.
func ParseResult(data string) (Result, error) {
	var r Result
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("parsing result payload: %w", err)
	}
	if r == nil {
		return nil, fmt.Errorf("parsing result payload: expected a JSON object, got %q", data)
	}
	return r, nil
}

// Decode re-decodes the result into v, typically one of the client resource
// types.
func (r Result) Decode(v any) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding result: %w", err)
	}
	return nil
}
