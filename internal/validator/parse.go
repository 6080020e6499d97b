package validator

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// object is a JSON object whose values are decoded lazily, field by field,
// so that type errors can be attributed to the offending field.
type object map[string]json.RawMessage

// parseObject strictly parses raw as a JSON object. Models like to wrap
// their JSON in prose or code fences, so on failure it retries once by
// decoding the first complete value that starts at the first '{'. Anything
// after that value is ignored.
func parseObject(raw string) (object, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, malformed("empty response", nil)
	}

	obj, err := decodeObject(text)
	if err == nil {
		return obj, nil
	}

	start := strings.Index(text, "{")
	if start == -1 {
		return nil, malformed("no JSON object found", err)
	}

	obj = nil
	if err := json.NewDecoder(strings.NewReader(text[start:])).Decode(&obj); err != nil {
		return nil, malformed("unparseable after repair", err)
	}
	return obj, nil
}

func decodeObject(text string) (object, error) {
	var obj object
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("top-level value is null")
	}
	return obj, nil
}

// field returns the raw value for name. An exact key wins over a
// case-insensitive match. Explicit nulls count as absent.
func (o object) field(name string) (json.RawMessage, bool) {
	raw, ok := o[name]
	if !ok {
		matched := ""
		for k, v := range o {
			if strings.EqualFold(k, name) && (!ok || k < matched) {
				raw, ok, matched = v, true, k
			}
		}
	}
	if !ok || isNull(raw) {
		return nil, false
	}
	return raw, true
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
