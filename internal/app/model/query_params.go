package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidParams is returned when tracking parameters are not a flat JSON object.
var ErrInvalidParams = errors.New("tracking params must be a flat JSON object")

// QueryParam is a single tracking parameter. A nil Value means "not set".
type QueryParam struct {
	Key   string
	Value *string
}

// QueryParams is an ordered key/value list. It encodes to and decodes from a
// JSON object while keeping the key order of the document.
type QueryParams []QueryParam

// StringPtr is a small helper for building QueryParams literals.
func StringPtr(s string) *string { return &s }

// Get returns the last value stored under key.
func (p QueryParams) Get(key string) (string, bool) {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].Key == key && p[i].Value != nil {
			return *p[i].Value, true
		}
	}
	return "", false
}

// Map flattens the params, dropping unset values.
func (p QueryParams) Map() map[string]string {
	out := make(map[string]string, len(p))
	for _, kv := range p {
		if kv.Value != nil {
			out[kv.Key] = *kv.Value
		}
	}
	return out
}

func (p QueryParams) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if kv.Value == nil {
			buf.WriteString("null")
			continue
		}
		val, err := json.Marshal(*kv.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts an object whose values are strings, numbers, booleans
// or null. Numbers keep their literal text; booleans become "true"/"false".
func (p *QueryParams) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrInvalidParams
	}

	out := QueryParams{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		key, _ := keyTok.(string)

		valTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}

		var value *string
		switch v := valTok.(type) {
		case nil:
		case string:
			value = StringPtr(v)
		case json.Number:
			value = StringPtr(v.String())
		case bool:
			value = StringPtr(fmt.Sprintf("%t", v))
		default:
			return fmt.Errorf("%w: value of %q is not a scalar", ErrInvalidParams, key)
		}
		out = append(out, QueryParam{Key: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	*p = out
	return nil
}

// ParseQueryParams decodes a user supplied JSON document. Blank input is an
// empty set.
func ParseQueryParams(raw string) (QueryParams, error) {
	if strings.TrimSpace(raw) == "" {
		return QueryParams{}, nil
	}
	var params QueryParams
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		if errors.Is(err, ErrInvalidParams) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if params == nil {
		params = QueryParams{}
	}
	return params, nil
}
