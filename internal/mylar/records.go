package mylar

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// record is one loosely-typed JSON object. Mylar's field names differ
// between versions and commands, so lookups try several keys in order.
type record map[string]any

// str returns the first non-empty value among keys, rendered as a string.
func (r record) str(keys ...string) string {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case json.Number:
			s = t.String()
		case bool:
			s = strconv.FormatBool(t)
		default:
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// decodeRecords accepts a JSON list of objects, an object holding such a
// list under one of keys, or a single object (returned as a list of one).
func decodeRecords(raw json.RawMessage, keys ...string) ([]record, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	switch raw[0] {
	case '[':
		var list []record
		if err := dec.Decode(&list); err != nil {
			return nil, err
		}
		return list, nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, err
		}
		for _, k := range keys {
			if inner, ok := obj[k]; ok {
				return decodeRecords(inner)
			}
		}
		var single record
		if err := dec.Decode(&single); err != nil {
			return nil, err
		}
		return []record{single}, nil
	default:
		return nil, nil
	}
}

// stripProviderPrefix drops a ComicVine resource prefix such as "4050-",
// leaving the numeric volume ID the destination stores.
func stripProviderPrefix(id string) string {
	if i := strings.LastIndex(id, "-"); i >= 0 {
		return id[i+1:]
	}
	return id
}
