// Package filterparams translates structured filter values to and from the value
// of a single URL query parameter. Decoding never fails: malformed input means
// "no filter applied".
package filterparams

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	rangeSeparator = ","
	keySeparator   = ","
	modeSeparator  = ":"
)

// MatchMode selects how a multi-value selection is matched.
type MatchMode string

const (
	MatchAny MatchMode = "has_any"
	MatchAll MatchMode = "has_all"
)

// Update maps a parameter name to its new value; a nil value clears the parameter.
type Update map[string]*string

// Apply writes the update into values, deleting cleared parameters.
func (u Update) Apply(values url.Values) {
	for key, value := range u {
		if value == nil {
			values.Del(key)
			continue
		}
		values.Set(key, *value)
	}
}

// Value returns the encoded value for key and whether it is set.
func (u Update) Value(key string) (string, bool) {
	v, ok := u[key]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// Range is an inclusive integer interval such as an hours filter.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Valid reports 0 <= Min <= Max.
func (r Range) Valid() bool {
	return r.Min >= 0 && r.Min <= r.Max
}

// Contains reports whether v falls inside the range.
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// EncodeRange renders r as "min,max". A nil range clears the parameter.
func EncodeRange(r *Range, param string) Update {
	if r == nil {
		return Update{param: nil}
	}
	value := strconv.Itoa(r.Min) + rangeSeparator + strconv.Itoa(r.Max)
	return Update{param: &value}
}

// DecodeRange parses "min,max". Zero is a valid bound.
func DecodeRange(raw string) (Range, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Range{}, false
	}
	parts := strings.Split(raw, rangeSeparator)
	if len(parts) != 2 {
		return Range{}, false
	}
	minValue, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Range{}, false
	}
	maxValue, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Range{}, false
	}
	r := Range{Min: minValue, Max: maxValue}
	if !r.Valid() {
		return Range{}, false
	}
	return r, true
}

// Selection is a set of option keys with an optional match mode.
type Selection struct {
	Keys []string  `json:"keys"`
	Mode MatchMode `json:"mode,omitempty"`
}

// IsEmpty reports whether no keys are selected.
func (s Selection) IsEmpty() bool {
	return len(s.Keys) == 0
}

// Matches reports whether values satisfy the selection. An empty selection matches
// everything; MatchAll needs every key, any other mode needs one.
func (s Selection) Matches(values []string) bool {
	if s.IsEmpty() {
		return true
	}
	have := make(map[string]struct{}, len(values))
	for _, v := range values {
		have[v] = struct{}{}
	}
	if s.Mode == MatchAll {
		for _, key := range s.Keys {
			if _, ok := have[key]; !ok {
				return false
			}
		}
		return true
	}
	for _, key := range s.Keys {
		if _, ok := have[key]; ok {
			return true
		}
	}
	return false
}

// EncodeSelection renders keys as "mode:k1,k2" keeping insertion order. Duplicate
// and blank keys are dropped; an empty selection clears the parameter.
func EncodeSelection(keys []string, param string, mode MatchMode) Update {
	cleaned := normalizeKeys(keys)
	if len(cleaned) == 0 {
		return Update{param: nil}
	}
	value := strings.Join(cleaned, keySeparator)
	if mode != "" {
		value = string(mode) + modeSeparator + value
	}
	return Update{param: &value}
}

// DecodeSelection splits an optional "mode:" prefix from the comma list. Only
// has_any and has_all are prefixes; other text before a colon stays part of the key.
func DecodeSelection(raw string) Selection {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Selection{Keys: []string{}}
	}
	var mode MatchMode
	if idx := strings.Index(raw, modeSeparator); idx >= 0 {
		if prefix := MatchMode(strings.TrimSpace(raw[:idx])); prefix.known() {
			mode = prefix
			raw = raw[idx+len(modeSeparator):]
		}
	}
	return Selection{Keys: normalizeKeys(strings.Split(raw, keySeparator)), Mode: mode}
}

func (m MatchMode) known() bool {
	return m == MatchAny || m == MatchAll
}

func normalizeKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}
