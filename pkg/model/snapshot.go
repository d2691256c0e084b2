package model

import (
	"encoding/json"
	"fmt"
)

// Snapshot maps a record type to the values observed for it, in resolver order.
// A type that was queried but returned nothing maps to an empty slice.
type Snapshot map[string][]string

// NewSnapshot returns a snapshot with an empty value list for every tracked type.
func NewSnapshot() Snapshot {
	s := make(Snapshot, len(RecordTypes))
	for _, t := range RecordTypes {
		s[t] = []string{}
	}
	return s
}

// Values returns the values for rType. A missing type yields an empty slice.
func (s Snapshot) Values(rType string) []string {
	if v, ok := s[rType]; ok && v != nil {
		return v
	}
	return []string{}
}

func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	c := make(Snapshot, len(s))
	for t, v := range s {
		c[t] = append([]string{}, v...)
	}
	return c
}

// Marshal encodes the snapshot as JSON, writing empty lists as [] rather than null.
func (s Snapshot) Marshal() (string, error) {
	out := make(map[string][]string, len(s))
	for t, v := range s {
		if v == nil {
			v = []string{}
		}
		out[t] = v
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}
	return string(b), nil
}

func UnmarshalSnapshot(data string) (Snapshot, error) {
	s := Snapshot{}
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	for t, v := range s {
		if v == nil {
			s[t] = []string{}
		}
	}
	return s, nil
}
