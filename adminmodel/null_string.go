package adminmodel

import (
	"bytes"
	"encoding/json"
)

// NullString marshals as a JSON string when Valid, otherwise as null.
// Combined with a pointer and omitempty it distinguishes "leave unchanged"
// (nil) from "clear" (non-nil, not Valid).
type NullString struct {
	String string
	Valid  bool
}

func NewNullString(s *string) *NullString {
	if s == nil {
		return &NullString{}
	}
	return &NullString{String: *s, Valid: true}
}

func (n NullString) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.String)
}

func (n *NullString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*n = NullString{}
		return nil
	}
	if err := json.Unmarshal(data, &n.String); err != nil {
		return err
	}
	n.Valid = true
	return nil
}
