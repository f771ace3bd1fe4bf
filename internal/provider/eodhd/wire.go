package eodhd

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// stringFloat decodes upstream numeric fields that arrive as either a
// JSON number, a quoted number, or null.
type stringFloat float64

func (f *stringFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = stringFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = stringFloat(v)
	return nil
}

// Value returns the plain float64.
func (f stringFloat) Value() float64 {
	return float64(f)
}
