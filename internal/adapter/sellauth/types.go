package sellauth

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// flexString accepts a JSON string or number; invoice ids come back as either.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexAmount accepts a JSON number, a numeric string, or null.
type flexAmount struct {
	value *decimal.Decimal
}

func (f *flexAmount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		f.value = nil
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	f.value = &d
	return nil
}

func (f flexAmount) ptr() *decimal.Decimal {
	return f.value
}
