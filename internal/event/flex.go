package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// flexInt64 decodes a CDC integer field that may arrive as a JSON number or
// as a JSON string (both appear across the change-feed depending on the
// column's wire codec upstream).
type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("flexInt64: %w", err)
		}
		*f = flexInt64(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexInt64(n)
	return nil
}

func (f flexInt64) Int64() int64 { return int64(f) }

// flexInt32 is the int32 counterpart of flexInt64, used for reply/like
// counters that are small but still travel as either JSON type.
type flexInt32 int32

func (f *flexInt32) UnmarshalJSON(data []byte) error {
	var v flexInt64
	if err := v.UnmarshalJSON(data); err != nil {
		return err
	}
	*f = flexInt32(v)
	return nil
}

func (f flexInt32) Int32() int32 { return int32(f) }
