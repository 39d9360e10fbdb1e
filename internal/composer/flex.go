package composer

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Legacy snapshots carried numeric fields as strings ("1", "102.5")
// because they came straight out of text inputs. These types decode
// either representation.

type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexInt(n)
		return nil
	}
	var fl float64
	if err := json.Unmarshal(data, &fl); err == nil {
		*f = flexInt(int64(fl))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		// keep default on malformed values, never reject the snapshot
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(n)
	return nil
}

func normalizeUpper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
