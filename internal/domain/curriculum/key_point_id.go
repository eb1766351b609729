package curriculum

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// KeyPointID is the canonical key point identifier used end-to-end.
// On the wire it accepts a JSON number or a numeric string; it always
// marshals as a number.
type KeyPointID int64

func ParseKeyPointID(s string) (KeyPointID, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid key point id %q", s)
	}
	return KeyPointID(n), nil
}

func (id KeyPointID) String() string { return strconv.FormatInt(int64(id), 10) }

func (id *KeyPointID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		parsed, err := ParseKeyPointID(s)
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid key point id %s", string(b))
	}
	if n <= 0 {
		return fmt.Errorf("invalid key point id %d", n)
	}
	*id = KeyPointID(n)
	return nil
}
