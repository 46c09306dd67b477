package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// TempIDPrefix marks identifiers generated locally before the server assigned one.
const TempIDPrefix = "tmp-"

// ID identifies a server entity on the wire. Server-assigned ids are integers and
// are encoded as JSON numbers; temporary ids are encoded as strings.
type ID string

func IDFromInt64(n int64) ID {
	return ID(strconv.FormatInt(n, 10))
}

// NewTempID returns a fresh placeholder identifier.
func NewTempID() ID {
	return ID(TempIDPrefix + uuid.NewString())
}

func (id ID) IsTemp() bool {
	return strings.HasPrefix(string(id), TempIDPrefix)
}

func (id ID) IsZero() bool {
	return id == ""
}

func (id ID) String() string {
	return string(id)
}

func (id ID) Int64() (int64, error) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id %q is not numeric: %w", string(id), err)
	}
	return n, nil
}

// JSONLiteral returns the id as it appears in an encoded body.
func (id ID) JSONLiteral() string {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return string(id)
	}
	return strconv.Quote(string(id))
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	return []byte(id.JSONLiteral()), nil
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}
