package quotes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/marcus/quotes/internal/models"
)

// ErrMalformedImport is returned when an import payload is not a JSON array of
// well-formed records.
var ErrMalformedImport = errors.New("malformed import")

// Encode returns the compact snapshot form stored in the key-value slots.
// The same collection always encodes to the same bytes.
func Encode(c models.Collection) ([]byte, error) {
	if c == nil {
		c = models.Collection{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode collection: %w", err)
	}
	return data, nil
}

// EncodePretty returns the human-readable export form (2-space indent)
func EncodePretty(c models.Collection) ([]byte, error) {
	if c == nil {
		c = models.Collection{}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode collection: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a stored snapshot. It accepts whatever the slot holds as long
// as it is a JSON array of records.
func Decode(data []byte) (models.Collection, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("decode collection: top-level value is not an array")
	}
	var c models.Collection
	if err := json.Unmarshal(trimmed, &c); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	if c == nil {
		c = models.Collection{}
	}
	return c, nil
}

// DecodeImport parses a user-supplied import payload. Anything other than an
// array of records with non-empty text and category is ErrMalformedImport.
func DecodeImport(data []byte) (models.Collection, error) {
	c, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	out := make(models.Collection, 0, len(c))
	for i, r := range c {
		if !r.Valid() {
			return nil, fmt.Errorf("%w: record %d needs both text and category", ErrMalformedImport, i)
		}
		out = append(out, r.Normalize())
	}
	return out, nil
}
