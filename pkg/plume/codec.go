package plume

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyID      = errors.New("plume: record has no id")
	ErrAmbiguousID  = errors.New("plume: id contains the id joiner")
	ErrMalformedKey = errors.New("plume: malformed search key")
)

// KeyCodec is the contract between index keys and record ids.
//
// A key is the location parts, most general first, followed by the id token,
// all joined by Separator. Separator never appears inside a part. Inside the id
// token every Separator is replaced by IDJoiner, which is why an id may not
// contain IDJoiner itself.
type KeyCodec struct {
	Separator string
	IDJoiner  string
}

// DefaultCodec produces keys like "United States_Texas_Houston_EMIT-001".
var DefaultCodec = KeyCodec{Separator: "_", IDJoiner: "-"}

// Encode builds the search key for r.
func (c KeyCodec) Encode(r Record) (string, error) {
	if r.ID == "" {
		return "", ErrEmptyID
	}
	if strings.Contains(r.ID, c.IDJoiner) {
		return "", fmt.Errorf("%w: %q", ErrAmbiguousID, r.ID)
	}

	parts := c.locationParts(r.Location)
	parts = append(parts, strings.ReplaceAll(r.ID, c.Separator, c.IDJoiner))
	return strings.Join(parts, c.Separator), nil
}

// Decode recovers the record id from a key produced by Encode.
func (c KeyCodec) Decode(key string) (string, error) {
	i := strings.LastIndex(key, c.Separator)
	if i < 0 {
		return "", fmt.Errorf("%w: %q has no %q", ErrMalformedKey, key, c.Separator)
	}
	token := key[i+len(c.Separator):]
	if token == "" {
		return "", fmt.Errorf("%w: %q has an empty id", ErrMalformedKey, key)
	}
	return strings.ReplaceAll(token, c.IDJoiner, c.Separator), nil
}

// locationParts turns "City, State, Country" into [Country State City].
func (c KeyCodec) locationParts(location string) []string {
	var parts []string
	for _, p := range strings.Split(location, ",") {
		p = strings.Join(strings.Fields(strings.ReplaceAll(p, c.Separator, " ")), " ")
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return []string{Unknown}
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return parts
}
