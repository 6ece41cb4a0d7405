package domain

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Payload is the opaque key/value data supplied by a submitter. The engine
// never inspects its contents beyond computing the content identifier, so
// no schema is imposed here.
type Payload map[string]any

// Canonical returns a deterministic JSON serialization of the payload.
// encoding/json sorts map keys at every nesting level, so two payloads with
// the same fields in a different order serialize identically.
func (p Payload) Canonical() ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("%w: payload is not JSON-serializable: %v", ErrInvalidFormat, err)
	}
	return b, nil
}

// Identifier computes the stable content identifier for the payload: the
// hex MD5 digest of its canonical serialization. MD5 is used as a content
// fingerprint for duplicate detection, not for any security purpose.
func (p Payload) Identifier() (string, error) {
	if len(p) == 0 {
		return "", NewValidationError("payload", "cannot be empty", ErrEmptyPayload)
	}

	b, err := p.Canonical()
	if err != nil {
		return "", err
	}

	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:]), nil
}
