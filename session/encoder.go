package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrRecordCorrupt is returned when a stored session blob cannot be decoded.
var ErrRecordCorrupt = errors.New("session record corrupt")

// ErrRecordTooLarge is returned when an encoded record exceeds the configured
// maximum size.
var ErrRecordTooLarge = errors.New("session record exceeds max encoded size")

// Encode serializes a [Record] for storage. maxSize caps the encoded byte
// length; zero disables the cap.
func Encode(r *Record, maxSize int) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}
	if maxSize > 0 && len(data) > maxSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrRecordTooLarge, len(data), maxSize)
	}
	return data, nil
}

// Decode deserializes a stored session blob. The SessionID field is not part
// of the encoded payload; callers set it from the key they fetched.
func Decode(data []byte) (*Record, error) {
	if len(data) == 0 {
		return nil, ErrRecordCorrupt
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}
	if r.PrincipalID == "" {
		return nil, fmt.Errorf("%w: missing principal id", ErrRecordCorrupt)
	}
	return &r, nil
}
