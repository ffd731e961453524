package codec

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedType = errors.New("unsupported record type")
	ErrNilRecord       = errors.New("nil record")
	ErrUnknownKind     = errors.New("unknown record kind")
	ErrShortBlob       = errors.New("blob shorter than header")
	ErrBadMagic        = errors.New("bad magic")
	ErrChecksum        = errors.New("checksum mismatch")
)

// SerializationError reports a record that could not be encoded or decoded.
type SerializationError struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *SerializationError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("codec: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("codec: %s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
