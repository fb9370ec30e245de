package l1wire

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

var (
	ErrEmpty          = errors.New("l1wire: empty message")
	ErrNoPayload      = errors.New("l1wire: envelope has no payload")
	ErrWireType       = errors.New("l1wire: unexpected wire type")
	ErrNilPayload     = errors.New("l1wire: cannot marshal envelope without payload")
	ErrIgnoredPayload = errors.New("l1wire: payload is not consumed by the pipeline")
)

// DecodeError reports where in the envelope decoding failed.
type DecodeError struct {
	Message string
	Field   protowire.Number
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Field == 0 {
		return fmt.Sprintf("l1wire: decode %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("l1wire: decode %s field %d: %v", e.Message, e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
