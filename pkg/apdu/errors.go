package apdu

import (
	"errors"
	"fmt"
)

var (
	ErrPayloadTooLarge  = errors.New("apdu: payload exceeds short APDU data field")
	ErrResponseTooShort = errors.New("apdu: response shorter than a status word")
)

// Error is a terminal non-success status word from the card. It carries the
// raw response data accumulated before the failure.
type Error struct {
	SW   SW
	Data []byte
}

func (e *Error) Error() string {
	switch e.SW {
	case SWNoSpace:
		return "apdu: no space left on token"
	case SWCommandAborted:
		return "apdu: command aborted"
	default:
		return fmt.Sprintf("apdu: command failed (sw 0x%04x)", uint16(e.SW))
	}
}
