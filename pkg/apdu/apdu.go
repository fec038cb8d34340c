// Package apdu frames command APDUs for a smart-card transport and
// reassembles responses that the card splits across multiple exchanges.
package apdu

import (
	"encoding/binary"
	"slices"

	"github.com/go-oath/oathcard/pkg/oathtypes"
)

// Transmitter is one open connection to a card. An *scard.Card satisfies it.
type Transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

// SW is the two-byte status word trailing every response APDU.
type SW uint16

const (
	SWSuccess        SW = 0x9000
	SWNoSpace        SW = 0x6a84
	SWCommandAborted SW = 0x6f00

	// swMoreData in the high byte means the card holds more response
	// bytes; the low byte is the count still buffered.
	swMoreData byte = 0x61
)

// HasMoreData reports whether the card buffered further response bytes that
// must be fetched with SEND REMAINING.
func (sw SW) HasMoreData() bool {
	return byte(sw>>8) == swMoreData
}

// Encode frames a short command APDU: CLA INS P1 P2 [Lc DATA].
func Encode(cla, ins, p1, p2 byte, data []byte) ([]byte, error) {
	if len(data) > 0xff {
		return nil, ErrPayloadTooLarge
	}

	cmd := []byte{cla, ins, p1, p2}
	if len(data) > 0 {
		cmd = append(cmd, byte(len(data)))
		cmd = append(cmd, data...)
	}

	return cmd, nil
}

// transmit performs a single exchange and splits the status word off the
// response data.
func transmit(tx Transmitter, cla, ins, p1, p2 byte, data []byte) ([]byte, SW, error) {
	cmd, err := Encode(cla, ins, p1, p2, data)
	if err != nil {
		return nil, 0, err
	}

	resp, err := tx.Transmit(cmd)
	if err != nil {
		return nil, 0, err
	}
	if len(resp) < 2 {
		return nil, 0, ErrResponseTooShort
	}

	sw := SW(binary.BigEndian.Uint16(resp[len(resp)-2:]))
	return resp[:len(resp)-2], sw, nil
}

// Send performs one logical exchange. While the card signals more data it
// keeps issuing zero-payload SEND REMAINING commands, appending each chunk
// in receipt order. This is reassembly of a single split response, never a
// retry. Any terminal status word other than success is returned as *Error
// carrying the accumulated data.
func Send(tx Transmitter, cla, ins, p1, p2 byte, data []byte) ([]byte, error) {
	resp, sw, err := transmit(tx, cla, ins, p1, p2, data)
	if err != nil {
		return nil, err
	}

	for sw.HasMoreData() {
		var more []byte
		more, sw, err = transmit(tx, 0x00, byte(oathtypes.InsSendRemaining), 0x00, 0x00, nil)
		if err != nil {
			return nil, err
		}
		resp = slices.Concat(resp, more)
	}

	if sw != SWSuccess {
		return nil, &Error{SW: sw, Data: resp}
	}

	return resp, nil
}
