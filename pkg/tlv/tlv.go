// Package tlv implements the tag-length-value encoding used by the OATH
// applet protocol: a single tag byte followed by a length in short form
// (one byte below 0x80) or long form (0x81 plus one byte, or 0x82 plus two
// big-endian bytes).
package tlv

import (
	"encoding/binary"
	"errors"
)

var (
	ErrTruncated = errors.New("tlv: truncated record")
	ErrLength    = errors.New("tlv: invalid length encoding")
)

// Record is one decoded tag-value pair.
type Record struct {
	Tag   byte
	Value []byte
}

// Put encodes a single record. Values longer than 65535 bytes are not
// representable; request payloads are bounded well below that by the short
// APDU data field.
func Put(tag byte, value []byte) []byte {
	n := len(value)

	var b []byte
	switch {
	case n < 0x80:
		b = append(b, tag, byte(n))
	case n < 0x100:
		b = append(b, tag, 0x81, byte(n))
	default:
		b = append(b, tag, 0x82, byte(n>>8), byte(n))
	}

	return append(b, value...)
}

// Parse decodes one or more concatenated records, in order.
func Parse(data []byte) ([]Record, error) {
	var records []Record

	for len(data) > 0 {
		if len(data) < 2 {
			return nil, ErrTruncated
		}

		tag := data[0]
		length := int(data[1])
		data = data[2:]

		switch length {
		case 0x81:
			if len(data) < 1 {
				return nil, ErrTruncated
			}
			length = int(data[0])
			data = data[1:]
		case 0x82:
			if len(data) < 2 {
				return nil, ErrTruncated
			}
			length = int(binary.BigEndian.Uint16(data))
			data = data[2:]
		default:
			if length > 0x80 {
				return nil, ErrLength
			}
		}

		if len(data) < length {
			return nil, ErrTruncated
		}

		records = append(records, Record{Tag: tag, Value: data[:length]})
		data = data[length:]
	}

	return records, nil
}
