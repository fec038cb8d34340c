// Package otp converts between the token's binary one-time-password
// material and the decimal codes shown to users.
package otp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

var ErrTruncatedLength = errors.New("otp: truncated response must be 4 bytes")

// totpPeriod is the time-step of the applet's TOTP implementation.
const totpPeriod = 30

// FormatCode renders a truncated dynamic binary code as a zero-padded
// decimal string of exactly digits characters.
func FormatCode(code uint32, digits int) string {
	mod := uint64(1)
	for range digits {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", digits, uint64(code)%mod)
}

// ParseTruncated reads the 4-byte big-endian dynamic binary code and clears
// the sign bit, per the OTP truncation step.
func ParseTruncated(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, ErrTruncatedLength
	}

	return binary.BigEndian.Uint32(b) & 0x7fffffff, nil
}

// TimeChallenge packs the 30-second window counter of t as the 8-byte
// big-endian challenge the applet expects for TOTP calculation.
func TimeChallenge(t time.Time) []byte {
	challenge := make([]byte, 8)
	binary.BigEndian.PutUint64(challenge, uint64(t.Unix()/totpPeriod))
	return challenge
}
