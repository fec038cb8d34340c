package oath

import (
	"slices"

	"github.com/go-oath/oathcard/pkg/tlv"
)

var (
	testVersion  = []byte{0x04, 0x03, 0x01}
	testDeviceID = []byte{0xd0, 0xd1, 0xd2, 0xd3, 0xd4, 0xd5, 0xd6, 0xd7}
)

// fakeCard scripts card behavior per command and records every request.
// The handler returns the full response including the status word.
type fakeCard struct {
	requests [][]byte
	handler  func(cmd []byte) []byte
}

func (c *fakeCard) Transmit(cmd []byte) ([]byte, error) {
	c.requests = append(c.requests, cmd)
	return c.handler(cmd), nil
}

// payload strips the command header and Lc byte.
func payload(cmd []byte) []byte {
	if len(cmd) <= 4 {
		return nil
	}
	return cmd[5:]
}

func withSW(data []byte, sw uint16) []byte {
	return append(slices.Clone(data), byte(sw>>8), byte(sw))
}

// selectResponse builds the applet's select payload; a nil challenge means
// the token is not password protected.
func selectResponse(challenge []byte) []byte {
	resp := slices.Concat(
		tlv.Put(0x79, testVersion),
		tlv.Put(0x71, testDeviceID),
	)
	if challenge != nil {
		resp = append(resp, tlv.Put(0x74, challenge)...)
	}
	return withSW(resp, 0x9000)
}

// scriptedCard replays canned responses in order.
type scriptedCard struct {
	requests  [][]byte
	responses [][]byte
}

func (c *scriptedCard) Transmit(cmd []byte) ([]byte, error) {
	c.requests = append(c.requests, cmd)

	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

// newTestSession connects a session to a fake card that answers the initial
// select and then delegates to handle.
func newTestSession(handle func(cmd []byte) []byte) (*Session, *fakeCard, error) {
	card := &fakeCard{}
	card.handler = func(cmd []byte) []byte {
		if len(card.requests) == 1 {
			return selectResponse(nil)
		}
		return handle(cmd)
	}

	s, err := New(card)
	return s, card, err
}
