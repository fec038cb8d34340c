// Package oath drives the OATH applet of a security token over an APDU
// transport: credential provisioning, enumeration, code calculation and the
// password handshake that unlocks a protected token.
package oath

import (
	"encoding/hex"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/samber/mo"

	"github.com/go-oath/oathcard/pkg/apdu"
	"github.com/go-oath/oathcard/pkg/oathtypes"
	"github.com/go-oath/oathcard/pkg/options"
	"github.com/go-oath/oathcard/pkg/tlv"
)

// AID is the application identifier of the OATH applet, sent with SELECT.
var AID = []byte{0xa0, 0x00, 0x00, 0x05, 0x27, 0x21, 0x01}

var ErrSelectResponse = errors.New("oath: malformed select response")

// Session is a stateful protocol controller bound to one card connection.
// It is not safe for concurrent use: the applet processes one command at a
// time and Select/Validate mutate session state.
type Session struct {
	tx     apdu.Transmitter
	logger *slog.Logger
	now    func() time.Time

	version   oathtypes.Version
	deviceID  []byte
	challenge mo.Option[[]byte]
}

// New opens a session by selecting the OATH applet on the given transport.
func New(tx apdu.Transmitter, opts ...options.Option) (*Session, error) {
	oo := options.NewOptions(opts...)

	s := &Session{
		tx:     tx,
		logger: oo.Logger,
		now:    oo.Clock,
	}
	if err := s.Select(); err != nil {
		return nil, err
	}

	return s, nil
}

// Version reports the applet version read at select time.
func (s *Session) Version() oathtypes.Version {
	return s.version
}

// DeviceID reports the opaque token identity read at select time. It doubles
// as the salt for password key derivation.
func (s *Session) DeviceID() []byte {
	return slices.Clone(s.deviceID)
}

// Locked reports whether the token demands password validation before
// credential operations will succeed. A locked session is unlocked with
// Validate; the applet itself enforces the lock, so skipping Validate
// surfaces as protocol errors on the other calls.
func (s *Session) Locked() bool {
	return s.challenge.IsPresent()
}

// Select (re-)reads the session state from the applet: its version, the
// device id, and the authentication challenge a password-protected token
// issues. Call it again after Reset.
func (s *Session) Select() error {
	resp, err := s.send(0x00, oathtypes.InsSelect, 0x04, 0x00, AID)
	if err != nil {
		return err
	}

	records, err := tlv.Parse(resp)
	if err != nil {
		return err
	}
	if len(records) < 2 || len(records[0].Value) != 3 {
		return ErrSelectResponse
	}

	s.version = oathtypes.Version{
		Major: records[0].Value[0],
		Minor: records[0].Value[1],
		Patch: records[0].Value[2],
	}
	s.deviceID = slices.Clone(records[1].Value)

	if len(records) > 2 {
		s.challenge = mo.Some(slices.Clone(records[2].Value))
	} else {
		s.challenge = mo.None[[]byte]()
	}

	return nil
}

// Reset wipes every credential and the password from the token. The 0xde/0xad
// parameter bytes are the confirmation the applet requires. Re-run Select
// afterwards, the session state is stale.
func (s *Session) Reset() error {
	_, err := s.send(0x00, oathtypes.InsReset, 0xde, 0xad, nil)
	return err
}

// send performs one logical exchange, including any 61xx continuation
// fetches, and logs payloads at debug level.
func (s *Session) send(cla byte, ins oathtypes.Instruction, p1, p2 byte, data []byte) ([]byte, error) {
	s.logger.Debug("apdu request",
		"ins", hex.EncodeToString([]byte{byte(ins)}),
		"p1", p1,
		"p2", p2,
		"hex", hex.EncodeToString(data),
	)

	resp, err := apdu.Send(s.tx, cla, byte(ins), p1, p2, data)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("apdu response", "hex", hex.EncodeToString(resp))

	return resp, nil
}
