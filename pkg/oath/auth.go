package oath

import (
	"crypto/subtle"
	"errors"
	"slices"

	"github.com/samber/mo"

	"github.com/go-oath/oathcard/pkg/crypto"
	"github.com/go-oath/oathcard/pkg/oathtypes"
	"github.com/go-oath/oathcard/pkg/tlv"
)

var (
	ErrAuthentication   = errors.New("oath: token response does not match verification")
	ErrNotLocked        = errors.New("oath: session holds no authentication challenge")
	ErrValidateResponse = errors.New("oath: malformed validate response")
)

// SetPassword protects the token with a password. The derived key, a random
// challenge and its HMAC proof go in one SET CODE exchange, so setting the
// password and proving knowledge of it happen atomically.
func (s *Session) SetPassword(password string) error {
	key := crypto.DeriveKey(s.deviceID, password)
	keyData := slices.Concat(
		[]byte{byte(oathtypes.TypeTOTP) | byte(oathtypes.AlgorithmSHA1)},
		key,
	)

	challenge, err := crypto.NewChallenge()
	if err != nil {
		return err
	}
	response := crypto.Response(key, challenge)

	data := slices.Concat(
		tlv.Put(byte(oathtypes.TagKey), keyData),
		tlv.Put(byte(oathtypes.TagChallenge), challenge),
		tlv.Put(byte(oathtypes.TagResponse), response),
	)

	_, err = s.send(0x00, oathtypes.InsSetCode, 0x00, 0x00, data)
	return err
}

// ClearPassword removes password protection by sending an empty key.
func (s *Session) ClearPassword() error {
	_, err := s.send(0x00, oathtypes.InsSetCode, 0x00, 0x00,
		tlv.Put(byte(oathtypes.TagKey), nil))
	return err
}

// Validate unlocks a locked session. It answers the token's select-time
// challenge with an HMAC proof of the password, and sends a fresh local
// challenge the token must answer in turn: mutual authentication, so a
// token that does not hold the same key is rejected too. On success the
// stored challenge is cleared and the session is unlocked; on mismatch the
// session stays locked.
func (s *Session) Validate(password string) error {
	challenge, ok := s.challenge.Get()
	if !ok {
		return ErrNotLocked
	}

	key := crypto.DeriveKey(s.deviceID, password)
	response := crypto.Response(key, challenge)

	local, err := crypto.NewChallenge()
	if err != nil {
		return err
	}
	verification := crypto.Response(key, local)

	data := slices.Concat(
		tlv.Put(byte(oathtypes.TagResponse), response),
		tlv.Put(byte(oathtypes.TagChallenge), local),
	)

	resp, err := s.send(0x00, oathtypes.InsValidate, 0x00, 0x00, data)
	if err != nil {
		return err
	}

	records, err := tlv.Parse(resp)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return ErrValidateResponse
	}
	if subtle.ConstantTimeCompare(records[0].Value, verification) != 1 {
		return ErrAuthentication
	}

	s.challenge = mo.None[[]byte]()
	return nil
}
