package oath

import (
	"encoding/binary"
	"errors"
	"iter"
	"slices"

	"github.com/samber/lo"

	"github.com/go-oath/oathcard/pkg/crypto"
	"github.com/go-oath/oathcard/pkg/oathtypes"
	"github.com/go-oath/oathcard/pkg/otp"
	"github.com/go-oath/oathcard/pkg/tlv"
)

var (
	ErrListResponse      = errors.New("oath: malformed list response")
	ErrCalculateResponse = errors.New("oath: malformed calculate response")
	ErrTouchUnsupported  = errors.New("oath: touch requires applet version 4.2.6 or later")
)

type putConfig struct {
	typ       oathtypes.Type
	algorithm oathtypes.Algorithm
	digits    int
	counter   uint32
	touch     bool
}

// PutOption overrides a default of Put: TOTP, SHA1, 6 digits, counter 0,
// no touch.
type PutOption func(*putConfig)

func WithType(typ oathtypes.Type) PutOption {
	return func(cfg *putConfig) {
		cfg.typ = typ
	}
}

func WithAlgorithm(algorithm oathtypes.Algorithm) PutOption {
	return func(cfg *putConfig) {
		cfg.algorithm = algorithm
	}
}

func WithDigits(digits int) PutOption {
	return func(cfg *putConfig) {
		cfg.digits = digits
	}
}

// WithCounter sets the initial HOTP counter.
func WithCounter(counter uint32) PutOption {
	return func(cfg *putConfig) {
		cfg.counter = counter
	}
}

// WithTouchRequired makes the token demand physical touch before it releases
// a code for this credential.
func WithTouchRequired() PutOption {
	return func(cfg *putConfig) {
		cfg.touch = true
	}
}

// Put stores a credential under name, overwriting any existing one. The raw
// secret is shortened locally per the HMAC key rule before it goes on the
// wire. Unknown types and algorithms fail before any I/O.
func (s *Session) Put(name string, key []byte, opts ...PutOption) error {
	cfg := putConfig{
		typ:       oathtypes.TypeTOTP,
		algorithm: oathtypes.AlgorithmSHA1,
		digits:    6,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if !cfg.typ.Valid() {
		return oathtypes.ErrUnknownType
	}
	if !cfg.algorithm.Valid() {
		return oathtypes.ErrUnknownAlgorithm
	}
	if cfg.touch && !s.version.AtLeast(4, 2, 6) {
		return ErrTouchUnsupported
	}

	shortened, err := crypto.ShortenKey(key, cfg.algorithm)
	if err != nil {
		return err
	}
	keyData := slices.Concat(
		[]byte{byte(cfg.typ) | byte(cfg.algorithm), byte(cfg.digits)},
		shortened,
	)

	data := slices.Concat(
		tlv.Put(byte(oathtypes.TagName), []byte(name)),
		tlv.Put(byte(oathtypes.TagKey), keyData),
	)

	// The property field is a raw tag/value byte pair, not a TLV record.
	if cfg.touch {
		data = append(data, byte(oathtypes.TagProperty), byte(oathtypes.PropertyRequireTouch))
	}

	if cfg.counter > 0 {
		imf := make([]byte, 4)
		binary.BigEndian.PutUint32(imf, cfg.counter)
		data = append(data, tlv.Put(byte(oathtypes.TagIMF), imf)...)
	}

	_, err = s.send(0x00, oathtypes.InsPut, 0x00, 0x00, data)
	return err
}

// PutURI provisions a credential from an otpauth:// URI. Extra options are
// applied after the ones derived from the URI, so they win.
func (s *Session) PutURI(uri string, opts ...PutOption) error {
	key, err := otp.ParseKeyURI(uri)
	if err != nil {
		return err
	}

	derived := []PutOption{
		WithType(key.Type),
		WithAlgorithm(key.Algorithm),
		WithDigits(key.Digits),
		WithCounter(key.Counter),
	}

	return s.Put(key.Name, key.Secret, slices.Concat(derived, opts)...)
}

// Delete discards the named credential permanently. Deleting an unknown name
// is reported by the token as a protocol error, not checked here.
func (s *Session) Delete(cred *oathtypes.Credential) error {
	data := tlv.Put(byte(oathtypes.TagName), []byte(cred.Name))
	_, err := s.send(0x00, oathtypes.InsDelete, 0x00, 0x00, data)
	return err
}

// List enumerates the stored credentials: name, type and algorithm only, no
// codes. The sequence decodes lazily from a single response buffer; it is
// finite and cannot be restarted.
func (s *Session) List() iter.Seq2[*oathtypes.Credential, error] {
	return func(yield func(*oathtypes.Credential, error) bool) {
		resp, err := s.send(0x00, oathtypes.InsList, 0x00, 0x00, nil)
		if err != nil {
			yield(nil, err)
			return
		}

		// Packed records: 1 length byte (covering the type byte and the
		// name), 1 type byte, then the name.
		for len(resp) > 0 {
			length := int(resp[0])
			if length < 1 || len(resp) < 1+length {
				yield(nil, ErrListResponse)
				return
			}

			typeByte := resp[1]
			typ := oathtypes.Type(typeByte & oathtypes.MaskType)
			algorithm := oathtypes.Algorithm(typeByte & oathtypes.MaskAlgorithm)
			if !typ.Valid() || !algorithm.Valid() {
				yield(nil, ErrListResponse)
				return
			}

			name := string(resp[2 : 1+length])
			resp = resp[1+length:]

			if !yield(oathtypes.NewCredential(name, typ, algorithm), nil) {
				return
			}
		}
	}
}

// Calculate asks the token for a code for one credential and fills in
// cred.Code. TOTP credentials get the current time window as challenge;
// HOTP credentials send an empty challenge so the token advances its stored
// counter.
func (s *Session) Calculate(cred *oathtypes.Credential) error {
	var challenge []byte
	if cred.Type == oathtypes.TypeTOTP {
		challenge = otp.TimeChallenge(s.now())
	}

	data := slices.Concat(
		tlv.Put(byte(oathtypes.TagName), []byte(cred.Name)),
		tlv.Put(byte(oathtypes.TagChallenge), challenge),
	)

	resp, err := s.send(0x00, oathtypes.InsCalculate, 0x00, 0x01, data)
	if err != nil {
		return err
	}

	records, err := tlv.Parse(resp)
	if err != nil {
		return err
	}
	if len(records) == 0 || len(records[0].Value) != 5 {
		return ErrCalculateResponse
	}

	digits := int(records[0].Value[0])
	code, err := otp.ParseTruncated(records[0].Value[1:])
	if err != nil {
		return err
	}

	cred.Code = otp.FormatCode(code, digits)
	return nil
}

// CalculateAll computes codes for every stored credential in one exchange,
// using the current time window as the shared challenge. TOTP entries come
// back with a formatted code; HOTP entries come back without one, since
// their counter-advancing calculation is only reachable through Calculate;
// touch-protected entries come back flagged Touch and without a code. The
// sequence is lazy, finite and not restartable.
func (s *Session) CalculateAll() iter.Seq2[*oathtypes.Credential, error] {
	return func(yield func(*oathtypes.Credential, error) bool) {
		data := tlv.Put(byte(oathtypes.TagChallenge), otp.TimeChallenge(s.now()))

		resp, err := s.send(0x00, oathtypes.InsCalculateAll, 0x00, 0x01, data)
		if err != nil {
			yield(nil, err)
			return
		}

		records, err := tlv.Parse(resp)
		if err != nil {
			yield(nil, err)
			return
		}

		for _, pair := range lo.Chunk(records, 2) {
			if len(pair) < 2 || oathtypes.Tag(pair[0].Tag) != oathtypes.TagName {
				yield(nil, ErrCalculateResponse)
				return
			}

			cred := oathtypes.NewCredential(string(pair[0].Value), 0, 0)

			switch oathtypes.Tag(pair[1].Tag) {
			case oathtypes.TagTruncatedResponse:
				if len(pair[1].Value) != 5 {
					yield(nil, ErrCalculateResponse)
					return
				}
				code, err := otp.ParseTruncated(pair[1].Value[1:])
				if err != nil {
					yield(nil, err)
					return
				}
				cred.Type = oathtypes.TypeTOTP
				cred.Code = otp.FormatCode(code, int(pair[1].Value[0]))
			case oathtypes.TagHOTP:
				cred.Type = oathtypes.TypeHOTP
			case oathtypes.TagTouch:
				cred.Touch = true
			default:
				yield(nil, ErrCalculateResponse)
				return
			}

			if !yield(cred, nil) {
				return
			}
		}
	}
}
