package otp

import (
	"encoding/base32"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	libotp "github.com/pquerna/otp"

	"github.com/go-oath/oathcard/pkg/oathtypes"
)

var ErrUnsupportedPeriod = errors.New("otp: token only supports 30-second TOTP periods")

// Key is the provisioning material decoded from an otpauth:// URI, ready to
// be written to the token.
type Key struct {
	Name      string
	Secret    []byte
	Type      oathtypes.Type
	Algorithm oathtypes.Algorithm
	Digits    int
	Counter   uint32
}

// ParseKeyURI decodes an otpauth:// provisioning URI. The label becomes the
// credential name ("issuer:account" when an issuer is present). Algorithms
// and periods the applet cannot handle are rejected before any I/O.
func ParseKeyURI(uri string) (*Key, error) {
	k, err := libotp.NewKeyFromURL(uri)
	if err != nil {
		return nil, fmt.Errorf("otp: cannot parse key URI: %w", err)
	}

	typ, err := oathtypes.ParseType(k.Type())
	if err != nil {
		return nil, err
	}
	if typ == oathtypes.TypeTOTP && k.Period() != totpPeriod {
		return nil, ErrUnsupportedPeriod
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("otp: cannot parse key URI: %w", err)
	}
	query := u.Query()

	algorithm := oathtypes.AlgorithmSHA1
	if s := query.Get("algorithm"); s != "" {
		if algorithm, err = oathtypes.ParseAlgorithm(s); err != nil {
			return nil, err
		}
	}

	var counter uint32
	if s := query.Get("counter"); s != "" {
		c, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("otp: invalid counter %q: %w", s, err)
		}
		counter = uint32(c)
	}

	secret, err := base32.StdEncoding.WithPadding(base32.NoPadding).
		DecodeString(strings.ToUpper(strings.TrimRight(k.Secret(), "=")))
	if err != nil {
		return nil, fmt.Errorf("otp: invalid base32 secret: %w", err)
	}

	name := k.AccountName()
	if issuer := k.Issuer(); issuer != "" {
		name = issuer + ":" + name
	}

	digits := int(k.Digits())
	if digits == 0 {
		digits = 6
	}

	return &Key{
		Name:      name,
		Secret:    secret,
		Type:      typ,
		Algorithm: algorithm,
		Digits:    digits,
		Counter:   counter,
	}, nil
}
