package oathtypes

import (
	"errors"
	"strings"
)

var (
	ErrUnknownAlgorithm = errors.New("oathtypes: unknown algorithm")
	ErrUnknownType      = errors.New("oathtypes: unknown oath type")
)

// Tag identifies a TLV field in OATH applet requests and responses.
type Tag byte

const (
	TagName              Tag = 0x71
	TagNameList          Tag = 0x72
	TagKey               Tag = 0x73
	TagChallenge         Tag = 0x74
	TagResponse          Tag = 0x75
	TagTruncatedResponse Tag = 0x76
	TagHOTP              Tag = 0x77
	TagProperty          Tag = 0x78
	TagIMF               Tag = 0x7a
	TagTouch             Tag = 0x7c
)

// Instruction is the INS byte of a command APDU.
//
// InsSelect and InsCalculateAll share the wire value 0xa4 on purpose: the
// applet tells them apart by the P1/P2 parameter bytes (0x04,0x00 for
// SELECT, 0x00,0x01 for CALCULATE ALL), not by the instruction byte.
type Instruction byte

const (
	InsPut           Instruction = 0x01
	InsDelete        Instruction = 0x02
	InsSetCode       Instruction = 0x03
	InsReset         Instruction = 0x04
	InsList          Instruction = 0xa1
	InsCalculate     Instruction = 0xa2
	InsValidate      Instruction = 0xa3
	InsSelect        Instruction = 0xa4
	InsCalculateAll  Instruction = 0xa4
	InsSendRemaining Instruction = 0xa5
)

// Algorithm selects the keyed-hash primitive the token uses to generate codes.
type Algorithm byte

const (
	AlgorithmSHA1   Algorithm = 0x01
	AlgorithmSHA256 Algorithm = 0x02
)

func (a Algorithm) Valid() bool {
	return a == AlgorithmSHA1 || a == AlgorithmSHA256
}

func (a Algorithm) String() string {
	switch a {
	case AlgorithmSHA1:
		return "SHA1"
	case AlgorithmSHA256:
		return "SHA256"
	default:
		return "Algorithm(unknown)"
	}
}

// ParseAlgorithm maps a textual algorithm name to its wire value.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToUpper(s) {
	case "SHA1":
		return AlgorithmSHA1, nil
	case "SHA256":
		return AlgorithmSHA256, nil
	default:
		return 0, ErrUnknownAlgorithm
	}
}

// Type discriminates counter-based from time-based credentials.
type Type byte

const (
	TypeHOTP Type = 0x10
	TypeTOTP Type = 0x20
)

func (t Type) Valid() bool {
	return t == TypeHOTP || t == TypeTOTP
}

func (t Type) String() string {
	switch t {
	case TypeHOTP:
		return "HOTP"
	case TypeTOTP:
		return "TOTP"
	default:
		return "Type(unknown)"
	}
}

// ParseType maps a textual oath type name to its wire value.
func ParseType(s string) (Type, error) {
	switch strings.ToUpper(s) {
	case "HOTP":
		return TypeHOTP, nil
	case "TOTP":
		return TypeTOTP, nil
	default:
		return 0, ErrUnknownType
	}
}

// Masks splitting the packed type/algorithm byte used by PUT, LIST and the
// key material of SET CODE: oath type in the high nibble, algorithm in the
// low nibble.
const (
	MaskAlgorithm byte = 0x0f
	MaskType      byte = 0xf0
)

// Property is a credential property flag carried by the PROPERTY field of PUT.
type Property byte

const (
	PropertyRequireTouch Property = 0x02
)
