package oathtypes

import (
	"fmt"
	"strings"
)

// HiddenPrefix marks a credential that should not show up in normal listings.
// This is a naming convention between clients, not a protocol feature.
const HiddenPrefix = "_hidden:"

// Credential is one provisioned OATH credential on the token. Code stays
// empty until a calculate operation has run for it.
type Credential struct {
	Name      string
	Code      string
	Type      Type
	Algorithm Algorithm
	Touch     bool
	Hidden    bool
}

// NewCredential builds a credential, deriving the Hidden flag from the name.
func NewCredential(name string, typ Type, algorithm Algorithm) *Credential {
	return &Credential{
		Name:      name,
		Type:      typ,
		Algorithm: algorithm,
		Hidden:    strings.HasPrefix(name, HiddenPrefix),
	}
}

// Version is the three-component version of the token's OATH applet,
// reported once at select time.
type Version struct {
	Major uint8
	Minor uint8
	Patch uint8
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// AtLeast reports whether v is the given version or newer.
func (v Version) AtLeast(major, minor, patch uint8) bool {
	if v.Major != major {
		return v.Major > major
	}
	if v.Minor != minor {
		return v.Minor > minor
	}
	return v.Patch >= patch
}
