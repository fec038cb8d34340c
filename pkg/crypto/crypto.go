// Package crypto holds the symmetric primitives of the OATH password
// protocol: PBKDF2 key derivation salted with the device id, the HMAC key
// shortening rule applied before provisioning, and HMAC challenge responses.
package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"hash"

	"golang.org/x/crypto/pbkdf2"

	"github.com/go-oath/oathcard/pkg/oathtypes"
)

const (
	derivedKeyLen    = 16
	deriveIterations = 1000
	challengeLen     = 8
)

// NewHash returns the hash constructor for a wire algorithm value.
func NewHash(algorithm oathtypes.Algorithm) (func() hash.Hash, error) {
	switch algorithm {
	case oathtypes.AlgorithmSHA1:
		return sha1.New, nil
	case oathtypes.AlgorithmSHA256:
		return sha256.New, nil
	default:
		return nil, oathtypes.ErrUnknownAlgorithm
	}
}

// DeriveKey stretches a passphrase into the 16-byte session key, using the
// token's device id as salt.
func DeriveKey(deviceID []byte, passphrase string) []byte {
	return pbkdf2.Key([]byte(passphrase), deviceID, deriveIterations, derivedKeyLen, sha1.New)
}

// ShortenKey applies the HMAC key rule locally: a key longer than the hash
// block size is replaced by its digest, anything shorter passes through
// unchanged. The token never sees the original long key.
func ShortenKey(key []byte, algorithm oathtypes.Algorithm) ([]byte, error) {
	newHash, err := NewHash(algorithm)
	if err != nil {
		return nil, err
	}

	h := newHash()
	if len(key) <= h.BlockSize() {
		return key, nil
	}

	h.Write(key)
	return h.Sum(nil), nil
}

// Response computes the HMAC-SHA1 proof over a challenge.
func Response(key, challenge []byte) []byte {
	mac := hmac.New(sha1.New, key)
	mac.Write(challenge)
	return mac.Sum(nil)
}

// NewChallenge draws a fresh 8-byte random challenge.
func NewChallenge() ([]byte, error) {
	challenge := make([]byte, challengeLen)
	if _, err := rand.Read(challenge); err != nil {
		return nil, err
	}
	return challenge, nil
}
