// Package pcsc opens a PC/SC connection to a security token and exposes it
// as an apdu.Transmitter for the OATH session layer.
package pcsc

import (
	"errors"
	"strings"

	"github.com/ebfe/scard"
	"github.com/samber/lo"
)

var ErrNoReader = errors.New("pcsc: no smart-card reader found")

// Card is one connected reader. It satisfies apdu.Transmitter.
type Card struct {
	Reader string

	ctx  *scard.Context
	card *scard.Card
}

// Connect establishes a PC/SC context and connects to a reader. A reader
// whose name mentions YubiKey is preferred, otherwise the first one wins.
func Connect() (*Card, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, err
	}

	readers, err := ctx.ListReaders()
	if err != nil || len(readers) == 0 {
		_ = ctx.Release()
		if err != nil {
			return nil, err
		}
		return nil, ErrNoReader
	}

	reader, ok := lo.Find(readers, func(r string) bool {
		return strings.Contains(strings.ToLower(r), "yubikey")
	})
	if !ok {
		reader = readers[0]
	}

	card, err := ctx.Connect(reader, scard.ShareShared, scard.ProtocolT0|scard.ProtocolT1)
	if err != nil {
		_ = ctx.Release()
		return nil, err
	}

	return &Card{Reader: reader, ctx: ctx, card: card}, nil
}

// Transmit performs a single raw APDU exchange.
func (c *Card) Transmit(cmd []byte) ([]byte, error) {
	return c.card.Transmit(cmd)
}

// Close disconnects from the card and releases the PC/SC context.
func (c *Card) Close() error {
	return errors.Join(
		c.card.Disconnect(scard.LeaveCard),
		c.ctx.Release(),
	)
}
