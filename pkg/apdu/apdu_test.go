package apdu

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedCard replays canned responses and records every command it saw.
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

func TestEncode(t *testing.T) {
	t.Run("header only", func(t *testing.T) {
		cmd, err := Encode(0x00, 0xa1, 0x00, 0x00, nil)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x00, 0xa1, 0x00, 0x00}, cmd)
	})

	t.Run("with data", func(t *testing.T) {
		cmd, err := Encode(0x00, 0x01, 0x02, 0x03, []byte{0xaa, 0xbb})
		require.NoError(t, err)
		assert.Equal(t, []byte{0x00, 0x01, 0x02, 0x03, 0x02, 0xaa, 0xbb}, cmd)
	})

	t.Run("payload too large", func(t *testing.T) {
		_, err := Encode(0x00, 0x01, 0x00, 0x00, bytes.Repeat([]byte{0x00}, 256))
		assert.ErrorIs(t, err, ErrPayloadTooLarge)
	})
}

func TestSendSuccess(t *testing.T) {
	card := &scriptedCard{responses: [][]byte{
		{0x01, 0x02, 0x03, 0x90, 0x00},
	}}

	resp, err := Send(card, 0x00, 0xa1, 0x00, 0x00, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, resp)
}

func TestSendContinuation(t *testing.T) {
	card := &scriptedCard{responses: [][]byte{
		{0x01, 0x02, 0x61, 0x04},
		{0x03, 0x04, 0x61, 0x02},
		{0x05, 0x06, 0x90, 0x00},
	}}

	resp, err := Send(card, 0x00, 0xa1, 0x00, 0x00, nil)
	require.NoError(t, err)

	// Chunks arrive appended in receipt order.
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}, resp)

	// Each continuation fetch is a zero-payload SEND REMAINING.
	require.Len(t, card.requests, 3)
	assert.Equal(t, []byte{0x00, 0xa5, 0x00, 0x00}, card.requests[1])
	assert.Equal(t, []byte{0x00, 0xa5, 0x00, 0x00}, card.requests[2])
}

func TestSendStatusError(t *testing.T) {
	card := &scriptedCard{responses: [][]byte{
		{0xde, 0xad, 0x6a, 0x84},
	}}

	_, err := Send(card, 0x00, 0x01, 0x00, 0x00, []byte{0x01})
	require.Error(t, err)

	var apduErr *Error
	require.ErrorAs(t, err, &apduErr)
	assert.Equal(t, SWNoSpace, apduErr.SW)
	assert.Equal(t, []byte{0xde, 0xad}, apduErr.Data)
	assert.Equal(t, "apdu: no space left on token", apduErr.Error())
}

func TestSendErrorAfterContinuation(t *testing.T) {
	card := &scriptedCard{responses: [][]byte{
		{0x01, 0x02, 0x61, 0x02},
		{0x6f, 0x00},
	}}

	_, err := Send(card, 0x00, 0xa1, 0x00, 0x00, nil)

	var apduErr *Error
	require.ErrorAs(t, err, &apduErr)
	assert.Equal(t, SWCommandAborted, apduErr.SW)
	assert.Equal(t, []byte{0x01, 0x02}, apduErr.Data)
}

func TestSendResponseTooShort(t *testing.T) {
	card := &scriptedCard{responses: [][]byte{{0x90}}}

	_, err := Send(card, 0x00, 0xa1, 0x00, 0x00, nil)
	assert.ErrorIs(t, err, ErrResponseTooShort)
}

func TestSendTransmitError(t *testing.T) {
	wantErr := errors.New("card removed")

	_, err := Send(failingCard{err: wantErr}, 0x00, 0xa1, 0x00, 0x00, nil)
	assert.ErrorIs(t, err, wantErr)
}

type failingCard struct {
	err error
}

func (c failingCard) Transmit([]byte) ([]byte, error) {
	return nil, c.err
}

func TestSWHasMoreData(t *testing.T) {
	assert.True(t, SW(0x6100).HasMoreData())
	assert.True(t, SW(0x61ff).HasMoreData())
	assert.False(t, SWSuccess.HasMoreData())
	assert.False(t, SWNoSpace.HasMoreData())
}
