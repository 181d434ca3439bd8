package hazmat

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorfMatchesKind(t *testing.T) {
	err := Errorf("FromPublicNumbers", ErrInvalidKey, "modulus %s is even", "12")

	require.ErrorIs(t, err, ErrInvalidKey)
	assert.NotErrorIs(t, err, ErrMalformedEncoding)
	assert.Equal(t, "hazmat.FromPublicNumbers: invalid key: modulus 12 is even", err.Error())

	var herr *Error
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, "FromPublicNumbers", herr.Op)
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap("LoadDERRequest", ErrMalformedEncoding, io.ErrUnexpectedEOF)

	assert.ErrorIs(t, err, ErrMalformedEncoding)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Nil(t, Wrap("noop", ErrInvalidKey, nil))
}

func TestKindOf(t *testing.T) {
	for _, k := range kinds {
		assert.Equal(t, k, KindOf(Errorf("op", k, "x")))
	}
	assert.Nil(t, KindOf(io.EOF))
	assert.Nil(t, KindOf(nil))
}
