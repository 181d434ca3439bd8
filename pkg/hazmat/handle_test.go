package hazmat

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRSAHandleRejectsNil(t *testing.T) {
	_, err := NewRSAHandle(nil)
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestFreeHandle(t *testing.T) {
	key := &ForeignRSAKey{N: big.NewInt(3233), E: big.NewInt(17)}
	h, err := NewRSAHandle(key)
	require.NoError(t, err)

	require.NoError(t, FreeHandle(h))
	assert.ErrorIs(t, FreeHandle(h), ErrInvalidHandle)
}
