package hazmat

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZeroizeBytes(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	ZeroizeBytes(buf)
	assert.Equal(t, []byte{0, 0, 0, 0}, buf)
}

func TestZeroizeInt(t *testing.T) {
	x, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	assert.True(t, ok)
	words := x.Bits()

	ZeroizeInt(x)

	assert.Zero(t, x.Sign())
	for i, w := range words {
		assert.Zerof(t, w, "word %d not wiped", i)
	}
	ZeroizeInt(nil)
}
