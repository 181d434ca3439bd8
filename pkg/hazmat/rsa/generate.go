package rsa

import (
	"context"
	"crypto/rand"
	"io"
	"math/big"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/coinbase/cb-hazmat-go/pkg/hazmat"
	"github.com/coinbase/cb-hazmat-go/pkg/hazmat/logging"
)

// Generator draws RSA keys. The zero value is ready to use.
type Generator struct {
	// Random is the entropy source. Nil means crypto/rand.Reader. It must be
	// safe for concurrent use if the Generator is shared.
	Random io.Reader

	// Logger receives weak-key warnings. Nil means slog.Default().
	Logger logging.Logger

	// MinKeySize raises the accepted floor above MinimumKeySize.
	MinKeySize int
}

var defaultGenerator Generator

// GeneratePrivateKey generates a key with the default Generator.
func GeneratePrivateKey(ctx context.Context, publicExponent, keySize int) (*PrivateKey, error) {
	return defaultGenerator.Generate(ctx, publicExponent, keySize)
}

// CheckParameters reports whether publicExponent and keySize would be
// accepted by Generate. No randomness is consumed.
func (g *Generator) CheckParameters(publicExponent, keySize int) error {
	const op = "GeneratePrivateKey"
	if publicExponent < 3 || publicExponent%2 == 0 {
		return hazmat.Errorf(op, hazmat.ErrInvalidExponent, "public exponent %d must be odd and >= 3", publicExponent)
	}
	floor := MinimumKeySize
	if g.MinKeySize > floor {
		floor = g.MinKeySize
	}
	if keySize < floor || keySize > MaximumKeySize {
		return hazmat.Errorf(op, hazmat.ErrInvalidKeySize, "key size %d must be within [%d, %d]", keySize, floor, MaximumKeySize)
	}
	return nil
}

// Generate produces a private key whose modulus has exactly keySize bits.
// The parameters are checked before any entropy is read. p and q are drawn
// independently and redrawn when they collide or when e is not invertible
// modulo p-1 or q-1. The context is checked between draws.
func (g *Generator) Generate(ctx context.Context, publicExponent, keySize int) (*PrivateKey, error) {
	if err := g.CheckParameters(publicExponent, keySize); err != nil {
		return nil, err
	}

	logger := g.Logger
	if logger == nil {
		logger = logging.New(nil)
	}
	if keySize < RecommendedKeySize {
		logger.Warn(ctx, "generating RSA key below recommended size",
			"bits", keySize, "recommended", RecommendedKeySize)
	}

	random := g.Random
	if random == nil {
		random = rand.Reader
	}

	inst := instruments()
	attrs := metric.WithAttributes(attribute.Int("bits", keySize))

	e := big.NewInt(int64(publicExponent))
	pBits := (keySize + 1) / 2
	qBits := keySize - pBits

	for attempts := 1; ; attempts++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		inst.generateAttempts.Add(ctx, 1, attrs)

		p, err := rand.Prime(random, pBits)
		if err != nil {
			return nil, err
		}
		q, err := rand.Prime(random, qBits)
		if err != nil {
			return nil, err
		}
		if p.Cmp(q) == 0 {
			continue
		}
		if p.Cmp(q) < 0 {
			p, q = q, p
		}

		key, ok := assemble(e, p, q, keySize)
		if !ok {
			continue
		}

		inst.keysGenerated.Add(ctx, 1, attrs)
		logger.Debug(ctx, "generated RSA key",
			"bits", keySize, "e", publicExponent, "attempts", attempts,
			logging.Redacted("p"), logging.Redacted("q"))
		return key, nil
	}
}

// assemble derives the remaining numbers from e, p and q. It reports false
// when the pair is unusable and must be redrawn.
func assemble(e, p, q *big.Int, keySize int) (*PrivateKey, bool) {
	n := new(big.Int).Mul(p, q)
	if n.BitLen() != keySize {
		return nil, false
	}

	pm1 := new(big.Int).Sub(p, bigOne)
	qm1 := new(big.Int).Sub(q, bigOne)
	gcd := new(big.Int)
	if gcd.GCD(nil, nil, e, pm1).Cmp(bigOne) != 0 || gcd.GCD(nil, nil, e, qm1).Cmp(bigOne) != 0 {
		return nil, false
	}

	d := new(big.Int).ModInverse(e, lcm(pm1, qm1))
	if d == nil {
		return nil, false
	}
	iqmp := new(big.Int).ModInverse(q, p)
	if iqmp == nil {
		return nil, false
	}

	return &PrivateKey{
		pub:  &PublicKey{n: n, e: clone(e)},
		d:    d,
		p:    p,
		q:    q,
		dmp1: new(big.Int).Mod(d, pm1),
		dmq1: new(big.Int).Mod(d, qm1),
		iqmp: iqmp,
	}, true
}
