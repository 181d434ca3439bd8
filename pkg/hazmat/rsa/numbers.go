package rsa

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/coinbase/cb-hazmat-go/pkg/hazmat"
)

// Validation selects whether constructors check the supplied numbers.
type Validation int

const (
	// Validate checks every RSA invariant before accepting the numbers.
	Validate Validation = iota

	// UnsafeSkipValidation stores the numbers verbatim. Only nil components
	// are rejected. Use it solely for material whose consistency was already
	// established by a trusted authority.
	UnsafeSkipValidation
)

func (v Validation) String() string {
	switch v {
	case Validate:
		return "validate"
	case UnsafeSkipValidation:
		return "unsafe-skip-validation"
	default:
		return fmt.Sprintf("Validation(%d)", int(v))
	}
}

// InvalidKeyError lists every invariant a set of numbers broke. It matches
// hazmat.ErrInvalidKey under errors.Is.
type InvalidKeyError struct {
	Violations []string
}

func (e *InvalidKeyError) Error() string {
	return hazmat.ErrInvalidKey.Error() + ": " + strings.Join(e.Violations, "; ")
}

func (e *InvalidKeyError) Is(target error) bool {
	return target == hazmat.ErrInvalidKey
}

type checker struct {
	violations []string
}

func (c *checker) failf(format string, args ...any) {
	c.violations = append(c.violations, fmt.Sprintf(format, args...))
}

func (c *checker) err(op string) error {
	if len(c.violations) == 0 {
		return nil
	}
	recordValidationFailure(op)
	return &hazmat.Error{Op: op, Err: &InvalidKeyError{Violations: c.violations}}
}

var (
	bigOne   = big.NewInt(1)
	bigThree = big.NewInt(3)
)

// FromPublicNumbers builds a public key after checking modulus parity, size
// and exponent bounds.
func FromPublicNumbers(nums PublicNumbers) (*PublicKey, error) {
	return fromPublicNumbers("FromPublicNumbers", nums)
}

func fromPublicNumbers(op string, nums PublicNumbers) (*PublicKey, error) {
	var c checker
	if nums.N == nil || nums.E == nil {
		c.failf("modulus and public exponent are required")
		return nil, c.err(op)
	}
	checkPublic(&c, nums.N, nums.E)
	if err := c.err(op); err != nil {
		return nil, err
	}
	return &PublicKey{n: clone(nums.N), e: clone(nums.E)}, nil
}

func checkPublic(c *checker, n, e *big.Int) {
	if n.Cmp(bigThree) < 0 {
		c.failf("modulus must be >= 3")
	}
	if n.Bit(0) == 0 {
		c.failf("modulus must be odd")
	}
	if n.BitLen() < MinimumKeySize {
		c.failf("modulus is %d bits, minimum is %d", n.BitLen(), MinimumKeySize)
	}
	if e.Cmp(bigThree) < 0 {
		c.failf("public exponent must be >= 3")
	}
	if e.Cmp(n) >= 0 {
		c.failf("public exponent must be < modulus")
	}
	if e.Bit(0) == 0 {
		c.failf("public exponent must be odd")
	}
}

// FromPrivateNumbers builds a private key. With Validate every RSA invariant
// is checked and all violations are reported together. With
// UnsafeSkipValidation the numbers are copied verbatim.
func FromPrivateNumbers(nums PrivateNumbers, v Validation) (*PrivateKey, error) {
	return fromPrivateNumbers("FromPrivateNumbers", nums, v)
}

func fromPrivateNumbers(op string, nums PrivateNumbers, v Validation) (*PrivateKey, error) {
	var c checker
	for _, f := range []struct {
		name string
		x    *big.Int
	}{
		{"modulus", nums.Public.N},
		{"public exponent", nums.Public.E},
		{"p", nums.P},
		{"q", nums.Q},
		{"private exponent", nums.D},
		{"dmp1", nums.DMP1},
		{"dmq1", nums.DMQ1},
		{"iqmp", nums.IQMP},
	} {
		if f.x == nil {
			c.failf("%s is missing", f.name)
		}
	}
	if err := c.err(op); err != nil {
		return nil, err
	}

	switch v {
	case Validate:
		checkPrivate(&c, nums)
		if err := c.err(op); err != nil {
			return nil, err
		}
	case UnsafeSkipValidation:
	default:
		return nil, hazmat.Errorf(op, hazmat.ErrInvalidKey, "unknown validation mode %d", int(v))
	}

	return &PrivateKey{
		pub:  &PublicKey{n: clone(nums.Public.N), e: clone(nums.Public.E)},
		d:    clone(nums.D),
		p:    clone(nums.P),
		q:    clone(nums.Q),
		dmp1: clone(nums.DMP1),
		dmq1: clone(nums.DMQ1),
		iqmp: clone(nums.IQMP),
	}, nil
}

func checkPrivate(c *checker, nums PrivateNumbers) {
	n, e := nums.Public.N, nums.Public.E
	p, q, d := nums.P, nums.Q, nums.D

	positive := true
	for _, f := range []struct {
		name string
		x    *big.Int
	}{
		{"p", p}, {"q", q}, {"private exponent", d},
		{"dmp1", nums.DMP1}, {"dmq1", nums.DMQ1}, {"iqmp", nums.IQMP},
	} {
		if f.x.Sign() <= 0 {
			c.failf("%s must be positive", f.name)
			positive = false
			continue
		}
		if f.x.Cmp(n) >= 0 {
			c.failf("%s must be < modulus", f.name)
		}
	}

	if n.Cmp(bigThree) < 0 {
		c.failf("modulus must be >= 3")
	}
	if n.Bit(0) == 0 {
		c.failf("modulus must be odd")
	}
	if n.BitLen() < MinimumKeySize {
		c.failf("modulus is %d bits, minimum is %d", n.BitLen(), MinimumKeySize)
	}
	if e.Cmp(bigThree) < 0 {
		c.failf("public exponent must be >= 3")
	}
	if e.Cmp(n) >= 0 {
		c.failf("public exponent must be < modulus")
	}
	if e.Bit(0) == 0 {
		c.failf("public exponent must be odd")
	}
	if nums.DMP1.Bit(0) == 0 {
		c.failf("dmp1 must be odd")
	}
	if nums.DMQ1.Bit(0) == 0 {
		c.failf("dmq1 must be odd")
	}
	if new(big.Int).Mul(p, q).Cmp(n) != 0 {
		c.failf("p*q != modulus")
	}

	// The remaining checks do modular arithmetic on p-1 and q-1.
	if !positive || p.Cmp(bigOne) <= 0 || q.Cmp(bigOne) <= 0 {
		return
	}
	if !p.ProbablyPrime(20) {
		c.failf("p is not prime")
	}
	if !q.ProbablyPrime(20) {
		c.failf("q is not prime")
	}

	pm1 := new(big.Int).Sub(p, bigOne)
	qm1 := new(big.Int).Sub(q, bigOne)
	lambda := lcm(pm1, qm1)
	if new(big.Int).Mod(new(big.Int).Mul(e, d), lambda).Cmp(bigOne) != 0 {
		c.failf("e*d != 1 mod lcm(p-1, q-1)")
	}
	if new(big.Int).Mod(d, pm1).Cmp(nums.DMP1) != 0 {
		c.failf("dmp1 != d mod (p-1)")
	}
	if new(big.Int).Mod(d, qm1).Cmp(nums.DMQ1) != 0 {
		c.failf("dmq1 != d mod (q-1)")
	}
	if new(big.Int).Mod(new(big.Int).Mul(nums.IQMP, q), p).Cmp(bigOne) != 0 {
		c.failf("iqmp*q != 1 mod p")
	}
}

func lcm(a, b *big.Int) *big.Int {
	g := new(big.Int).GCD(nil, nil, a, b)
	l := new(big.Int).Div(a, g)
	return l.Mul(l, b)
}

func recordValidationFailure(op string) {
	instruments().validationFailures.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("op", op)))
}
