package rsa

import (
	"crypto"
	stdrsa "crypto/rsa"
	"math"
	"math/big"

	"github.com/coinbase/cb-hazmat-go/pkg/hazmat"
)

// Key size bounds, in bits.
const (
	MinimumKeySize     = 512
	RecommendedKeySize = 2048
	MaximumKeySize     = 16384
)

// PublicNumbers carries the raw integers of a public key. It is only used as
// constructor input and output; the package never mutates it.
type PublicNumbers struct {
	E *big.Int // public exponent
	N *big.Int // modulus
}

// PrivateNumbers carries the raw integers of a private key.
type PrivateNumbers struct {
	P, Q *big.Int // prime factors
	D    *big.Int // private exponent
	DMP1 *big.Int // d mod (p-1)
	DMQ1 *big.Int // d mod (q-1)
	IQMP *big.Int // q^-1 mod p

	Public PublicNumbers
}

// PublicKey is an immutable RSA public key.
type PublicKey struct {
	n *big.Int
	e *big.Int
}

// PrivateKey is an immutable RSA private key. It owns its numbers outright.
type PrivateKey struct {
	pub *PublicKey

	d, p, q          *big.Int
	dmp1, dmq1, iqmp *big.Int
}

func clone(x *big.Int) *big.Int {
	if x == nil {
		return nil
	}
	return new(big.Int).Set(x)
}

// N returns a copy of the modulus.
func (k *PublicKey) N() *big.Int { return clone(k.n) }

// E returns a copy of the public exponent.
func (k *PublicKey) E() *big.Int { return clone(k.e) }

// KeySize returns the bit length of the modulus.
func (k *PublicKey) KeySize() int { return k.n.BitLen() }

// PublicNumbers returns copies of the key's integers.
func (k *PublicKey) PublicNumbers() PublicNumbers {
	return PublicNumbers{E: clone(k.e), N: clone(k.n)}
}

// Equal reports whether x is a *PublicKey with the same modulus and exponent.
func (k *PublicKey) Equal(x crypto.PublicKey) bool {
	o, ok := x.(*PublicKey)
	if !ok || o == nil {
		return false
	}
	return k.n.Cmp(o.n) == 0 && k.e.Cmp(o.e) == 0
}

// CryptoPublicKey converts the key to the standard library type. It fails
// when the exponent does not fit in an int.
func (k *PublicKey) CryptoPublicKey() (*stdrsa.PublicKey, error) {
	if !k.e.IsInt64() || k.e.Int64() > math.MaxInt32 {
		return nil, hazmat.Errorf("CryptoPublicKey", hazmat.ErrInvalidExponent,
			"exponent of %d bits does not fit crypto/rsa", k.e.BitLen())
	}
	return &stdrsa.PublicKey{N: clone(k.n), E: int(k.e.Int64())}, nil
}

// Public returns the shared, read-only public view of the key.
func (k *PrivateKey) Public() *PublicKey { return k.pub }

// KeySize returns the bit length of the modulus.
func (k *PrivateKey) KeySize() int { return k.pub.KeySize() }

// PrivateNumbers returns deep copies of every integer in the key.
func (k *PrivateKey) PrivateNumbers() PrivateNumbers {
	return PrivateNumbers{
		P:      clone(k.p),
		Q:      clone(k.q),
		D:      clone(k.d),
		DMP1:   clone(k.dmp1),
		DMQ1:   clone(k.dmq1),
		IQMP:   clone(k.iqmp),
		Public: k.pub.PublicNumbers(),
	}
}

// Equal reports whether x is a *PrivateKey with identical numbers.
func (k *PrivateKey) Equal(x crypto.PrivateKey) bool {
	o, ok := x.(*PrivateKey)
	if !ok || o == nil {
		return false
	}
	return k.pub.Equal(o.pub) &&
		k.d.Cmp(o.d) == 0 && k.p.Cmp(o.p) == 0 && k.q.Cmp(o.q) == 0 &&
		k.dmp1.Cmp(o.dmp1) == 0 && k.dmq1.Cmp(o.dmq1) == 0 && k.iqmp.Cmp(o.iqmp) == 0
}

// CryptoPrivateKey converts the key to the standard library type, running
// crypto/rsa's own validation. Keys built with UnsafeSkipValidation may fail
// here.
func (k *PrivateKey) CryptoPrivateKey() (*stdrsa.PrivateKey, error) {
	pub, err := k.pub.CryptoPublicKey()
	if err != nil {
		return nil, err
	}
	priv := &stdrsa.PrivateKey{
		PublicKey: *pub,
		D:         clone(k.d),
		Primes:    []*big.Int{clone(k.p), clone(k.q)},
	}
	if err := priv.Validate(); err != nil {
		return nil, hazmat.Wrap("CryptoPrivateKey", hazmat.ErrInvalidKey, err)
	}
	priv.Precompute()
	return priv, nil
}

// Destroy wipes the private components. The key must not be used afterwards;
// the public view stays intact.
func (k *PrivateKey) Destroy() {
	for _, x := range []*big.Int{k.d, k.p, k.q, k.dmp1, k.dmq1, k.iqmp} {
		hazmat.ZeroizeInt(x)
	}
}
