package rsa

import (
	"math/big"

	"github.com/coinbase/cb-hazmat-go/pkg/hazmat"
)

// maxRecoveryAttempts bounds the witness search in RecoverPrimeFactors.
const maxRecoveryAttempts = 1000

// CRTIQMP returns q^-1 mod p.
func CRTIQMP(p, q *big.Int) (*big.Int, error) {
	if p == nil || q == nil || p.Sign() <= 0 || q.Sign() <= 0 {
		return nil, hazmat.Errorf("CRTIQMP", hazmat.ErrInvalidKey, "p and q must be positive")
	}
	iqmp := new(big.Int).ModInverse(q, p)
	if iqmp == nil {
		return nil, hazmat.Errorf("CRTIQMP", hazmat.ErrInvalidKey, "q is not invertible mod p")
	}
	return iqmp, nil
}

// CRTDMP1 returns d mod (p-1).
func CRTDMP1(d, p *big.Int) (*big.Int, error) {
	return crtExponent("CRTDMP1", d, p)
}

// CRTDMQ1 returns d mod (q-1).
func CRTDMQ1(d, q *big.Int) (*big.Int, error) {
	return crtExponent("CRTDMQ1", d, q)
}

func crtExponent(op string, d, prime *big.Int) (*big.Int, error) {
	if d == nil || prime == nil || prime.Cmp(bigOne) <= 0 {
		return nil, hazmat.Errorf(op, hazmat.ErrInvalidKey, "prime must be > 1")
	}
	return new(big.Int).Mod(d, new(big.Int).Sub(prime, bigOne)), nil
}

// RecoverPrimeFactors computes (p, q) from (n, e, d), with p > q. It uses
// the probabilistic square-root-of-one search from NIST SP 800-56B C.2 and
// fails with hazmat.ErrInvalidKey when no factor is found.
func RecoverPrimeFactors(n, e, d *big.Int) (p, q *big.Int, err error) {
	const op = "RecoverPrimeFactors"
	if n == nil || e == nil || d == nil || n.Cmp(bigThree) < 0 || e.Sign() <= 0 || d.Sign() <= 0 {
		return nil, nil, hazmat.Errorf(op, hazmat.ErrInvalidKey, "n, e and d must be positive and n >= 3")
	}

	// ktot = d*e - 1 is a multiple of lcm(p-1, q-1). Write it as t * 2^s.
	ktot := new(big.Int).Mul(d, e)
	ktot.Sub(ktot, bigOne)
	if ktot.Sign() == 0 {
		return nil, nil, hazmat.Errorf(op, hazmat.ErrInvalidKey, "d*e must be > 1")
	}
	t := new(big.Int).Rsh(ktot, ktot.TrailingZeroBits())

	nm1 := new(big.Int).Sub(n, bigOne)
	two := big.NewInt(2)
	cand := new(big.Int)
	sq := new(big.Int)

	for a := int64(2); a < maxRecoveryAttempts; a += 2 {
		base := big.NewInt(a)
		for k := new(big.Int).Set(t); k.Cmp(ktot) < 0; k.Lsh(k, 1) {
			cand.Exp(base, k, n)
			if cand.Cmp(bigOne) == 0 || cand.Cmp(nm1) == 0 {
				continue
			}
			if sq.Exp(cand, two, n).Cmp(bigOne) != 0 {
				continue
			}
			p = new(big.Int).GCD(nil, nil, new(big.Int).Add(cand, bigOne), n)
			other, r := new(big.Int).QuoRem(n, p, new(big.Int))
			if r.Sign() != 0 || p.Cmp(bigOne) == 0 || other.Cmp(bigOne) == 0 {
				continue
			}
			if p.Cmp(other) < 0 {
				return other, p, nil
			}
			return p, other, nil
		}
	}
	return nil, nil, hazmat.Errorf(op, hazmat.ErrInvalidKey, "unable to compute factors p and q from exponent d")
}
