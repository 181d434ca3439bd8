package rsa

import (
	"github.com/coinbase/cb-hazmat-go/internal/bindings"
	"github.com/coinbase/cb-hazmat-go/pkg/hazmat"
)

// PrivateKeyFromHandle adopts a private key materialized by a foreign
// provider.
//
// UNSAFE: the caller guarantees h was issued by hazmat.NewRSAHandle and that
// nobody else adopts or frees it concurrently. Ownership of the foreign
// structure transfers to this call: the handle is dead afterwards and the
// structure is wiped once its numbers have been copied, on success and on
// failure. Validation follows FromPrivateNumbers.
func PrivateKeyFromHandle(h hazmat.Handle, v Validation) (*PrivateKey, error) {
	const op = "PrivateKeyFromHandle"
	foreign, err := bindings.TakeRSA(h)
	if err != nil {
		return nil, hazmat.Wrap(op, hazmat.ErrInvalidHandle, err)
	}
	defer foreign.Wipe()

	if !foreign.HasPrivate() {
		return nil, hazmat.Errorf(op, hazmat.ErrInvalidKey, "handle holds a public key")
	}
	return fromPrivateNumbers(op, PrivateNumbers{
		P:      foreign.P,
		Q:      foreign.Q,
		D:      foreign.D,
		DMP1:   foreign.DMP1,
		DMQ1:   foreign.DMQ1,
		IQMP:   foreign.IQMP,
		Public: PublicNumbers{E: foreign.E, N: foreign.N},
	}, v)
}

// PublicKeyFromHandle adopts a public key materialized by a foreign provider.
// A handle holding a private key yields its public half; the private
// components are wiped with the rest of the structure.
//
// UNSAFE: same contract as PrivateKeyFromHandle. Validation follows
// FromPublicNumbers and cannot be skipped.
func PublicKeyFromHandle(h hazmat.Handle) (*PublicKey, error) {
	const op = "PublicKeyFromHandle"
	foreign, err := bindings.TakeRSA(h)
	if err != nil {
		return nil, hazmat.Wrap(op, hazmat.ErrInvalidHandle, err)
	}
	defer foreign.Wipe()

	return fromPublicNumbers(op, PublicNumbers{E: foreign.E, N: foreign.N})
}
