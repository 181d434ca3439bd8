package bindings

import (
	"errors"
	"math/big"
)

// Handle is an opaque identifier for a key structure materialized outside of
// the Go API. Handles are never zero and are never reused within a process.
type Handle uintptr

// RSAKey mirrors the field layout of a native RSA structure. Public-only keys
// leave D, P, Q, DMP1, DMQ1 and IQMP nil.
type RSAKey struct {
	N, E             *big.Int
	D, P, Q          *big.Int
	DMP1, DMQ1, IQMP *big.Int
}

// HasPrivate reports whether any private component is populated.
func (k *RSAKey) HasPrivate() bool {
	return k.D != nil || k.P != nil || k.Q != nil ||
		k.DMP1 != nil || k.DMQ1 != nil || k.IQMP != nil
}

// Wipe overwrites every populated component with zero.
func (k *RSAKey) Wipe() {
	for _, v := range []*big.Int{k.N, k.E, k.D, k.P, k.Q, k.DMP1, k.DMQ1, k.IQMP} {
		if v == nil {
			continue
		}
		words := v.Bits()
		for i := range words {
			words[i] = 0
		}
		v.SetInt64(0)
	}
}

var (
	// ErrUnknownHandle reports a handle that was never issued, was already
	// taken, or was freed.
	ErrUnknownHandle = errors.New("hazmat/internal/bindings: unknown handle")

	// ErrWrongType reports a handle that refers to a different kind of
	// structure than the caller asked for.
	ErrWrongType = errors.New("hazmat/internal/bindings: handle refers to a different type")
)
