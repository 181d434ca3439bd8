package hazmat

import "github.com/coinbase/cb-hazmat-go/internal/bindings"

// Handle identifies a key structure that was materialized outside the Go API,
// for example by a hardware-backed provider living in the same process.
type Handle = bindings.Handle

// ForeignRSAKey is the structure a foreign provider hands over. Public-only
// keys leave the private components nil.
type ForeignRSAKey = bindings.RSAKey

// NewRSAHandle registers key with the handle table. Ownership of key moves to
// the table: the caller must not read or mutate it afterwards. The returned
// handle can be adopted exactly once by rsa.PrivateKeyFromHandle or
// rsa.PublicKeyFromHandle, or released with FreeHandle.
func NewRSAHandle(key *ForeignRSAKey) (Handle, error) {
	if key == nil {
		return 0, Errorf("NewRSAHandle", ErrInvalidHandle, "nil key")
	}
	return bindings.NewRSAHandle(key), nil
}

// FreeHandle releases a handle that will not be adopted, wiping the key
// material behind it.
func FreeHandle(h Handle) error {
	if err := bindings.Free(h); err != nil {
		return Wrap("FreeHandle", ErrInvalidHandle, err)
	}
	return nil
}
