// Package bindings holds the table that stands in for a foreign cryptographic
// library's object store. Foreign code registers a materialized structure and
// receives a Handle; the public API later adopts the structure by taking it
// out of the table, at which point ownership moves to the adopter.
package bindings

import (
	"sync"
)

var (
	mu   sync.Mutex
	next Handle = 1
	reg         = map[Handle]any{}
)

func put(v any) Handle {
	mu.Lock()
	h := next
	next++
	reg[h] = v
	mu.Unlock()
	return h
}

func take(h Handle) (any, bool) {
	mu.Lock()
	defer mu.Unlock()
	v, ok := reg[h]
	if ok {
		delete(reg, h)
	}
	return v, ok
}

// NewRSAHandle registers key and returns its handle. The table keeps the
// pointer; callers must not mutate key after registering it.
func NewRSAHandle(key *RSAKey) Handle {
	return put(key)
}

// TakeRSA removes the structure behind h from the table and returns it.
// After a successful call the handle is dead and the caller owns the key.
func TakeRSA(h Handle) (*RSAKey, error) {
	if h == 0 {
		return nil, ErrUnknownHandle
	}
	mu.Lock()
	defer mu.Unlock()
	v, ok := reg[h]
	if !ok {
		return nil, ErrUnknownHandle
	}
	key, ok := v.(*RSAKey)
	if !ok || key == nil {
		return nil, ErrWrongType
	}
	delete(reg, h)
	return key, nil
}

// Free drops the structure behind h, wiping RSA material if present.
func Free(h Handle) error {
	v, ok := take(h)
	if !ok {
		return ErrUnknownHandle
	}
	if key, ok := v.(*RSAKey); ok && key != nil {
		key.Wipe()
	}
	return nil
}

// Len returns the number of live handles.
func Len() int {
	mu.Lock()
	defer mu.Unlock()
	return len(reg)
}
