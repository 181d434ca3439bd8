package hazmat

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidExponent indicates a public exponent that is even or below 3.
	ErrInvalidExponent = errors.New("invalid public exponent")

	// ErrInvalidKeySize indicates a requested key size outside the accepted range.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrInvalidKey indicates numerically inconsistent key material.
	ErrInvalidKey = errors.New("invalid key")

	// ErrMalformedEncoding indicates truncated or otherwise invalid DER.
	ErrMalformedEncoding = errors.New("malformed encoding")

	// ErrUnsupportedVersion indicates a structure version other than the one
	// recognized version.
	ErrUnsupportedVersion = errors.New("unsupported version")

	// ErrInvalidStructure indicates well-formed DER missing required content.
	ErrInvalidStructure = errors.New("invalid structure")

	// ErrInvalidHandle indicates a foreign handle that is unknown, already
	// adopted, or of the wrong type.
	ErrInvalidHandle = errors.New("invalid handle")

	// ErrVerification indicates a signature or responder chain that did not
	// verify against the supplied issuer.
	ErrVerification = errors.New("verification failed")
)

var kinds = []error{
	ErrInvalidExponent,
	ErrInvalidKeySize,
	ErrInvalidKey,
	ErrMalformedEncoding,
	ErrUnsupportedVersion,
	ErrInvalidStructure,
	ErrInvalidHandle,
	ErrVerification,
}

// Error wraps an underlying error with the operation that produced it.
type Error struct {
	Op  string // Operation that failed
	Err error  // Underlying error, matches one of the kind sentinels
}

func (e *Error) Error() string {
	return fmt.Sprintf("hazmat.%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates an *Error for op whose chain matches kind. It is exported for
// use by the subpackages.
func Errorf(op string, kind error, format string, args ...any) error {
	return &Error{
		Op:  op,
		Err: fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...)),
	}
}

// Wrap attaches op and kind to an existing error, keeping it in the chain.
func Wrap(op string, kind error, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: fmt.Errorf("%w: %w", kind, err)}
}

// KindOf returns the sentinel err matches, or nil when it matches none.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
