// Package rsa is the RSA key engine: generation, reconstruction from raw
// numbers, validation, and adoption of keys materialized by a foreign
// provider.
//
// # Key Objects
//
// PrivateKey and PublicKey are immutable. Accessors return copies, and a
// private key's Public() view is shared and read-only. Keys are created by:
//
//   - GeneratePrivateKey / Generator.Generate: fresh random primes
//   - FromPrivateNumbers / FromPublicNumbers: externally supplied integers
//   - PrivateKeyFromHandle / PublicKeyFromHandle: foreign handles
//
// # Validation
//
// Validation is opt-out. FromPrivateNumbers with Validate recomputes n = p*q,
// checks e*d = 1 mod lcm(p-1, q-1), checks every CRT coefficient and the
// minimum key size, and reports all broken invariants at once in an
// *InvalidKeyError (which matches hazmat.ErrInvalidKey).
//
// UnsafeSkipValidation stores the numbers verbatim. It exists for keys whose
// provenance was already established elsewhere, such as hardware-backed keys.
// Any misbehavior of a key built this way is a precondition violation by the
// caller.
//
// # Key Sizes
//
//   - MinimumKeySize (512): the insecure-but-permitted floor
//   - RecommendedKeySize (2048): generation below this logs a warning
//   - MaximumKeySize (16384): sanity ceiling for generation
//
// # Foreign Handles
//
// PrivateKeyFromHandle and PublicKeyFromHandle are UNSAFE by contract: the
// caller guarantees the handle came from hazmat.NewRSAHandle and is not
// adopted concurrently by anyone else. Adoption transfers ownership of the
// foreign structure to the new key; the structure is wiped after its numbers
// are copied, whether or not validation succeeds.
//
// # Concurrency
//
// All functions are safe for concurrent use. The only shared resource is the
// entropy source, crypto/rand.Reader by default, which is internally
// synchronized. Generation has no upper time bound; cancel the context to
// abandon it.
//
// # Usage
//
//	key, err := rsa.GeneratePrivateKey(ctx, 65537, 2048)
//	if err != nil {
//	    return err
//	}
//	defer key.Destroy()
//
//	nums := key.PrivateNumbers()
//	same, err := rsa.FromPrivateNumbers(nums, rsa.Validate)
package rsa
