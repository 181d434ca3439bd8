// Package hazmat is the root of a low-level RSA and OCSP toolkit. It carries
// the shared error taxonomy, the foreign-handle interop surface and the
// configuration used by the command-line tool.
//
// The interesting code lives in the subpackages:
//
//   - rsa: key generation, reconstruction from numbers, validation and
//     adoption of foreign key handles
//   - ocsp: DER OCSP request decoding and typed extension parsing
//   - logging: a small slog-backed logger facade
//
// Everything here is hazardous material: the APIs trust callers to pick sane
// parameters and to respect the documented unsafe contracts.
package hazmat
