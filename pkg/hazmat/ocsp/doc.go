// Package ocsp decodes DER OCSP requests and the OID-tagged extensions found
// in OCSP requests and responses.
//
// # Requests
//
// LoadDERRequest parses an OCSPRequest (RFC 6960 section 4.1.1) in a single
// pass. It either returns a fully populated, immutable *Request or an error;
// partial objects are never returned. The input buffer is not retained.
// Failures carry one of three kinds from the hazmat package:
//
//   - hazmat.ErrMalformedEncoding: truncated DER, bad tags, trailing data
//   - hazmat.ErrUnsupportedVersion: a version other than v1
//   - hazmat.ErrInvalidStructure: an empty request list, duplicate extension
//     OIDs, or a CertID hash algorithm outside SHA-1/SHA-2
//
// RequestBuilder produces DER that LoadDERRequest and
// golang.org/x/crypto/ocsp both accept.
//
// # Extensions
//
// Extension values form a closed set. Every value implements ExtensionValue,
// which cannot be implemented outside this package, so a type switch over
// the variants below is exhaustive:
//
//	Nonce                        request and response scope
//	AcceptableResponses          request scope
//	SignedCertificateTimestamps  single-response scope
//	CRLReason                    single-response scope
//	InvalidityDate               single-response scope
//	ArchiveCutoff                single-response scope
//	UnrecognizedExtension        any OID not known at the given scope
//
// The scopes are kept apart on purpose: an OID is only recognized where RFC
// 6960 allows it. Anywhere else it decodes to UnrecognizedExtension, which
// carries the extension value byte-for-byte. OIDs with arcs too wide for
// asn1.ObjectIdentifier, such as 2.25 UUID OIDs, are unrecognized as well;
// their content octets are kept in RawOID.
//
// # Responses
//
// ParseResponse and ParseResponseForCert wrap golang.org/x/crypto/ocsp. They
// additionally verify an embedded responder certificate against the issuer
// and decode single-response and response-level extensions into the same
// typed values. Signatures are checked here rather than inside x/crypto:
// a bad response or responder signature, or a rejected responder chain,
// yields hazmat.ErrVerification, undecodable DER yields
// hazmat.ErrMalformedEncoding, and an OCSP error status yields
// hazmat.ErrInvalidStructure.
package ocsp
