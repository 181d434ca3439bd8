package ocsp

import (
	"bytes"
	"context"
	"crypto"
	"encoding/asn1"
	"math/big"
	"slices"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/coinbase/cb-hazmat-go/pkg/hazmat"
)

// Version1 is the only OCSP protocol version.
const Version1 = 0

var (
	tagExplicit0 = cbasn1.Tag(0).Constructed().ContextSpecific()
	tagExplicit1 = cbasn1.Tag(1).Constructed().ContextSpecific()
	tagExplicit2 = cbasn1.Tag(2).Constructed().ContextSpecific()
)

// CertID identifies the certificate whose status is requested.
type CertID struct {
	HashAlgorithm  crypto.Hash
	IssuerNameHash []byte
	IssuerKeyHash  []byte
	SerialNumber   *big.Int
}

// Equal reports whether both IDs name the same certificate with the same
// hash algorithm.
func (c CertID) Equal(o CertID) bool {
	return c.HashAlgorithm == o.HashAlgorithm &&
		bytes.Equal(c.IssuerNameHash, o.IssuerNameHash) &&
		bytes.Equal(c.IssuerKeyHash, o.IssuerKeyHash) &&
		equalSerial(c.SerialNumber, o.SerialNumber)
}

func equalSerial(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
}

func (c CertID) clone() CertID {
	out := CertID{
		HashAlgorithm:  c.HashAlgorithm,
		IssuerNameHash: bytes.Clone(c.IssuerNameHash),
		IssuerKeyHash:  bytes.Clone(c.IssuerKeyHash),
	}
	if c.SerialNumber != nil {
		out.SerialNumber = new(big.Int).Set(c.SerialNumber)
	}
	return out
}

// SingleRequest is one entry of the request list.
type SingleRequest struct {
	CertID     CertID
	Extensions []Extension
}

func (s SingleRequest) clone() SingleRequest {
	return SingleRequest{CertID: s.CertID.clone(), Extensions: cloneExtensions(s.Extensions)}
}

// Signature is the optionalSignature of a signed request. Certificates holds
// the DER of each certificate in the optional chain.
type Signature struct {
	Algorithm    asn1.ObjectIdentifier
	Value        []byte
	Certificates [][]byte
}

func (s *Signature) clone() *Signature {
	if s == nil {
		return nil
	}
	out := &Signature{Algorithm: slices.Clone(s.Algorithm), Value: bytes.Clone(s.Value)}
	for _, c := range s.Certificates {
		out.Certificates = append(out.Certificates, bytes.Clone(c))
	}
	return out
}

// Request is a decoded OCSP request. It is immutable: accessors return
// copies.
type Request struct {
	version       int
	requestorName []byte
	requests      []SingleRequest
	extensions    []Extension
	signature     *Signature
	raw           []byte
}

// Version returns the protocol version, always Version1.
func (r *Request) Version() int { return r.version }

// RequestorName returns the DER of the requestorName GeneralName, or nil.
func (r *Request) RequestorName() []byte { return bytes.Clone(r.requestorName) }

// SingleRequests returns the request list.
func (r *Request) SingleRequests() []SingleRequest {
	out := make([]SingleRequest, len(r.requests))
	for i, s := range r.requests {
		out[i] = s.clone()
	}
	return out
}

// CertIDs returns the certificate ID of every single request, in order.
func (r *Request) CertIDs() []CertID {
	out := make([]CertID, len(r.requests))
	for i, s := range r.requests {
		out[i] = s.CertID.clone()
	}
	return out
}

// Extensions returns the request-level extensions.
func (r *Request) Extensions() []Extension { return cloneExtensions(r.extensions) }

// Extension returns the request-level extension with the given OID.
func (r *Request) Extension(oid asn1.ObjectIdentifier) (Extension, bool) {
	return findExtension(r.extensions, oid)
}

// Nonce returns the request nonce, if present.
func (r *Request) Nonce() (Nonce, bool) {
	ext, ok := findExtension(r.extensions, OIDNonce)
	if !ok {
		return nil, false
	}
	n, ok := ext.Value.(Nonce)
	return n, ok
}

// IsSigned reports whether the request carries an optionalSignature.
func (r *Request) IsSigned() bool { return r.signature != nil }

// Signature returns the optionalSignature, or nil for unsigned requests. The
// signature is not verified.
func (r *Request) Signature() *Signature { return r.signature.clone() }

// MarshalDER returns the DER the request was decoded from.
func (r *Request) MarshalDER() []byte { return bytes.Clone(r.raw) }

// LoadDERRequest decodes a DER OCSPRequest.
func LoadDERRequest(der []byte) (*Request, error) {
	const op = "LoadDERRequest"
	req, err := parseRequest(op, der)
	if err != nil {
		return nil, fail(op, err)
	}
	instruments().requestsDecoded.Add(context.Background(), 1)
	return req, nil
}

func malformed(op, what string) error {
	return hazmat.Errorf(op, hazmat.ErrMalformedEncoding, "invalid %s", what)
}

func parseRequest(op string, der []byte) (*Request, error) {
	input := cryptobyte.String(der)
	var outer, tbs cryptobyte.String
	if !input.ReadASN1(&outer, cbasn1.SEQUENCE) {
		return nil, malformed(op, "OCSPRequest")
	}
	if !input.Empty() {
		return nil, hazmat.Errorf(op, hazmat.ErrMalformedEncoding, "trailing data after OCSPRequest")
	}
	if !outer.ReadASN1(&tbs, cbasn1.SEQUENCE) {
		return nil, malformed(op, "tbsRequest")
	}

	req := &Request{raw: bytes.Clone(der)}

	var versionBody cryptobyte.String
	var hasVersion bool
	if !tbs.ReadOptionalASN1(&versionBody, &hasVersion, tagExplicit0) {
		return nil, malformed(op, "version")
	}
	if hasVersion {
		var v int64
		if !versionBody.ReadASN1Integer(&v) || !versionBody.Empty() {
			return nil, malformed(op, "version")
		}
		if v != Version1 {
			return nil, hazmat.Errorf(op, hazmat.ErrUnsupportedVersion, "version %d", v)
		}
	}
	req.version = Version1

	var requestor cryptobyte.String
	var hasRequestor bool
	if !tbs.ReadOptionalASN1(&requestor, &hasRequestor, tagExplicit1) {
		return nil, malformed(op, "requestorName")
	}
	if hasRequestor {
		if len(requestor) == 0 {
			return nil, malformed(op, "requestorName")
		}
		req.requestorName = bytes.Clone(requestor)
	}

	if tbs.Empty() {
		return nil, hazmat.Errorf(op, hazmat.ErrInvalidStructure, "missing requestList")
	}
	var list cryptobyte.String
	if !tbs.ReadASN1(&list, cbasn1.SEQUENCE) {
		return nil, malformed(op, "requestList")
	}
	if list.Empty() {
		return nil, hazmat.Errorf(op, hazmat.ErrInvalidStructure, "empty requestList")
	}
	for !list.Empty() {
		single, err := parseSingleRequest(op, &list)
		if err != nil {
			return nil, err
		}
		req.requests = append(req.requests, single)
	}

	var extBody cryptobyte.String
	var hasExt bool
	if !tbs.ReadOptionalASN1(&extBody, &hasExt, tagExplicit2) {
		return nil, malformed(op, "requestExtensions")
	}
	if hasExt {
		exts, err := parseExtensions(op, requestScope, extBody)
		if err != nil {
			return nil, err
		}
		req.extensions = exts
	}
	if !tbs.Empty() {
		return nil, hazmat.Errorf(op, hazmat.ErrMalformedEncoding, "trailing data in tbsRequest")
	}

	var sigBody cryptobyte.String
	var signed bool
	if !outer.ReadOptionalASN1(&sigBody, &signed, tagExplicit0) {
		return nil, malformed(op, "optionalSignature")
	}
	if signed {
		sig, err := parseSignature(op, sigBody)
		if err != nil {
			return nil, err
		}
		req.signature = sig
	}
	if !outer.Empty() {
		return nil, hazmat.Errorf(op, hazmat.ErrMalformedEncoding, "trailing data in OCSPRequest")
	}
	return req, nil
}

func parseSingleRequest(op string, list *cryptobyte.String) (SingleRequest, error) {
	var entry, certID cryptobyte.String
	if !list.ReadASN1(&entry, cbasn1.SEQUENCE) || !entry.ReadASN1(&certID, cbasn1.SEQUENCE) {
		return SingleRequest{}, malformed(op, "Request")
	}
	id, err := parseCertID(op, certID)
	if err != nil {
		return SingleRequest{}, err
	}
	single := SingleRequest{CertID: id}

	var extBody cryptobyte.String
	var hasExt bool
	if !entry.ReadOptionalASN1(&extBody, &hasExt, tagExplicit0) || !entry.Empty() {
		return SingleRequest{}, malformed(op, "singleRequestExtensions")
	}
	if hasExt {
		exts, err := parseExtensions(op, singleRequestScope, extBody)
		if err != nil {
			return SingleRequest{}, err
		}
		single.Extensions = exts
	}
	return single, nil
}

func parseCertID(op string, s cryptobyte.String) (CertID, error) {
	hashOID, err := parseAlgorithmIdentifier(op, &s)
	if err != nil {
		return CertID{}, err
	}
	var nameHash, keyHash cryptobyte.String
	serial := new(big.Int)
	if !s.ReadASN1(&nameHash, cbasn1.OCTET_STRING) ||
		!s.ReadASN1(&keyHash, cbasn1.OCTET_STRING) ||
		!s.ReadASN1Integer(serial) ||
		!s.Empty() {
		return CertID{}, malformed(op, "CertID")
	}
	hash, ok := hashFromOID(hashOID)
	if !ok {
		return CertID{}, hazmat.Errorf(op, hazmat.ErrInvalidStructure, "unsupported CertID hash algorithm %v", hashOID)
	}
	return CertID{
		HashAlgorithm:  hash,
		IssuerNameHash: bytes.Clone(nameHash),
		IssuerKeyHash:  bytes.Clone(keyHash),
		SerialNumber:   serial,
	}, nil
}

// parseAlgorithmIdentifier reads an AlgorithmIdentifier and returns its OID.
// Parameters, if any, must be a single element and are ignored.
func parseAlgorithmIdentifier(op string, s *cryptobyte.String) (asn1.ObjectIdentifier, error) {
	var alg cryptobyte.String
	var oid asn1.ObjectIdentifier
	if !s.ReadASN1(&alg, cbasn1.SEQUENCE) || !alg.ReadASN1ObjectIdentifier(&oid) {
		return nil, malformed(op, "AlgorithmIdentifier")
	}
	if !alg.Empty() {
		var params cryptobyte.String
		var tag cbasn1.Tag
		if !alg.ReadAnyASN1Element(&params, &tag) || !alg.Empty() {
			return nil, malformed(op, "AlgorithmIdentifier parameters")
		}
	}
	return oid, nil
}

func parseSignature(op string, body cryptobyte.String) (*Signature, error) {
	var seq cryptobyte.String
	if !body.ReadASN1(&seq, cbasn1.SEQUENCE) || !body.Empty() {
		return nil, malformed(op, "Signature")
	}
	alg, err := parseAlgorithmIdentifier(op, &seq)
	if err != nil {
		return nil, err
	}
	var bits asn1.BitString
	if !seq.ReadASN1BitString(&bits) {
		return nil, malformed(op, "signature value")
	}
	sig := &Signature{Algorithm: alg, Value: bytes.Clone(bits.RightAlign())}

	var certsBody cryptobyte.String
	var hasCerts bool
	if !seq.ReadOptionalASN1(&certsBody, &hasCerts, tagExplicit0) || !seq.Empty() {
		return nil, malformed(op, "Signature certs")
	}
	if hasCerts {
		var certs cryptobyte.String
		if !certsBody.ReadASN1(&certs, cbasn1.SEQUENCE) || !certsBody.Empty() {
			return nil, malformed(op, "Signature certs")
		}
		for !certs.Empty() {
			var cert cryptobyte.String
			if !certs.ReadASN1Element(&cert, cbasn1.SEQUENCE) {
				return nil, malformed(op, "Signature certificate")
			}
			sig.Certificates = append(sig.Certificates, bytes.Clone(cert))
		}
	}
	return sig, nil
}
