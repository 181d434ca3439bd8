package ocsp

import (
	"crypto"
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"crypto/x509"
	"encoding/asn1"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/coinbase/cb-hazmat-go/pkg/hazmat"
)

// RequestBuilder assembles an unsigned OCSP request. The zero value is ready
// to use. Methods validate their input immediately so Build only fails on an
// empty request list.
type RequestBuilder struct {
	requests   []SingleRequest
	extensions []Extension
}

// AddCertID appends a single request for id with optional per-request
// extensions.
func (b *RequestBuilder) AddCertID(id CertID, exts ...Extension) error {
	const op = "RequestBuilder.AddCertID"
	if _, ok := oidFromHash(id.HashAlgorithm); !ok {
		return hazmat.Errorf(op, hazmat.ErrInvalidStructure, "unsupported hash algorithm %v", id.HashAlgorithm)
	}
	if id.SerialNumber == nil {
		return hazmat.Errorf(op, hazmat.ErrInvalidStructure, "missing serial number")
	}
	if err := checkExtensions(op, exts); err != nil {
		return err
	}
	b.requests = append(b.requests, SingleRequest{CertID: id.clone(), Extensions: cloneExtensions(exts)})
	return nil
}

// AddCertificate appends a single request for cert, issued by issuer,
// hashing the issuer name and key with hash. Zero selects SHA-1, the only
// algorithm every responder is required to support.
func (b *RequestBuilder) AddCertificate(cert, issuer *x509.Certificate, hash crypto.Hash) error {
	id, err := NewCertID(cert, issuer, hash)
	if err != nil {
		return err
	}
	return b.AddCertID(id)
}

// AddExtension appends a request-level extension. A second extension with
// the same OID is rejected.
func (b *RequestBuilder) AddExtension(ext Extension) error {
	const op = "RequestBuilder.AddExtension"
	if err := checkExtensions(op, append(cloneExtensions(b.extensions), ext)); err != nil {
		return err
	}
	b.extensions = append(b.extensions, cloneExtension(ext))
	return nil
}

// WithNonce adds a non-critical nonce extension.
func (b *RequestBuilder) WithNonce(nonce []byte) error {
	return b.AddExtension(NewExtension(Nonce(nonce), false))
}

// Build encodes the request.
func (b *RequestBuilder) Build() ([]byte, error) {
	const op = "RequestBuilder.Build"
	if len(b.requests) == 0 {
		return nil, hazmat.Errorf(op, hazmat.ErrInvalidStructure, "no certificate IDs")
	}

	var buildErr error
	var out cryptobyte.Builder
	out.AddASN1(cbasn1.SEQUENCE, func(req *cryptobyte.Builder) {
		req.AddASN1(cbasn1.SEQUENCE, func(tbs *cryptobyte.Builder) {
			// version is DEFAULT v1 and therefore omitted.
			tbs.AddASN1(cbasn1.SEQUENCE, func(list *cryptobyte.Builder) {
				for _, single := range b.requests {
					list.AddASN1(cbasn1.SEQUENCE, func(r *cryptobyte.Builder) {
						addCertID(r, single.CertID)
						if len(single.Extensions) > 0 {
							r.AddASN1(tagExplicit0, func(e *cryptobyte.Builder) {
								if err := addExtensions(e, single.Extensions); err != nil && buildErr == nil {
									buildErr = err
								}
							})
						}
					})
				}
			})
			if len(b.extensions) > 0 {
				tbs.AddASN1(tagExplicit2, func(e *cryptobyte.Builder) {
					if err := addExtensions(e, b.extensions); err != nil && buildErr == nil {
						buildErr = err
					}
				})
			}
		})
	})
	if buildErr != nil {
		return nil, hazmat.Wrap(op, hazmat.ErrInvalidStructure, buildErr)
	}
	der, err := out.Bytes()
	if err != nil {
		return nil, hazmat.Wrap(op, hazmat.ErrMalformedEncoding, err)
	}
	return der, nil
}

func addCertID(b *cryptobyte.Builder, id CertID) {
	hashOID, _ := oidFromHash(id.HashAlgorithm)
	b.AddASN1(cbasn1.SEQUENCE, func(c *cryptobyte.Builder) {
		c.AddASN1(cbasn1.SEQUENCE, func(alg *cryptobyte.Builder) {
			alg.AddASN1ObjectIdentifier(hashOID)
			alg.AddASN1NULL()
		})
		c.AddASN1OctetString(id.IssuerNameHash)
		c.AddASN1OctetString(id.IssuerKeyHash)
		c.AddASN1BigInt(id.SerialNumber)
	})
}

// checkExtensions rejects nil values, values bound to a different OID and
// duplicate OIDs.
func checkExtensions(op string, exts []Extension) error {
	seen := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		if ext.Value == nil {
			return hazmat.Errorf(op, hazmat.ErrInvalidStructure, "extension %v has no value", ext.ID)
		}
		if !ext.ID.Equal(ext.Value.OID()) {
			return hazmat.Errorf(op, hazmat.ErrInvalidStructure, "extension %v carries a %v value", ext.ID, ext.Value.OID())
		}
		raw, err := extensionOID(ext)
		if err != nil {
			return hazmat.Wrap(op, hazmat.ErrInvalidStructure, err)
		}
		if _, dup := seen[string(raw)]; dup {
			return hazmat.Errorf(op, hazmat.ErrInvalidStructure, "duplicate extension %s", oidLabel(ext.ID))
		}
		seen[string(raw)] = struct{}{}
		if _, err := ext.Value.marshal(); err != nil {
			return hazmat.Wrap(op, hazmat.ErrInvalidStructure, err)
		}
	}
	return nil
}

// NewCertID computes the CertID for cert as issued by issuer. Zero hash
// selects SHA-1.
func NewCertID(cert, issuer *x509.Certificate, hash crypto.Hash) (CertID, error) {
	const op = "NewCertID"
	if cert == nil || issuer == nil {
		return CertID{}, hazmat.Errorf(op, hazmat.ErrInvalidStructure, "certificate and issuer are required")
	}
	if hash == 0 {
		hash = crypto.SHA1
	}
	if _, ok := oidFromHash(hash); !ok || !hash.Available() {
		return CertID{}, hazmat.Errorf(op, hazmat.ErrInvalidStructure, "unsupported hash algorithm %v", hash)
	}

	// The key hash covers the subjectPublicKey BIT STRING contents only.
	spki := cryptobyte.String(issuer.RawSubjectPublicKeyInfo)
	var body, alg cryptobyte.String
	var key asn1.BitString
	if !spki.ReadASN1(&body, cbasn1.SEQUENCE) ||
		!body.ReadASN1(&alg, cbasn1.SEQUENCE) ||
		!body.ReadASN1BitString(&key) {
		return CertID{}, hazmat.Errorf(op, hazmat.ErrMalformedEncoding, "invalid issuer SubjectPublicKeyInfo")
	}

	h := hash.New()
	h.Write(issuer.RawSubject)
	nameHash := h.Sum(nil)

	h.Reset()
	h.Write(key.RightAlign())
	keyHash := h.Sum(nil)

	serial := cert.SerialNumber
	if serial == nil {
		return CertID{}, hazmat.Errorf(op, hazmat.ErrInvalidStructure, "certificate has no serial number")
	}
	return CertID{
		HashAlgorithm:  hash,
		IssuerNameHash: nameHash,
		IssuerKeyHash:  keyHash,
		SerialNumber:   new(big.Int).Set(serial),
	}, nil
}
