package ocsp

import (
	"bytes"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
	xocsp "golang.org/x/crypto/ocsp"

	"github.com/coinbase/cb-hazmat-go/pkg/hazmat"
)

// Response is a verified OCSP response. The embedded response comes from
// golang.org/x/crypto/ocsp; the extension fields hold the same extensions
// decoded into typed values.
type Response struct {
	*xocsp.Response

	// SingleExtensions are the singleExtensions of the matched
	// SingleResponse.
	SingleExtensions []Extension

	// ResponseExtensions are the responseExtensions of ResponseData.
	ResponseExtensions []Extension
}

// Nonce returns the response nonce, if present.
func (r *Response) Nonce() (Nonce, bool) {
	ext, ok := findExtension(r.ResponseExtensions, OIDNonce)
	if !ok {
		return nil, false
	}
	n, ok := ext.Value.(Nonce)
	return n, ok
}

// VerifyError represents an OCSP responder verification error.
type VerifyError struct {
	// Reason why the verification failed.
	Reason string
}

func (e *VerifyError) Error() string {
	return "ocsp: responder cert failed verification (" + e.Reason + ")"
}

// ParseResponse parses a response holding exactly one SingleResponse and
// verifies it against issuer.
func ParseResponse(der []byte, issuer *x509.Certificate) (*Response, error) {
	return parseResponse("ParseResponse", der, nil, issuer)
}

// ParseResponseForCert parses a response and selects the SingleResponse for
// cert. A nil cert behaves like ParseResponse.
func ParseResponseForCert(der []byte, cert, issuer *x509.Certificate) (*Response, error) {
	return parseResponse("ParseResponseForCert", der, cert, issuer)
}

func parseResponse(op string, der []byte, cert, issuer *x509.Certificate) (*Response, error) {
	if issuer == nil {
		return nil, fail(op, hazmat.Errorf(op, hazmat.ErrVerification, "issuer is required"))
	}

	unsigned, certs, ok := splitCertificates(der)
	if !ok {
		return nil, fail(op, malformed(op, "OCSPResponse"))
	}
	// Without certificates and without an issuer x/crypto checks no
	// signature, so every error it returns is about the encoding.
	resp, err := xocsp.ParseResponseForCert(unsigned, cert, nil)
	if err != nil {
		return nil, fail(op, classifyResponseError(op, err))
	}
	resp.Raw = bytes.Clone(der)
	if len(certs) > 0 {
		if resp.Certificate, err = x509.ParseCertificate(certs[0]); err != nil {
			return nil, fail(op, hazmat.Wrap(op, hazmat.ErrMalformedEncoding, err))
		}
	}

	signer := issuer
	if resp.Certificate != nil {
		signer = resp.Certificate
	}
	if err := resp.CheckSignatureFrom(signer); err != nil {
		return nil, fail(op, hazmat.Wrap(op, hazmat.ErrVerification, err))
	}
	if err := verifyResponder(resp, issuer); err != nil {
		return nil, fail(op, hazmat.Wrap(op, hazmat.ErrVerification, err))
	}

	single, err := fromPKIX(op, singleResponseScope, resp.Extensions)
	if err != nil {
		return nil, fail(op, err)
	}
	respExts, err := parseResponseExtensions(op, resp.TBSResponseData)
	if err != nil {
		return nil, fail(op, err)
	}
	return &Response{Response: resp, SingleExtensions: single, ResponseExtensions: respExts}, nil
}

// classifyResponseError maps an error from parsing a certificate-free
// response. Only the status of the response is structural.
func classifyResponseError(op string, err error) error {
	var rerr xocsp.ResponseError
	if errors.As(err, &rerr) {
		return hazmat.Wrap(op, hazmat.ErrInvalidStructure, err)
	}
	return hazmat.Wrap(op, hazmat.ErrMalformedEncoding, err)
}

// splitCertificates removes the certs field from the BasicOCSPResponse in
// der and returns it separately. Responses that are not successful or not
// basic come back unchanged. ok is false when der is not an OCSPResponse.
func splitCertificates(der []byte) (unsigned []byte, certs [][]byte, ok bool) {
	s := cryptobyte.String(der)
	var outer, responseBytes cryptobyte.String
	var status int
	var hasBytes bool
	if !s.ReadASN1(&outer, cbasn1.SEQUENCE) || !s.Empty() ||
		!outer.ReadASN1Enum(&status) ||
		!outer.ReadOptionalASN1(&responseBytes, &hasBytes, tagExplicit0) ||
		!outer.Empty() {
		return nil, nil, false
	}
	if !hasBytes {
		return der, nil, true
	}

	var rb, basicOctets, basic cryptobyte.String
	var responseType asn1.ObjectIdentifier
	if !responseBytes.ReadASN1(&rb, cbasn1.SEQUENCE) || !responseBytes.Empty() ||
		!rb.ReadASN1ObjectIdentifier(&responseType) ||
		!rb.ReadASN1(&basicOctets, cbasn1.OCTET_STRING) || !rb.Empty() {
		return nil, nil, false
	}
	if !responseType.Equal(OIDBasicResponse) {
		return der, nil, true
	}

	var tbs, sigAlg, sig, certsBody cryptobyte.String
	var hasCerts bool
	if !basicOctets.ReadASN1(&basic, cbasn1.SEQUENCE) || !basicOctets.Empty() ||
		!basic.ReadASN1Element(&tbs, cbasn1.SEQUENCE) ||
		!basic.ReadASN1Element(&sigAlg, cbasn1.SEQUENCE) ||
		!basic.ReadASN1Element(&sig, cbasn1.BIT_STRING) ||
		!basic.ReadOptionalASN1(&certsBody, &hasCerts, tagExplicit0) ||
		!basic.Empty() {
		return nil, nil, false
	}
	if !hasCerts {
		return der, nil, true
	}

	var list cryptobyte.String
	if !certsBody.ReadASN1(&list, cbasn1.SEQUENCE) || !certsBody.Empty() {
		return nil, nil, false
	}
	for !list.Empty() {
		var c cryptobyte.String
		if !list.ReadASN1Element(&c, cbasn1.SEQUENCE) {
			return nil, nil, false
		}
		certs = append(certs, bytes.Clone(c))
	}

	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(o *cryptobyte.Builder) {
		o.AddASN1Enum(int64(status))
		o.AddASN1(tagExplicit0, func(e *cryptobyte.Builder) {
			e.AddASN1(cbasn1.SEQUENCE, func(r *cryptobyte.Builder) {
				r.AddASN1ObjectIdentifier(responseType)
				r.AddASN1(cbasn1.OCTET_STRING, func(oct *cryptobyte.Builder) {
					oct.AddASN1(cbasn1.SEQUENCE, func(bb *cryptobyte.Builder) {
						bb.AddBytes(tbs)
						bb.AddBytes(sigAlg)
						bb.AddBytes(sig)
					})
				})
			})
		})
	})
	out, err := b.Bytes()
	if err != nil {
		return nil, nil, false
	}
	return out, certs, true
}

// verifyResponder checks an embedded responder certificate against issuer,
// requiring the OCSP signing usage.
//
// ref; https://github.com/golang/go/issues/43522#issuecomment-755389499
func verifyResponder(resp *xocsp.Response, issuer *x509.Certificate) error {
	if resp.Certificate == nil {
		return nil
	}

	roots := x509.NewCertPool()
	roots.AddCert(issuer)
	chains, err := resp.Certificate.Verify(x509.VerifyOptions{
		Roots:     roots,
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageOCSPSigning},
	})
	if err != nil {
		return err
	}

	// Exactly one chain of responder and issuer.
	if len(chains) < 1 {
		return &VerifyError{Reason: "no matching chains"}
	}
	if len(chains) > 1 {
		return &VerifyError{Reason: "too many matching chains"}
	}
	if len(chains[0]) != 2 {
		return &VerifyError{Reason: "chain mismatch"}
	}
	return nil
}

func fromPKIX(op string, sc scope, raw []pkix.Extension) ([]Extension, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]Extension, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, e := range raw {
		rawOID, err := EncodeOID(e.Id)
		if err != nil {
			return nil, hazmat.Wrap(op, hazmat.ErrMalformedEncoding, err)
		}
		if _, dup := seen[string(rawOID)]; dup {
			return nil, hazmat.Errorf(op, hazmat.ErrInvalidStructure, "duplicate %s extension %s", sc, e.Id)
		}
		seen[string(rawOID)] = struct{}{}

		v, err := parseExtensionValue(op, sc, rawOID, e.Id, e.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, Extension{ID: e.Id, Critical: e.Critical, Value: v})
	}
	return out, nil
}

// parseResponseExtensions pulls responseExtensions out of the raw
// ResponseData, which golang.org/x/crypto/ocsp does not expose.
func parseResponseExtensions(op string, tbs []byte) ([]Extension, error) {
	s := cryptobyte.String(tbs)
	var data, responderID cryptobyte.String
	var tag cbasn1.Tag
	if !s.ReadASN1(&data, cbasn1.SEQUENCE) ||
		!data.SkipOptionalASN1(tagExplicit0) ||
		!data.ReadAnyASN1Element(&responderID, &tag) ||
		!data.SkipASN1(cbasn1.GeneralizedTime) ||
		!data.SkipASN1(cbasn1.SEQUENCE) {
		return nil, malformed(op, "ResponseData")
	}

	var extBody cryptobyte.String
	var hasExt bool
	if !data.ReadOptionalASN1(&extBody, &hasExt, tagExplicit1) || !data.Empty() {
		return nil, malformed(op, "responseExtensions")
	}
	if !hasExt {
		return nil, nil
	}
	return parseExtensions(op, responseScope, extBody)
}
