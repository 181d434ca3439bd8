package ocsp

import (
	"crypto"
	"encoding/asn1"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/coinbase/cb-hazmat-go/pkg/hazmat"
)

// Extension OIDs recognized by the decoder.
var (
	OIDNonce                       = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 1, 2}
	OIDAcceptableResponses         = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 1, 4}
	OIDArchiveCutoff               = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 1, 6}
	OIDSignedCertificateTimestamps = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 11129, 2, 4, 5}
	OIDCRLReason                   = asn1.ObjectIdentifier{2, 5, 29, 21}
	OIDInvalidityDate              = asn1.ObjectIdentifier{2, 5, 29, 24}
)

// OIDBasicResponse is the response type most clients list in an
// AcceptableResponses extension.
var OIDBasicResponse = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 1, 1}

var hashOIDs = []struct {
	hash crypto.Hash
	oid  asn1.ObjectIdentifier
}{
	{crypto.SHA1, asn1.ObjectIdentifier{1, 3, 14, 3, 2, 26}},
	{crypto.SHA224, asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 4}},
	{crypto.SHA256, asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1}},
	{crypto.SHA384, asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 2}},
	{crypto.SHA512, asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 3}},
}

func hashFromOID(oid asn1.ObjectIdentifier) (crypto.Hash, bool) {
	for _, h := range hashOIDs {
		if h.oid.Equal(oid) {
			return h.hash, true
		}
	}
	return 0, false
}

func oidFromHash(hash crypto.Hash) (asn1.ObjectIdentifier, bool) {
	for _, h := range hashOIDs {
		if h.hash == hash {
			return h.oid, true
		}
	}
	return nil, false
}

// EncodeOID returns the content octets of oid's DER encoding, the form the
// Parse*Extension functions accept.
func EncodeOID(oid asn1.ObjectIdentifier) ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1ObjectIdentifier(oid)
	full, err := b.Bytes()
	if err != nil {
		return nil, hazmat.Wrap("EncodeOID", hazmat.ErrMalformedEncoding, err)
	}
	s := cryptobyte.String(full)
	var content cryptobyte.String
	if !s.ReadASN1(&content, cbasn1.OBJECT_IDENTIFIER) {
		return nil, hazmat.Errorf("EncodeOID", hazmat.ErrMalformedEncoding, "cannot encode %v", oid)
	}
	return []byte(content), nil
}

// DecodeOID parses the content octets of a DER OBJECT IDENTIFIER.
func DecodeOID(content []byte) (asn1.ObjectIdentifier, error) {
	oid, ok := decodeOID(content)
	if !ok {
		return nil, hazmat.Errorf("DecodeOID", hazmat.ErrMalformedEncoding, "invalid object identifier")
	}
	return oid, nil
}

// validOIDContent checks the DER shape of OID content octets: base-128 arcs,
// no 0x80 padding byte at the start of an arc, and a terminated last arc.
// Arc magnitude is not bounded.
func validOIDContent(content []byte) bool {
	if len(content) == 0 || content[len(content)-1]&0x80 != 0 {
		return false
	}
	arcStart := true
	for _, c := range content {
		if arcStart && c == 0x80 {
			return false
		}
		arcStart = c&0x80 == 0
	}
	return true
}

func decodeOID(content []byte) (asn1.ObjectIdentifier, bool) {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.OBJECT_IDENTIFIER, func(c *cryptobyte.Builder) {
		c.AddBytes(content)
	})
	full, err := b.Bytes()
	if err != nil {
		return nil, false
	}
	s := cryptobyte.String(full)
	var oid asn1.ObjectIdentifier
	if !s.ReadASN1ObjectIdentifier(&oid) || !s.Empty() {
		return nil, false
	}
	return oid, true
}
