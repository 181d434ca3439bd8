package ocsp

import (
	"bytes"
	"encoding/asn1"
	"fmt"
	"slices"
	"time"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/coinbase/cb-hazmat-go/pkg/hazmat"
)

// ExtensionValue is the decoded value of one extension. The set of
// implementations is closed; see the package documentation.
type ExtensionValue interface {
	// OID returns the extension identifier the value is bound to.
	OID() asn1.ObjectIdentifier

	// marshal returns the DER carried inside extnValue.
	marshal() ([]byte, error)
}

// Extension is one entry of an Extensions list.
type Extension struct {
	ID       asn1.ObjectIdentifier
	Critical bool
	Value    ExtensionValue
}

// NewExtension binds v to its own OID.
func NewExtension(v ExtensionValue, critical bool) Extension {
	return Extension{ID: v.OID(), Critical: critical, Value: v}
}

// Nonce is the id-pkix-ocsp-nonce extension: an OCTET STRING that binds a
// response to its request.
type Nonce []byte

func (Nonce) OID() asn1.ObjectIdentifier { return OIDNonce }

func (n Nonce) marshal() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1OctetString(n)
	return b.Bytes()
}

// AcceptableResponses lists the response types a client understands.
type AcceptableResponses []asn1.ObjectIdentifier

func (AcceptableResponses) OID() asn1.ObjectIdentifier { return OIDAcceptableResponses }

func (a AcceptableResponses) marshal() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(seq *cryptobyte.Builder) {
		for _, oid := range a {
			seq.AddASN1ObjectIdentifier(oid)
		}
	})
	return b.Bytes()
}

// SignedCertificateTimestamps is the embedded SCT list extension from RFC
// 6962 section 3.3.
type SignedCertificateTimestamps []SignedCertificateTimestamp

func (SignedCertificateTimestamps) OID() asn1.ObjectIdentifier {
	return OIDSignedCertificateTimestamps
}

func (s SignedCertificateTimestamps) marshal() ([]byte, error) {
	list, err := marshalSCTList(s)
	if err != nil {
		return nil, err
	}
	var b cryptobyte.Builder
	b.AddASN1OctetString(list)
	return b.Bytes()
}

// CRLReason is the reasonCode CRL entry extension.
type CRLReason int

// Reason codes from RFC 5280 section 5.3.1. Value 7 is unassigned.
const (
	Unspecified          CRLReason = 0
	KeyCompromise        CRLReason = 1
	CACompromise         CRLReason = 2
	AffiliationChanged   CRLReason = 3
	Superseded           CRLReason = 4
	CessationOfOperation CRLReason = 5
	CertificateHold      CRLReason = 6
	RemoveFromCRL        CRLReason = 8
	PrivilegeWithdrawn   CRLReason = 9
	AACompromise         CRLReason = 10
)

var crlReasonNames = map[CRLReason]string{
	Unspecified:          "unspecified",
	KeyCompromise:        "keyCompromise",
	CACompromise:         "cACompromise",
	AffiliationChanged:   "affiliationChanged",
	Superseded:           "superseded",
	CessationOfOperation: "cessationOfOperation",
	CertificateHold:      "certificateHold",
	RemoveFromCRL:        "removeFromCRL",
	PrivilegeWithdrawn:   "privilegeWithdrawn",
	AACompromise:         "aACompromise",
}

func (r CRLReason) String() string {
	if s, ok := crlReasonNames[r]; ok {
		return s
	}
	return fmt.Sprintf("CRLReason(%d)", int(r))
}

func (CRLReason) OID() asn1.ObjectIdentifier { return OIDCRLReason }

func (r CRLReason) marshal() ([]byte, error) {
	if _, ok := crlReasonNames[r]; !ok {
		return nil, fmt.Errorf("unknown CRL reason %d", int(r))
	}
	var b cryptobyte.Builder
	b.AddASN1Enum(int64(r))
	return b.Bytes()
}

// InvalidityDate is the invalidityDate CRL entry extension.
type InvalidityDate struct {
	Time time.Time
}

func (InvalidityDate) OID() asn1.ObjectIdentifier { return OIDInvalidityDate }

func (d InvalidityDate) marshal() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1GeneralizedTime(d.Time.UTC())
	return b.Bytes()
}

// ArchiveCutoff is the id-pkix-ocsp-archive-cutoff extension.
type ArchiveCutoff struct {
	Time time.Time
}

func (ArchiveCutoff) OID() asn1.ObjectIdentifier { return OIDArchiveCutoff }

func (a ArchiveCutoff) marshal() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1GeneralizedTime(a.Time.UTC())
	return b.Bytes()
}

// UnrecognizedExtension carries an extension whose OID is not known at the
// scope it was found in. Value is the extnValue content, unmodified.
//
// RawOID holds the OID content octets as they appeared on the wire. ID is
// nil when an arc does not fit in an int, as with 2.25 UUID arcs; RawOID is
// always set by the decoder.
type UnrecognizedExtension struct {
	ID     asn1.ObjectIdentifier
	RawOID []byte
	Value  []byte
}

func (u UnrecognizedExtension) OID() asn1.ObjectIdentifier { return u.ID }

func (u UnrecognizedExtension) marshal() ([]byte, error) {
	return bytes.Clone(u.Value), nil
}

type scope int

const (
	requestScope scope = iota
	singleRequestScope
	responseScope
	singleResponseScope
)

func (s scope) String() string {
	switch s {
	case requestScope:
		return "request"
	case singleRequestScope:
		return "single request"
	case responseScope:
		return "response"
	case singleResponseScope:
		return "single response"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

type decoder func(data []byte) (ExtensionValue, bool)

// decoders maps each scope to the OIDs recognized there. Single requests
// recognize nothing: RFC 6960 only defines the service locator there.
var decoders = map[scope]map[string]decoder{
	requestScope: {
		OIDNonce.String():               decodeNonce,
		OIDAcceptableResponses.String(): decodeAcceptableResponses,
	},
	singleRequestScope: {},
	responseScope: {
		OIDNonce.String(): decodeNonce,
	},
	singleResponseScope: {
		OIDSignedCertificateTimestamps.String(): decodeSCTs,
		OIDCRLReason.String():                   decodeCRLReason,
		OIDInvalidityDate.String():              decodeInvalidityDate,
		OIDArchiveCutoff.String():               decodeArchiveCutoff,
	},
}

// ParseRequestExtension decodes a request-level extension. derOID is the
// content octets of the OID; data is the extnValue content.
func ParseRequestExtension(derOID, data []byte) (ExtensionValue, error) {
	return parseExtensionOID("ParseRequestExtension", requestScope, derOID, data)
}

// ParseResponseExtension decodes a response-level extension.
func ParseResponseExtension(derOID, data []byte) (ExtensionValue, error) {
	return parseExtensionOID("ParseResponseExtension", responseScope, derOID, data)
}

// ParseSingleResponseExtension decodes a per-certificate extension from a
// SingleResponse.
func ParseSingleResponseExtension(derOID, data []byte) (ExtensionValue, error) {
	return parseExtensionOID("ParseSingleResponseExtension", singleResponseScope, derOID, data)
}

func parseExtensionOID(op string, sc scope, derOID, data []byte) (ExtensionValue, error) {
	if !validOIDContent(derOID) {
		return nil, fail(op, hazmat.Errorf(op, hazmat.ErrMalformedEncoding, "invalid object identifier"))
	}
	oid, _ := decodeOID(derOID)
	v, err := parseExtensionValue(op, sc, derOID, oid, data)
	if err != nil {
		return nil, fail(op, err)
	}
	return v, nil
}

// parseExtensionValue decodes data for the OID whose content octets are raw.
// oid is nil when raw does not fit an asn1.ObjectIdentifier; no recognized
// OID is that wide.
func parseExtensionValue(op string, sc scope, raw []byte, oid asn1.ObjectIdentifier, data []byte) (ExtensionValue, error) {
	var dec decoder
	ok := false
	if oid != nil {
		dec, ok = decoders[sc][oid.String()]
	}
	if !ok {
		return UnrecognizedExtension{ID: slices.Clone(oid), RawOID: bytes.Clone(raw), Value: bytes.Clone(data)}, nil
	}
	v, ok := dec(data)
	if !ok {
		return nil, hazmat.Errorf(op, hazmat.ErrMalformedEncoding, "invalid %s extension value for %v", sc, oid)
	}
	return v, nil
}

// parseExtensions reads the body of an Extensions SEQUENCE. Duplicate OIDs
// and empty lists are structural errors.
func parseExtensions(op string, sc scope, s cryptobyte.String) ([]Extension, error) {
	var list cryptobyte.String
	if !s.ReadASN1(&list, cbasn1.SEQUENCE) || !s.Empty() {
		return nil, hazmat.Errorf(op, hazmat.ErrMalformedEncoding, "invalid %s extensions", sc)
	}
	if list.Empty() {
		return nil, hazmat.Errorf(op, hazmat.ErrInvalidStructure, "empty %s extensions", sc)
	}

	var exts []Extension
	seen := make(map[string]struct{})
	for !list.Empty() {
		var ext, rawOID cryptobyte.String
		var critical bool
		var value cryptobyte.String
		if !list.ReadASN1(&ext, cbasn1.SEQUENCE) ||
			!ext.ReadASN1(&rawOID, cbasn1.OBJECT_IDENTIFIER) ||
			!validOIDContent(rawOID) {
			return nil, hazmat.Errorf(op, hazmat.ErrMalformedEncoding, "invalid %s extension", sc)
		}
		oid, _ := decodeOID(rawOID)
		if ext.PeekASN1Tag(cbasn1.BOOLEAN) && !ext.ReadASN1Boolean(&critical) {
			return nil, hazmat.Errorf(op, hazmat.ErrMalformedEncoding, "invalid critical flag in %s extension", sc)
		}
		if !ext.ReadASN1(&value, cbasn1.OCTET_STRING) || !ext.Empty() {
			return nil, hazmat.Errorf(op, hazmat.ErrMalformedEncoding, "invalid %s extension", sc)
		}
		if _, dup := seen[string(rawOID)]; dup {
			return nil, hazmat.Errorf(op, hazmat.ErrInvalidStructure, "duplicate %s extension %s", sc, oidLabel(oid))
		}
		seen[string(rawOID)] = struct{}{}

		v, err := parseExtensionValue(op, sc, rawOID, oid, value)
		if err != nil {
			return nil, err
		}
		exts = append(exts, Extension{ID: oid, Critical: critical, Value: v})
	}
	return exts, nil
}

// addExtensions writes exts as an Extensions SEQUENCE. Values are marshaled
// up front so the builder never sees a half-written extension.
func addExtensions(b *cryptobyte.Builder, exts []Extension) error {
	oids := make([][]byte, len(exts))
	values := make([][]byte, len(exts))
	for i, ext := range exts {
		if ext.Value == nil {
			return fmt.Errorf("extension %v has no value", ext.ID)
		}
		raw, err := extensionOID(ext)
		if err != nil {
			return fmt.Errorf("extension %v: %w", ext.ID, err)
		}
		v, err := ext.Value.marshal()
		if err != nil {
			return fmt.Errorf("extension %v: %w", ext.ID, err)
		}
		oids[i], values[i] = raw, v
	}
	b.AddASN1(cbasn1.SEQUENCE, func(seq *cryptobyte.Builder) {
		for i, ext := range exts {
			seq.AddASN1(cbasn1.SEQUENCE, func(e *cryptobyte.Builder) {
				e.AddASN1(cbasn1.OBJECT_IDENTIFIER, func(o *cryptobyte.Builder) {
					o.AddBytes(oids[i])
				})
				if ext.Critical {
					e.AddASN1Boolean(true)
				}
				e.AddASN1OctetString(values[i])
			})
		}
	})
	return nil
}

// extensionOID returns the OID content octets ext is written with. An
// UnrecognizedExtension keeps its wire form.
func extensionOID(ext Extension) ([]byte, error) {
	if u, ok := ext.Value.(UnrecognizedExtension); ok && len(u.RawOID) > 0 {
		if !validOIDContent(u.RawOID) {
			return nil, fmt.Errorf("invalid raw object identifier")
		}
		return u.RawOID, nil
	}
	return EncodeOID(ext.ID)
}

func oidLabel(oid asn1.ObjectIdentifier) string {
	if oid == nil {
		return "(arc exceeds int)"
	}
	return oid.String()
}

func findExtension(exts []Extension, oid asn1.ObjectIdentifier) (Extension, bool) {
	for _, ext := range exts {
		if ext.ID.Equal(oid) {
			return cloneExtension(ext), true
		}
	}
	return Extension{}, false
}

func cloneExtensions(exts []Extension) []Extension {
	if exts == nil {
		return nil
	}
	out := make([]Extension, len(exts))
	for i, ext := range exts {
		out[i] = cloneExtension(ext)
	}
	return out
}

func cloneExtension(ext Extension) Extension {
	return Extension{ID: slices.Clone(ext.ID), Critical: ext.Critical, Value: cloneValue(ext.Value)}
}

func cloneValue(v ExtensionValue) ExtensionValue {
	switch v := v.(type) {
	case Nonce:
		return Nonce(bytes.Clone(v))
	case AcceptableResponses:
		out := make(AcceptableResponses, len(v))
		for i, oid := range v {
			out[i] = slices.Clone(oid)
		}
		return out
	case SignedCertificateTimestamps:
		out := make(SignedCertificateTimestamps, len(v))
		for i, sct := range v {
			out[i] = sct.clone()
		}
		return out
	case UnrecognizedExtension:
		return UnrecognizedExtension{ID: slices.Clone(v.ID), RawOID: bytes.Clone(v.RawOID), Value: bytes.Clone(v.Value)}
	default:
		// CRLReason, InvalidityDate and ArchiveCutoff are plain values.
		return v
	}
}

func decodeNonce(data []byte) (ExtensionValue, bool) {
	s := cryptobyte.String(data)
	var nonce cryptobyte.String
	if !s.ReadASN1(&nonce, cbasn1.OCTET_STRING) || !s.Empty() {
		return nil, false
	}
	return Nonce(bytes.Clone(nonce)), true
}

func decodeAcceptableResponses(data []byte) (ExtensionValue, bool) {
	s := cryptobyte.String(data)
	var seq cryptobyte.String
	if !s.ReadASN1(&seq, cbasn1.SEQUENCE) || !s.Empty() {
		return nil, false
	}
	out := AcceptableResponses{}
	for !seq.Empty() {
		var oid asn1.ObjectIdentifier
		if !seq.ReadASN1ObjectIdentifier(&oid) {
			return nil, false
		}
		out = append(out, oid)
	}
	return out, true
}

func decodeSCTs(data []byte) (ExtensionValue, bool) {
	s := cryptobyte.String(data)
	var list cryptobyte.String
	if !s.ReadASN1(&list, cbasn1.OCTET_STRING) || !s.Empty() {
		return nil, false
	}
	scts, ok := parseSCTList(list)
	if !ok {
		return nil, false
	}
	return SignedCertificateTimestamps(scts), true
}

func decodeCRLReason(data []byte) (ExtensionValue, bool) {
	s := cryptobyte.String(data)
	var reason int
	if !s.ReadASN1Enum(&reason) || !s.Empty() {
		return nil, false
	}
	if _, ok := crlReasonNames[CRLReason(reason)]; !ok {
		return nil, false
	}
	return CRLReason(reason), true
}

func decodeInvalidityDate(data []byte) (ExtensionValue, bool) {
	t, ok := decodeGeneralizedTime(data)
	if !ok {
		return nil, false
	}
	return InvalidityDate{Time: t}, true
}

func decodeArchiveCutoff(data []byte) (ExtensionValue, bool) {
	t, ok := decodeGeneralizedTime(data)
	if !ok {
		return nil, false
	}
	return ArchiveCutoff{Time: t}, true
}

func decodeGeneralizedTime(data []byte) (time.Time, bool) {
	s := cryptobyte.String(data)
	var t time.Time
	if !s.ReadASN1GeneralizedTime(&t) || !s.Empty() {
		return time.Time{}, false
	}
	return t, true
}
