package ocsp

import (
	"bytes"
	"errors"
	"time"

	"golang.org/x/crypto/cryptobyte"
)

// SignedCertificateTimestamp is one entry of an SCT list (RFC 6962 section
// 3.2). Only v1 SCTs are accepted.
type SignedCertificateTimestamp struct {
	Version            uint8
	LogID              [32]byte
	Timestamp          uint64 // milliseconds since the Unix epoch
	Extensions         []byte
	HashAlgorithm      uint8
	SignatureAlgorithm uint8
	Signature          []byte
}

// Time returns Timestamp as a UTC time.
func (s SignedCertificateTimestamp) Time() time.Time {
	return time.UnixMilli(int64(s.Timestamp)).UTC()
}

func (s SignedCertificateTimestamp) clone() SignedCertificateTimestamp {
	s.Extensions = bytes.Clone(s.Extensions)
	s.Signature = bytes.Clone(s.Signature)
	return s
}

const sctVersionV1 = 0

func parseSCTList(data cryptobyte.String) ([]SignedCertificateTimestamp, bool) {
	var list cryptobyte.String
	if !data.ReadUint16LengthPrefixed(&list) || !data.Empty() || list.Empty() {
		return nil, false
	}
	var out []SignedCertificateTimestamp
	for !list.Empty() {
		var raw cryptobyte.String
		if !list.ReadUint16LengthPrefixed(&raw) {
			return nil, false
		}
		sct, ok := parseSCT(raw)
		if !ok {
			return nil, false
		}
		out = append(out, sct)
	}
	return out, true
}

func parseSCT(s cryptobyte.String) (SignedCertificateTimestamp, bool) {
	var sct SignedCertificateTimestamp
	var logID []byte
	var exts, sig cryptobyte.String
	if !s.ReadUint8(&sct.Version) || sct.Version != sctVersionV1 ||
		!s.ReadBytes(&logID, len(sct.LogID)) ||
		!s.ReadUint64(&sct.Timestamp) ||
		!s.ReadUint16LengthPrefixed(&exts) ||
		!s.ReadUint8(&sct.HashAlgorithm) ||
		!s.ReadUint8(&sct.SignatureAlgorithm) ||
		!s.ReadUint16LengthPrefixed(&sig) ||
		!s.Empty() {
		return SignedCertificateTimestamp{}, false
	}
	copy(sct.LogID[:], logID)
	sct.Extensions = bytes.Clone(exts)
	sct.Signature = bytes.Clone(sig)
	return sct, true
}

func marshalSCTList(scts []SignedCertificateTimestamp) ([]byte, error) {
	if len(scts) == 0 {
		return nil, errors.New("empty SCT list")
	}
	var b cryptobyte.Builder
	b.AddUint16LengthPrefixed(func(list *cryptobyte.Builder) {
		for _, sct := range scts {
			list.AddUint16LengthPrefixed(func(e *cryptobyte.Builder) {
				e.AddUint8(sct.Version)
				e.AddBytes(sct.LogID[:])
				e.AddUint64(sct.Timestamp)
				e.AddUint16LengthPrefixed(func(x *cryptobyte.Builder) { x.AddBytes(sct.Extensions) })
				e.AddUint8(sct.HashAlgorithm)
				e.AddUint8(sct.SignatureAlgorithm)
				e.AddUint16LengthPrefixed(func(x *cryptobyte.Builder) { x.AddBytes(sct.Signature) })
			})
		}
	})
	return b.Bytes()
}
