package ocsp

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

type testPKI struct {
	ca        *x509.Certificate
	caKey     crypto.Signer
	leaf      *x509.Certificate
	leafKey   crypto.Signer
	responder *x509.Certificate
	respKey   crypto.Signer
}

func newTestPKI(t *testing.T) *testPKI {
	t.Helper()
	now := time.Now()

	caKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	caTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "hazmat test CA"},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}
	ca := createCert(t, caTmpl, caTmpl, &caKey.PublicKey, caKey)

	leafKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	leaf := createCert(t, &x509.Certificate{
		SerialNumber: big.NewInt(0x1234567),
		Subject:      pkix.Name{CommonName: "leaf.example.com"},
		NotBefore:    now.Add(-time.Hour),
		NotAfter:     now.Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}, ca, &leafKey.PublicKey, caKey)

	respKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	responder := createCert(t, &x509.Certificate{
		SerialNumber: big.NewInt(0x42),
		Subject:      pkix.Name{CommonName: "hazmat test responder"},
		NotBefore:    now.Add(-time.Hour),
		NotAfter:     now.Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageOCSPSigning},
	}, ca, &respKey.PublicKey, caKey)

	return &testPKI{ca: ca, caKey: caKey, leaf: leaf, leafKey: leafKey, responder: responder, respKey: respKey}
}

func createCert(t *testing.T, tmpl, parent *x509.Certificate, pub any, signer crypto.Signer) *x509.Certificate {
	t.Helper()
	der, err := x509.CreateCertificate(rand.Reader, tmpl, parent, pub, signer)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

func testCertID() CertID {
	return CertID{
		HashAlgorithm:  crypto.SHA256,
		IssuerNameHash: []byte("0123456789abcdef0123456789abcdef"),
		IssuerKeyHash:  []byte("fedcba9876543210fedcba9876543210"),
		SerialNumber:   big.NewInt(0x1234567),
	}
}

// rawRequest wraps the tbsRequest body written by tbs in an OCSPRequest.
func rawRequest(t *testing.T, tbs func(*cryptobyte.Builder)) []byte {
	t.Helper()
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(req *cryptobyte.Builder) {
		req.AddASN1(cbasn1.SEQUENCE, tbs)
	})
	der, err := b.Bytes()
	require.NoError(t, err)
	return der
}

func addRawCertID(b *cryptobyte.Builder, hashOID asn1.ObjectIdentifier) {
	b.AddASN1(cbasn1.SEQUENCE, func(r *cryptobyte.Builder) {
		r.AddASN1(cbasn1.SEQUENCE, func(c *cryptobyte.Builder) {
			c.AddASN1(cbasn1.SEQUENCE, func(alg *cryptobyte.Builder) {
				alg.AddASN1ObjectIdentifier(hashOID)
				alg.AddASN1NULL()
			})
			c.AddASN1OctetString([]byte("name-hash"))
			c.AddASN1OctetString([]byte("key-hash"))
			c.AddASN1Int64(7)
		})
	})
}

func addRawExtension(b *cryptobyte.Builder, oid asn1.ObjectIdentifier, value []byte) {
	b.AddASN1(cbasn1.SEQUENCE, func(e *cryptobyte.Builder) {
		e.AddASN1ObjectIdentifier(oid)
		e.AddASN1OctetString(value)
	})
}

func mustMarshal(t *testing.T, v ExtensionValue) []byte {
	t.Helper()
	der, err := v.marshal()
	require.NoError(t, err)
	return der
}

func mustEncodeOID(t *testing.T, oid asn1.ObjectIdentifier) []byte {
	t.Helper()
	der, err := EncodeOID(oid)
	require.NoError(t, err)
	return der
}

var sha256OID = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1}
