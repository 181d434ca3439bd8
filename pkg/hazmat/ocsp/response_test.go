package ocsp

import (
	"crypto/x509/pkix"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
	xocsp "golang.org/x/crypto/ocsp"

	"github.com/coinbase/cb-hazmat-go/pkg/hazmat"
)

func responseTemplate(t *testing.T, pki *testPKI) xocsp.Response {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Minute)
	return xocsp.Response{
		Status:           xocsp.Revoked,
		SerialNumber:     pki.leaf.SerialNumber,
		ThisUpdate:       now,
		NextUpdate:       now.Add(time.Hour),
		RevokedAt:        now.Add(-time.Hour),
		RevocationReason: xocsp.KeyCompromise,
		ExtraExtensions: []pkix.Extension{
			{Id: OIDSignedCertificateTimestamps, Value: mustMarshal(t, SignedCertificateTimestamps{testSCT()})},
			{Id: OIDInvalidityDate, Value: mustMarshal(t, InvalidityDate{Time: now.Add(-2 * time.Hour)})},
		},
	}
}

func TestParseResponseDecodesSingleExtensions(t *testing.T) {
	pki := newTestPKI(t)
	tmpl := responseTemplate(t, pki)

	der, err := xocsp.CreateResponse(pki.ca, pki.ca, tmpl, pki.caKey)
	require.NoError(t, err)

	resp, err := ParseResponse(der, pki.ca)
	require.NoError(t, err)
	assert.Equal(t, xocsp.Revoked, resp.Status)
	assert.Equal(t, 0, resp.SerialNumber.Cmp(pki.leaf.SerialNumber))
	assert.Empty(t, resp.ResponseExtensions)

	require.Len(t, resp.SingleExtensions, 2)
	scts, ok := resp.SingleExtensions[0].Value.(SignedCertificateTimestamps)
	require.True(t, ok, "got %T", resp.SingleExtensions[0].Value)
	assert.Equal(t, testSCT().LogID, scts[0].LogID)

	date, ok := resp.SingleExtensions[1].Value.(InvalidityDate)
	require.True(t, ok)
	assert.True(t, date.Time.Equal(tmpl.ThisUpdate.Add(-2*time.Hour)))

	_, ok = resp.Nonce()
	assert.False(t, ok)
}

func TestParseResponseForCert(t *testing.T) {
	pki := newTestPKI(t)
	der, err := xocsp.CreateResponse(pki.ca, pki.ca, responseTemplate(t, pki), pki.caKey)
	require.NoError(t, err)

	resp, err := ParseResponseForCert(der, pki.leaf, pki.ca)
	require.NoError(t, err)
	assert.Equal(t, xocsp.KeyCompromise, resp.RevocationReason)
}

func TestParseResponseDelegatedResponder(t *testing.T) {
	pki := newTestPKI(t)
	tmpl := responseTemplate(t, pki)
	tmpl.Certificate = pki.responder

	der, err := xocsp.CreateResponse(pki.ca, pki.responder, tmpl, pki.respKey)
	require.NoError(t, err)

	resp, err := ParseResponse(der, pki.ca)
	require.NoError(t, err)
	require.NotNil(t, resp.Certificate)
	assert.Equal(t, pki.responder.Raw, resp.Certificate.Raw)
}

func TestParseResponseRejectsResponderWithoutOCSPSigning(t *testing.T) {
	pki := newTestPKI(t)
	tmpl := responseTemplate(t, pki)
	// The leaf is signed by the CA but lacks the OCSP signing usage.
	tmpl.Certificate = pki.leaf

	der, err := xocsp.CreateResponse(pki.ca, pki.leaf, tmpl, pki.leafKey)
	require.NoError(t, err)

	_, err = ParseResponse(der, pki.ca)
	require.ErrorIs(t, err, hazmat.ErrVerification)
}

func TestParseResponseWrongIssuer(t *testing.T) {
	pki := newTestPKI(t)
	other := newTestPKI(t)

	der, err := xocsp.CreateResponse(pki.ca, pki.ca, responseTemplate(t, pki), pki.caKey)
	require.NoError(t, err)

	_, err = ParseResponse(der, other.ca)
	require.ErrorIs(t, err, hazmat.ErrVerification)

	_, err = ParseResponse(der, nil)
	require.ErrorIs(t, err, hazmat.ErrVerification)
}

func TestParseResponseGarbage(t *testing.T) {
	pki := newTestPKI(t)
	_, err := ParseResponse([]byte{0x30, 0x03, 0x0A, 0x01}, pki.ca)
	require.ErrorIs(t, err, hazmat.ErrMalformedEncoding)

	der, err := xocsp.CreateResponse(pki.ca, pki.ca, responseTemplate(t, pki), pki.caKey)
	require.NoError(t, err)
	_, err = ParseResponse(der[:len(der)-3], pki.ca)
	require.ErrorIs(t, err, hazmat.ErrMalformedEncoding)
}

func TestParseResponseExtensionsFromResponseData(t *testing.T) {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(data *cryptobyte.Builder) {
		// responderID byKey [2]
		data.AddASN1(tagExplicit2, func(id *cryptobyte.Builder) {
			id.AddASN1OctetString(make([]byte, 20))
		})
		data.AddASN1GeneralizedTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		data.AddASN1(cbasn1.SEQUENCE, func(*cryptobyte.Builder) {})
		data.AddASN1(tagExplicit1, func(e *cryptobyte.Builder) {
			e.AddASN1(cbasn1.SEQUENCE, func(exts *cryptobyte.Builder) {
				addRawExtension(exts, OIDNonce, mustMarshal(t, Nonce("response-nonce")))
			})
		})
	})
	tbs, err := b.Bytes()
	require.NoError(t, err)

	exts, err := parseResponseExtensions("test", tbs)
	require.NoError(t, err)
	require.Len(t, exts, 1)

	resp := &Response{ResponseExtensions: exts}
	nonce, ok := resp.Nonce()
	require.True(t, ok)
	assert.Equal(t, Nonce("response-nonce"), nonce)

	_, err = parseResponseExtensions("test", tbs[:len(tbs)-1])
	require.ErrorIs(t, err, hazmat.ErrMalformedEncoding)
}

func TestParseResponseBadSignatureIsVerificationError(t *testing.T) {
	pki := newTestPKI(t)
	der, err := xocsp.CreateResponse(pki.ca, pki.ca, responseTemplate(t, pki), pki.caKey)
	require.NoError(t, err)

	// The signature BIT STRING ends the response; flipping its last bit
	// keeps the encoding intact.
	der[len(der)-1] ^= 0x01
	_, err = ParseResponse(der, pki.ca)
	require.ErrorIs(t, err, hazmat.ErrVerification)
	assert.NotErrorIs(t, err, hazmat.ErrMalformedEncoding)
}

func TestParseResponseEmbeddedCertificateDidNotSign(t *testing.T) {
	pki := newTestPKI(t)
	tmpl := responseTemplate(t, pki)
	tmpl.Certificate = pki.responder

	// Embeds the responder but signs with the CA key.
	der, err := xocsp.CreateResponse(pki.ca, pki.responder, tmpl, pki.caKey)
	require.NoError(t, err)

	_, err = ParseResponse(der, pki.ca)
	require.ErrorIs(t, err, hazmat.ErrVerification)
}

func TestParseResponseErrorStatus(t *testing.T) {
	pki := newTestPKI(t)
	_, err := ParseResponse(xocsp.UnauthorizedErrorResponse, pki.ca)
	require.ErrorIs(t, err, hazmat.ErrInvalidStructure)
}

func TestSplitCertificates(t *testing.T) {
	pki := newTestPKI(t)
	tmpl := responseTemplate(t, pki)

	plain, err := xocsp.CreateResponse(pki.ca, pki.ca, tmpl, pki.caKey)
	require.NoError(t, err)
	unsigned, certs, ok := splitCertificates(plain)
	require.True(t, ok)
	assert.Empty(t, certs)
	assert.Equal(t, plain, unsigned)

	tmpl.Certificate = pki.responder
	delegated, err := xocsp.CreateResponse(pki.ca, pki.responder, tmpl, pki.respKey)
	require.NoError(t, err)
	unsigned, certs, ok = splitCertificates(delegated)
	require.True(t, ok)
	require.Len(t, certs, 1)
	assert.Equal(t, pki.responder.Raw, certs[0])

	parsed, err := xocsp.ParseResponse(unsigned, nil)
	require.NoError(t, err)
	assert.Nil(t, parsed.Certificate)

	_, _, ok = splitCertificates(delegated[:len(delegated)-1])
	assert.False(t, ok)
}
