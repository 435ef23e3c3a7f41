package rtc

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/webrtc-rs/rtc/pkg/rtcerr"
)

// DTLSFingerprint is one `a=fingerprint` value: a hash algorithm name and
// its lowercase-colon-hex digest over the certificate's DER encoding.
type DTLSFingerprint struct {
	Algorithm string
	Value     string
}

// Certificate authenticates the DTLS handshake (spec §4.4, §6 "Persisted
// state: none... Certificates may be supplied by the caller or generated
// fresh per peer connection"). Adapted from the teacher's certificate.go;
// only the SHA-256 fingerprint algorithm is computed, matching this
// module's single supported RemoteFingerprint.Algorithm value.
type Certificate struct {
	privateKey crypto.PrivateKey
	x509Cert   *x509.Certificate
	der        []byte
}

// NewCertificate wraps an existing key and x509 template into a Certificate,
// self-signing it.
func NewCertificate(key crypto.PrivateKey, tpl x509.Certificate) (*Certificate, error) {
	var der []byte
	var err error
	switch sk := key.(type) {
	case *rsa.PrivateKey:
		tpl.SignatureAlgorithm = x509.SHA256WithRSA
		der, err = x509.CreateCertificate(rand.Reader, &tpl, &tpl, sk.Public(), sk)
	case *ecdsa.PrivateKey:
		tpl.SignatureAlgorithm = x509.ECDSAWithSHA256
		der, err = x509.CreateCertificate(rand.Reader, &tpl, &tpl, sk.Public(), sk)
	default:
		return nil, &rtcerr.NotSupportedError{Err: fmt.Errorf("certificate: unsupported private key type %T", key)}
	}
	if err != nil {
		return nil, &rtcerr.UnknownError{Err: err}
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, &rtcerr.UnknownError{Err: err}
	}
	return &Certificate{privateKey: key, x509Cert: cert, der: der}, nil
}

// GenerateCertificate creates a fresh self-signed ECDSA P-256 certificate,
// the default when Configuration.Certificates is empty.
func GenerateCertificate() (*Certificate, error) {
	secretKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, &rtcerr.UnknownError{Err: err}
	}

	origin := make([]byte, 16)
	if _, err := rand.Read(origin); err != nil {
		return nil, &rtcerr.UnknownError{Err: err}
	}

	maxBigInt := new(big.Int).Exp(big.NewInt(2), big.NewInt(130), nil)
	maxBigInt.Sub(maxBigInt, big.NewInt(1))
	serialNumber, err := rand.Int(rand.Reader, maxBigInt)
	if err != nil {
		return nil, &rtcerr.UnknownError{Err: err}
	}

	return NewCertificate(secretKey, x509.Certificate{
		ExtKeyUsage: []x509.ExtKeyUsage{
			x509.ExtKeyUsageClientAuth,
			x509.ExtKeyUsageServerAuth,
		},
		BasicConstraintsValid: true,
		NotBefore:             time.Now(),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		NotAfter:              time.Now().AddDate(0, 1, 0),
		SerialNumber:          serialNumber,
		Version:               2,
		Subject:               pkix.Name{CommonName: hex.EncodeToString(origin)},
		IsCA:                  true,
	})
}

// Expires returns the timestamp after which the certificate is no longer
// valid.
func (c Certificate) Expires() time.Time {
	if c.x509Cert == nil {
		return time.Time{}
	}
	return c.x509Cert.NotAfter
}

// Fingerprint computes the SHA-256 fingerprint advertised in SDP.
func (c Certificate) Fingerprint() DTLSFingerprint {
	sum := sha256.Sum256(c.der)
	parts := make([]string, len(sum))
	for i, b := range sum {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	return DTLSFingerprint{Algorithm: "sha-256", Value: strings.Join(parts, ":")}
}

// tlsCertificate adapts this Certificate to the crypto/tls.Certificate
// shape internal/dtls.Config expects.
func (c Certificate) tlsCertificate() tls.Certificate {
	return tls.Certificate{
		Certificate: [][]byte{c.der},
		PrivateKey:  c.privateKey,
		Leaf:        c.x509Cert,
	}
}

// Equals reports whether two certificates carry the same key and x509 body.
func (c Certificate) Equals(o Certificate) bool {
	switch cSK := c.privateKey.(type) {
	case *ecdsa.PrivateKey:
		oSK, ok := o.privateKey.(*ecdsa.PrivateKey)
		if !ok {
			return false
		}
		return cSK.X.Cmp(oSK.X) == 0 && cSK.Y.Cmp(oSK.Y) == 0 && c.x509Cert.Equal(o.x509Cert)
	case *rsa.PrivateKey:
		oSK, ok := o.privateKey.(*rsa.PrivateKey)
		if !ok {
			return false
		}
		return cSK.N.Cmp(oSK.N) == 0 && c.x509Cert.Equal(o.x509Cert)
	default:
		return false
	}
}
