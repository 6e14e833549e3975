package internal

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// testIdentity holds a self-signed certificate and its private key.
type testIdentity struct {
	cert    *x509.Certificate
	certPEM []byte
	certDER []byte
	key     crypto.Signer
}

// testRSAKey returns a shared 2048-bit RSA key. Generating one per test
// dominates the run time of this package.
var testRSAKey = sync.OnceValues(func() (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, 2048)
})

// newRSAIdentity creates a self-signed RSA certificate for name.
func newRSAIdentity(t *testing.T, name pkix.Name) testIdentity {
	t.Helper()
	key, err := testRSAKey()
	if err != nil {
		t.Fatalf("generate RSA key: %v", err)
	}
	return newIdentity(t, key, name)
}

// newECDSAIdentity creates a self-signed P-256 certificate for name.
func newECDSAIdentity(t *testing.T, name pkix.Name) testIdentity {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate ECDSA key: %v", err)
	}
	return newIdentity(t, key, name)
}

func newIdentity(t *testing.T, key crypto.Signer, name pkix.Name) testIdentity {
	t.Helper()
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(42),
		Subject:      name,
		NotBefore:    time.Now().Add(-1 * time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, key.Public(), key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}
	return testIdentity{
		cert:    cert,
		certPEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		certDER: der,
		key:     key,
	}
}

func partnerName() pkix.Name {
	return pkix.Name{CommonName: "partner", Organization: []string{"Example"}, Country: []string{"US"}}
}

// writeTestFile writes data under a fresh temp dir and returns its path.
func writeTestFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
