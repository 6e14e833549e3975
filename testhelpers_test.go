package sealkit

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pavlo-v-chernykh/keystore-go/v4"
)

// RSA key generation dominates test time; identities share a small pool.
var testRSAKeys = sync.OnceValues(func() ([]*rsa.PrivateKey, error) {
	keys := make([]*rsa.PrivateKey, 3)
	for i := range keys {
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}
	return keys, nil
})

// testRSAKey returns pooled RSA key n (0-2).
func testRSAKey(t *testing.T, n int) *rsa.PrivateKey {
	t.Helper()
	keys, err := testRSAKeys()
	if err != nil {
		t.Fatalf("generate RSA keys: %v", err)
	}
	return keys[n%len(keys)]
}

// testIdentity is a self-signed RSA certificate and its key.
type testIdentity struct {
	key  *rsa.PrivateKey
	cert *x509.Certificate
}

// newIdentity creates a self-signed certificate for subject with pooled key n.
func newIdentity(t *testing.T, n int, subject pkix.Name) testIdentity {
	t.Helper()
	key := testRSAKey(t, n)
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      subject,
		NotBefore:    time.Now().Add(-1 * time.Hour),
		NotAfter:     time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}
	return testIdentity{key: key, cert: cert}
}

func partnerName() pkix.Name {
	return pkix.Name{CommonName: "partner", Organization: []string{"Example"}, Country: []string{"US"}}
}

func otherName() pkix.Name {
	return pkix.Name{CommonName: "other", Organization: []string{"Elsewhere"}, Country: []string{"CA"}}
}

// jksEntry describes one entry for buildJKS. A nil key makes a trusted
// certificate entry.
type jksEntry struct {
	alias       string
	id          testIdentity
	withKey     bool
	keyPassword string
}

// buildJKS writes a JKS with entries in the given order.
func buildJKS(t *testing.T, storePassword string, entries ...jksEntry) []byte {
	t.Helper()
	ks := keystore.New(keystore.WithOrderedAliases())
	for _, e := range entries {
		chain := []keystore.Certificate{{Type: "X.509", Content: e.id.cert.Raw}}
		if !e.withKey {
			if err := ks.SetTrustedCertificateEntry(e.alias, keystore.TrustedCertificateEntry{
				CreationTime: time.Now(),
				Certificate:  chain[0],
			}); err != nil {
				t.Fatalf("set trusted entry %q: %v", e.alias, err)
			}
			continue
		}
		pkcs8, err := x509.MarshalPKCS8PrivateKey(e.id.key)
		if err != nil {
			t.Fatalf("marshal PKCS8: %v", err)
		}
		keyPassword := e.keyPassword
		if keyPassword == "" {
			keyPassword = storePassword
		}
		if err := ks.SetPrivateKeyEntry(e.alias, keystore.PrivateKeyEntry{
			CreationTime:     time.Now(),
			PrivateKey:       pkcs8,
			CertificateChain: chain,
		}, []byte(keyPassword)); err != nil {
			t.Fatalf("set private key entry %q: %v", e.alias, err)
		}
	}
	var buf bytes.Buffer
	if err := ks.Store(&buf, []byte(storePassword)); err != nil {
		t.Fatalf("store JKS: %v", err)
	}
	return buf.Bytes()
}

// writeTemp writes data to a file in a per-test temp directory.
func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
