package sealkit

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pavlo-v-chernykh/keystore-go/v4"
)

// jksMagic opens every Java KeyStore file.
var jksMagic = []byte{0xFE, 0xED, 0xFE, 0xED}

// IsJKS reports whether data starts with the JKS magic number.
func IsJKS(data []byte) bool {
	return bytes.HasPrefix(data, jksMagic)
}

type jksKeys struct {
	ks keystore.KeyStore
}

// loadJKS parses a Java KeyStore. Data without the JKS magic yields
// errFormatMismatch so the caller can try the next format. Entries are
// enumerated in alphabetical alias order. A store that parses but fails its
// integrity digest was opened with the wrong password.
func loadJKS(data []byte, password string) (*KeyStore, error) {
	if !IsJKS(data) {
		return nil, errFormatMismatch
	}

	ks := keystore.New(keystore.WithOrderedAliases())
	if err := ks.Load(bytes.NewReader(data), []byte(password)); err != nil {
		if isJKSDigestError(err) {
			return nil, fmt.Errorf("%w: JKS integrity check failed", ErrBadPassword)
		}
		return nil, fmt.Errorf("%w: loading JKS: %w", ErrBadFormat, err)
	}

	var entries []Entry
	for _, alias := range ks.Aliases() {
		switch {
		case ks.IsPrivateKeyEntry(alias):
			chain, err := ks.GetPrivateKeyEntryCertificateChain(alias)
			if err != nil || len(chain) == 0 {
				slog.Debug("skipping JKS private key entry without chain", "alias", alias, "error", err)
				continue
			}
			certs, err := parseJKSChain(chain)
			if err != nil {
				slog.Debug("skipping JKS private key entry", "alias", alias, "error", err)
				continue
			}
			entries = append(entries, Entry{Alias: alias, Certificate: certs[0], Chain: certs, HasKey: true})
		case ks.IsTrustedCertificateEntry(alias):
			entry, err := ks.GetTrustedCertificateEntry(alias)
			if err != nil {
				slog.Debug("skipping JKS trusted entry", "alias", alias, "error", err)
				continue
			}
			cert, err := x509.ParseCertificate(entry.Certificate.Content)
			if err != nil {
				slog.Debug("skipping JKS trusted entry", "alias", alias, "error", err)
				continue
			}
			entries = append(entries, Entry{Alias: alias, Certificate: cert, Chain: []*x509.Certificate{cert}})
		}
	}

	return &KeyStore{Format: FormatJKS, entries: entries, keys: jksKeys{ks: ks}}, nil
}

func parseJKSChain(chain []keystore.Certificate) ([]*x509.Certificate, error) {
	certs := make([]*x509.Certificate, 0, len(chain))
	for _, c := range chain {
		cert, err := x509.ParseCertificate(c.Content)
		if err != nil {
			return nil, fmt.Errorf("parsing certificate: %w", err)
		}
		certs = append(certs, cert)
	}
	return certs, nil
}

func (k jksKeys) privateKey(alias, password string) (crypto.PrivateKey, error) {
	entry, err := k.ks.GetPrivateKeyEntry(alias, []byte(password))
	if err != nil {
		if isJKSDigestError(err) {
			return nil, fmt.Errorf("%w: recovering JKS key %q", ErrBadPassword, alias)
		}
		return nil, fmt.Errorf("recovering JKS key %q: %w", alias, err)
	}
	key, err := x509.ParsePKCS8PrivateKey(entry.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("parsing PKCS#8 key %q: %w", alias, err)
	}
	return key, nil
}

// isJKSDigestError reports whether err is keystore-go's digest mismatch,
// which it returns for both the store and key-entry passwords.
func isJKSDigestError(err error) bool {
	return strings.Contains(err.Error(), "invalid digest")
}

// EncodeJKS creates a Java KeyStore (JKS) containing a private key entry with
// its certificate chain under alias. The same password protects both the
// store and the key entry (standard Java convention).
func EncodeJKS(privateKey crypto.PrivateKey, leaf *x509.Certificate, caCerts []*x509.Certificate, alias, password string) ([]byte, error) {
	if leaf == nil {
		return nil, fmt.Errorf("leaf certificate cannot be nil")
	}
	pkcs8Key, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("marshaling private key to PKCS#8: %w", err)
	}

	chain := []keystore.Certificate{
		{Type: "X.509", Content: leaf.Raw},
	}
	for _, ca := range caCerts {
		chain = append(chain, keystore.Certificate{
			Type:    "X.509",
			Content: ca.Raw,
		})
	}

	ks := keystore.New()
	if err := ks.SetPrivateKeyEntry(alias, keystore.PrivateKeyEntry{
		CreationTime:     time.Now(),
		PrivateKey:       pkcs8Key,
		CertificateChain: chain,
	}, []byte(password)); err != nil {
		return nil, fmt.Errorf("setting JKS private key entry: %w", err)
	}

	var buf bytes.Buffer
	if err := ks.Store(&buf, []byte(password)); err != nil {
		return nil, fmt.Errorf("storing JKS: %w", err)
	}

	return buf.Bytes(), nil
}
