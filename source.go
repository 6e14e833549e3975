package sealkit

import (
	"crypto/x509"
	"fmt"
	"log/slog"
)

// Key origins reported in ResolvedKey.Origin.
const (
	OriginKeyStore    = "keystore"
	OriginCertificate = "certificate"
	OriginDirectory   = "directory"
)

// ResolvedKey is the result of a key lookup. It is handed to the caller and
// not retained.
type ResolvedKey struct {
	// Key is *rsa.PublicKey, *rsa.PrivateKey, or another crypto key type.
	Key         any
	Subject     DN
	Alias       string
	Algorithm   string
	Origin      string
	Certificate *x509.Certificate
}

// KeySource resolves a key from one origin of key material.
type KeySource interface {
	Resolve() (*ResolvedKey, error)
}

// KeyStoreSource resolves a key from a JKS or PKCS#12 key store entry.
type KeyStoreSource struct {
	Path          string
	StorePassword string
	// EntryPassword unlocks the private key; empty means StorePassword.
	EntryPassword string
	// Subject selects the entry; empty selects the first entry.
	Subject DN
	// Private selects the entry's private key instead of its certificate's
	// public key.
	Private bool
}

// Resolve loads the key store and extracts the selected key. Private key
// resolution or extraction failures wrap ErrKeyNotFound.
func (s KeyStoreSource) Resolve() (*ResolvedKey, error) {
	ks, err := LoadKeyStore(s.Path, s.StorePassword)
	if err != nil {
		return nil, err
	}
	res, err := ResolveSubject(ks, s.Subject)
	if err != nil {
		if s.Private {
			return nil, fmt.Errorf("%w: %w", ErrKeyNotFound, err)
		}
		return nil, fmt.Errorf("resolving %s: %w", s.Path, err)
	}

	resolved := &ResolvedKey{
		Subject:     res.Subject,
		Alias:       res.Alias,
		Origin:      OriginKeyStore,
		Certificate: res.Certificate,
	}
	if s.Private {
		entryPassword := s.EntryPassword
		if entryPassword == "" {
			entryPassword = s.StorePassword
		}
		key, err := ks.PrivateKey(res.Alias, entryPassword)
		if err != nil {
			slog.Warn("private key not recovered", "path", s.Path, "alias", res.Alias, "error", err)
			return nil, fmt.Errorf("%w: %s in %s: %w", ErrKeyNotFound, res.Subject, s.Path, err)
		}
		resolved.Key = key
	} else {
		resolved.Key = res.Certificate.PublicKey
	}
	resolved.Algorithm = KeyAlgorithm(resolved.Key)
	return resolved, nil
}

// CertificateFileSource resolves the public key of a DER, PEM, or PKCS#7
// certificate file.
type CertificateFileSource struct {
	Path string
	// Subject, when set, must equal the certificate subject.
	Subject DN
}

// Resolve reads and parses the certificate file.
func (s CertificateFileSource) Resolve() (*ResolvedKey, error) {
	data, err := readFile(s.Path)
	if err != nil {
		return nil, err
	}
	resolved, err := PublicKeyFromCertificate(data, s.Subject)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return resolved, nil
}

// PublicKeyFromCertificate parses a certificate from DER, PEM, or PKCS#7 data
// and returns its public key. A non-empty subject must equal the certificate
// subject or ErrDNMismatch is returned.
func PublicKeyFromCertificate(data []byte, subject DN) (*ResolvedKey, error) {
	cert, err := ParseCertificate(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadFormat, err)
	}
	actual := SubjectDN(cert)
	if !subject.IsEmpty() && !subject.Equal(actual) {
		return nil, fmt.Errorf("%w: want %q, certificate has %q", ErrDNMismatch, subject, actual)
	}
	return &ResolvedKey{
		Key:         cert.PublicKey,
		Subject:     actual,
		Algorithm:   KeyAlgorithm(cert.PublicKey),
		Origin:      OriginCertificate,
		Certificate: cert,
	}, nil
}

// PrivateKeyFromKeyStore resolves a private key whose entry password equals
// the store password.
func PrivateKeyFromKeyStore(path, password string, subject DN) (*ResolvedKey, error) {
	return KeyStoreSource{Path: path, StorePassword: password, Subject: subject, Private: true}.Resolve()
}

// PublicKeyFromKeyStore resolves the public key of a key store entry.
func PublicKeyFromKeyStore(path, password string, subject DN) (*ResolvedKey, error) {
	return KeyStoreSource{Path: path, StorePassword: password, Subject: subject}.Resolve()
}

// PublicKeyFromCertificateFile resolves the public key of a certificate file.
func PublicKeyFromCertificateFile(path string, subject DN) (*ResolvedKey, error) {
	return CertificateFileSource{Path: path, Subject: subject}.Resolve()
}
