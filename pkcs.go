package sealkit

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"
	"strings"

	"github.com/smallstep/pkcs7"
	gopkcs12 "software.sslmate.com/src/go-pkcs12"
)

type pkcs12Keys struct {
	data      []byte
	leafAlias string
}

// loadPKCS12 parses a PKCS#12 file holding either one private key with its
// chain or, failing that, a certificates-only trust store.
func loadPKCS12(data []byte, password string) (*KeyStore, error) {
	privateKey, leaf, caCerts, err := gopkcs12.DecodeChain(data, password)
	if err == nil {
		alias := pkcs12Alias(leaf, 0)
		entries := []Entry{{
			Alias:       alias,
			Certificate: leaf,
			Chain:       append([]*x509.Certificate{leaf}, caCerts...),
			HasKey:      privateKey != nil,
		}}
		for i, ca := range caCerts {
			entries = append(entries, Entry{Alias: pkcs12Alias(ca, i+1), Certificate: ca, Chain: []*x509.Certificate{ca}})
		}
		return &KeyStore{Format: FormatPKCS12, entries: entries, keys: pkcs12Keys{data: data, leafAlias: alias}}, nil
	}
	if isPKCS12PasswordError(err) {
		return nil, fmt.Errorf("%w: decoding PKCS#12: %w", ErrBadPassword, err)
	}

	certs, tsErr := gopkcs12.DecodeTrustStore(data, password)
	if tsErr == nil && len(certs) > 0 {
		entries := make([]Entry, 0, len(certs))
		for i, cert := range certs {
			entries = append(entries, Entry{Alias: pkcs12Alias(cert, i), Certificate: cert, Chain: []*x509.Certificate{cert}})
		}
		return &KeyStore{Format: FormatPKCS12, entries: entries, keys: pkcs12Keys{data: data}}, nil
	}
	if isPKCS12PasswordError(tsErr) {
		return nil, fmt.Errorf("%w: decoding PKCS#12 trust store: %w", ErrBadPassword, tsErr)
	}

	return nil, fmt.Errorf("%w: not JKS or PKCS#12: %w", ErrBadFormat, err)
}

func isPKCS12PasswordError(err error) bool {
	return errors.Is(err, gopkcs12.ErrIncorrectPassword) || errors.Is(err, gopkcs12.ErrDecryption)
}

// pkcs12Alias names a PKCS#12 entry after its certificate common name, since
// friendly names are not exposed by the decoder.
func pkcs12Alias(cert *x509.Certificate, index int) string {
	if cn := strings.TrimSpace(cert.Subject.CommonName); cn != "" {
		return strings.ToLower(cn)
	}
	return fmt.Sprintf("entry-%d", index)
}

// privateKey decodes the store again with the entry password; PKCS#12 bags
// share one password with the container.
func (k pkcs12Keys) privateKey(alias, password string) (crypto.PrivateKey, error) {
	if alias != k.leafAlias {
		return nil, fmt.Errorf("%w: alias %q holds no private key", ErrNotFound, alias)
	}
	key, _, _, err := gopkcs12.DecodeChain(k.data, password)
	if err != nil {
		return nil, fmt.Errorf("recovering PKCS#12 key %q: %w", alias, err)
	}
	return key, nil
}

// validatePKCS12KeyType checks that the private key is a supported type for PKCS#12 encoding.
func validatePKCS12KeyType(privateKey crypto.PrivateKey) error {
	switch privateKey.(type) {
	case *rsa.PrivateKey, *ecdsa.PrivateKey, ed25519.PrivateKey:
		return nil
	default:
		return fmt.Errorf("unsupported private key type %T", privateKey)
	}
}

// EncodePKCS12 creates a PKCS#12/PFX bundle from a private key, leaf cert,
// CA chain, and password. Returns the DER-encoded PKCS#12 data.
func EncodePKCS12(privateKey crypto.PrivateKey, leaf *x509.Certificate, caCerts []*x509.Certificate, password string) ([]byte, error) {
	if err := validatePKCS12KeyType(privateKey); err != nil {
		return nil, err
	}
	if leaf == nil {
		return nil, fmt.Errorf("leaf certificate cannot be nil")
	}
	return gopkcs12.Modern.Encode(privateKey, leaf, caCerts, password)
}

// EncodePKCS12TrustStore creates a certificates-only PKCS#12 trust store.
func EncodePKCS12TrustStore(certs []*x509.Certificate, password string) ([]byte, error) {
	if len(certs) == 0 {
		return nil, errors.New("no certificates to encode")
	}
	return gopkcs12.Modern.EncodeTrustStore(certs, password)
}

// DecodePKCS7 decodes a DER-encoded PKCS#7 bundle and returns the certificates it contains.
// Returns an error if decoding fails or the bundle contains no certificates.
func DecodePKCS7(derData []byte) ([]*x509.Certificate, error) {
	p7, err := pkcs7.Parse(derData)
	if err != nil {
		return nil, fmt.Errorf("parsing PKCS#7: %w", err)
	}
	if len(p7.Certificates) == 0 {
		return nil, errors.New("PKCS#7 bundle contains no certificates")
	}
	return p7.Certificates, nil
}

// EncodePKCS7 creates a certs-only PKCS#7/P7B bundle from a certificate chain.
// Returns the DER-encoded PKCS#7 SignedData structure.
func EncodePKCS7(certs []*x509.Certificate) ([]byte, error) {
	if len(certs) == 0 {
		return nil, errors.New("no certificates to encode")
	}
	var derBytes []byte
	for _, cert := range certs {
		derBytes = append(derBytes, cert.Raw...)
	}
	return pkcs7.DegenerateCertificate(derBytes)
}
