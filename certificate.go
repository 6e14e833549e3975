package sealkit

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// ParsePEMCertificates parses all certificates from a PEM bundle.
func ParsePEMCertificates(pemData []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate
	rest := pemData
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parsing certificate: %w", err)
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, errors.New("no certificates found in PEM data")
	}
	return certs, nil
}

// ParseCertificatesAny attempts to parse certificates from raw bytes. PEM
// armored data is parsed as PEM only (may contain multiple certs); anything
// else is tried as DER (single cert, the usual directory attribute form),
// then PKCS#7/P7C.
func ParseCertificatesAny(data []byte) ([]*x509.Certificate, error) {
	if IsPEM(data) {
		return ParsePEMCertificates(data)
	}
	cert, derErr := x509.ParseCertificate(data)
	if derErr == nil {
		return []*x509.Certificate{cert}, nil
	}
	certs, p7Err := DecodePKCS7(data)
	if p7Err == nil {
		return certs, nil
	}
	return nil, fmt.Errorf("not PEM, DER (%v) or PKCS#7 (%v)", derErr, p7Err)
}

// ParseCertificate returns the first certificate found in DER, PEM, or
// PKCS#7 data.
func ParseCertificate(data []byte) (*x509.Certificate, error) {
	certs, err := ParseCertificatesAny(data)
	if err != nil {
		return nil, err
	}
	return certs[0], nil
}

// CertToPEM encodes a certificate as PEM.
func CertToPEM(cert *x509.Certificate) string {
	return string(pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: cert.Raw,
	}))
}

// IsPEM returns true if the data appears to contain PEM-encoded content.
func IsPEM(data []byte) bool {
	return bytes.Contains(data, []byte("-----BEGIN"))
}
