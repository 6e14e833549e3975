package internal

import (
	"crypto/x509"
	"errors"
	"fmt"
	"strings"

	"github.com/sensiblebit/sealkit"
)

// ExportFormats lists the encodings accepted by EncodeCertificates.
var ExportFormats = []string{"pem", "der", "p7b", "p12"}

// SelectCertificate returns the certificate stored under alias or, when
// alias is empty, the certificate of the entry resolved for subject.
func SelectCertificate(ks *sealkit.KeyStore, alias string, subject sealkit.DN) (*x509.Certificate, error) {
	if alias != "" {
		return ks.Certificate(strings.ToLower(alias))
	}
	res, err := sealkit.ResolveSubject(ks, subject)
	if err != nil {
		return nil, err
	}
	return res.Certificate, nil
}

// EncodeCertificates renders certs for a partner to use as a certificate
// file: PEM, DER (single certificate), a PKCS#7 bundle, or a PKCS#12 trust
// store protected by password.
func EncodeCertificates(certs []*x509.Certificate, format, password string) ([]byte, error) {
	if len(certs) == 0 {
		return nil, errors.New("no certificates to export")
	}
	switch format {
	case "pem":
		var sb strings.Builder
		for _, cert := range certs {
			sb.WriteString(sealkit.CertToPEM(cert))
		}
		return []byte(sb.String()), nil
	case "der":
		if len(certs) > 1 {
			return nil, fmt.Errorf("DER holds one certificate, got %d", len(certs))
		}
		return certs[0].Raw, nil
	case "p7b":
		return sealkit.EncodePKCS7(certs)
	case "p12":
		if password == "" {
			return nil, errors.New("a PKCS#12 trust store needs a password")
		}
		return sealkit.EncodePKCS12TrustStore(certs, password)
	default:
		return nil, fmt.Errorf("unsupported export format %q (use %s)", format, strings.Join(ExportFormats, ", "))
	}
}
