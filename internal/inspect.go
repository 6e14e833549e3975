package internal

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sensiblebit/sealkit"
	"gopkg.in/yaml.v3"
)

// InspectResult describes one key store entry or certificate.
type InspectResult struct {
	Source      string `json:"source" yaml:"source"`
	Alias       string `json:"alias,omitempty" yaml:"alias,omitempty"`
	Subject     string `json:"subject" yaml:"subject"`
	Issuer      string `json:"issuer,omitempty" yaml:"issuer,omitempty"`
	Serial      string `json:"serial,omitempty" yaml:"serial,omitempty"`
	NotAfter    string `json:"not_after,omitempty" yaml:"notAfter,omitempty"`
	KeyAlgo     string `json:"key_algorithm" yaml:"keyAlgorithm"`
	KeySize     string `json:"key_size,omitempty" yaml:"keySize,omitempty"`
	HasKey      bool   `json:"has_private_key" yaml:"hasPrivateKey"`
	Transform   string `json:"transform,omitempty" yaml:"transform,omitempty"`
	Fingerprint string `json:"key_fingerprint,omitempty" yaml:"keyFingerprint,omitempty"`
	SHA256      string `json:"sha256_fingerprint" yaml:"sha256Fingerprint"`
}

// InspectFile describes the certificates in a certificate file or the
// entries of a key store. password is only called for key stores.
func InspectFile(path string, password func() (string, error)) ([]InspectResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if !sealkit.IsJKS(data) {
		if certs, err := sealkit.ParseCertificatesAny(data); err == nil {
			results := make([]InspectResult, 0, len(certs))
			for _, cert := range certs {
				results = append(results, inspectCert(cert, "certificate", "", false))
			}
			return results, nil
		}
		slog.Debug("not a certificate file, trying key store", "path", path)
	}

	pwd, err := password()
	if err != nil {
		return nil, err
	}
	ks, err := sealkit.LoadKeyStoreData(data, pwd)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	var results []InspectResult
	for _, e := range ks.Entries() {
		results = append(results, inspectCert(e.Certificate, string(ks.Format), e.Alias, e.HasKey))
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no entries found in %s", path)
	}
	return results, nil
}

func inspectCert(cert *x509.Certificate, source, alias string, hasKey bool) InspectResult {
	r := InspectResult{
		Source:   source,
		Alias:    alias,
		Subject:  sealkit.SubjectDN(cert).String(),
		Issuer:   sealkit.IssuerDN(cert).String(),
		Serial:   cert.SerialNumber.String(),
		NotAfter: cert.NotAfter.UTC().Format(time.RFC3339),
		KeyAlgo:  sealkit.KeyAlgorithm(cert.PublicKey),
		KeySize:  publicKeySize(cert.PublicKey),
		HasKey:   hasKey,
		SHA256:   sealkit.CertFingerprint(cert),
	}
	if t, err := sealkit.SelectTransform(cert.PublicKey); err == nil {
		r.Transform = t.String()
	}
	if fp, err := sealkit.KeyFingerprint(cert.PublicKey); err == nil {
		r.Fingerprint = fp
	}
	return r
}

func publicKeySize(pub any) string {
	switch k := pub.(type) {
	case *rsa.PublicKey:
		return fmt.Sprintf("%d bits", k.N.BitLen())
	case *ecdsa.PublicKey:
		return k.Curve.Params().Name
	case ed25519.PublicKey:
		return "256 bits"
	default:
		return ""
	}
}

// FormatInspectResults renders results as text, json, or yaml.
func FormatInspectResults(results []InspectResult, format string) (string, error) {
	switch format {
	case "text":
		return formatInspectText(results), nil
	case "json":
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshaling JSON: %w", err)
		}
		return string(data) + "\n", nil
	case "yaml":
		data, err := yaml.Marshal(results)
		if err != nil {
			return "", fmt.Errorf("marshaling YAML: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use text, json, or yaml)", format)
	}
}

func formatInspectText(results []InspectResult) string {
	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n")
		}
		if r.Alias != "" {
			fmt.Fprintf(&sb, "Entry %q (%s):\n", r.Alias, r.Source)
		} else {
			fmt.Fprintf(&sb, "Certificate:\n")
		}
		fmt.Fprintf(&sb, "  Subject:     %s\n", r.Subject)
		fmt.Fprintf(&sb, "  Issuer:      %s\n", r.Issuer)
		fmt.Fprintf(&sb, "  Serial:      %s\n", r.Serial)
		fmt.Fprintf(&sb, "  Not After:   %s\n", r.NotAfter)
		fmt.Fprintf(&sb, "  Key:         %s %s\n", r.KeyAlgo, r.KeySize)
		if r.Alias != "" {
			fmt.Fprintf(&sb, "  Private Key: %s\n", yesNo(r.HasKey))
		}
		if r.Transform != "" {
			fmt.Fprintf(&sb, "  Transform:   %s\n", r.Transform)
		}
		if r.Fingerprint != "" {
			fmt.Fprintf(&sb, "  Key FP:      %s\n", r.Fingerprint)
		}
		fmt.Fprintf(&sb, "  SHA-256:     %s\n", r.SHA256)
	}
	return sb.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
