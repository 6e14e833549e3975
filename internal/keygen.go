package internal

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/sensiblebit/sealkit"
)

// KeygenOptions holds parameters for identity generation.
type KeygenOptions struct {
	Subject  string
	Bits     int
	Days     int
	OutPath  string
	Alias    string
	Password string
}

// KeygenResult reports a generated identity.
type KeygenResult struct {
	Path        string
	Format      sealkit.Format
	Alias       string
	Subject     sealkit.DN
	Fingerprint string
}

// GenerateSessionKeyHex returns a fresh DESede session key as hex.
func GenerateSessionKeyHex() (string, error) {
	key, err := sealkit.GenerateDESedeKey()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key.Material), nil
}

// ParseSessionKeyHex decodes a hex DESede session key.
func ParseSessionKeyHex(s string) (sealkit.SecretKey, error) {
	material, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return sealkit.SecretKey{}, fmt.Errorf("decoding session key: %w", err)
	}
	if len(material) != 16 && len(material) != 24 {
		return sealkit.SecretKey{}, fmt.Errorf("session key must be 16 or 24 bytes, got %d", len(material))
	}
	return sealkit.SecretKey{Algorithm: sealkit.AlgorithmDESede, Material: material}, nil
}

// GenerateIdentity creates an RSA key and a self-signed certificate for the
// subject and writes them as a key store. The format follows the file
// extension: .p12 and .pfx produce PKCS#12, anything else JKS.
func GenerateIdentity(opts KeygenOptions) (*KeygenResult, error) {
	if opts.OutPath == "" {
		return nil, fmt.Errorf("output path is required")
	}
	if len(opts.Password) < 6 {
		return nil, fmt.Errorf("store password must be at least 6 characters")
	}
	name, err := SubjectName(opts.Subject)
	if err != nil {
		return nil, err
	}
	bits := opts.Bits
	if bits == 0 {
		bits = 2048
	}
	days := opts.Days
	if days == 0 {
		days = 365
	}

	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("generating RSA key: %w", err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 127))
	if err != nil {
		return nil, fmt.Errorf("generating serial: %w", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      name,
		NotBefore:    time.Now().Add(-5 * time.Minute),
		NotAfter:     time.Now().AddDate(0, 0, days),
		KeyUsage:     x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("creating certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("parsing certificate: %w", err)
	}

	alias := opts.Alias
	if alias == "" {
		alias = strings.ToLower(name.CommonName)
	}
	if alias == "" {
		alias = "sealkit"
	}

	var data []byte
	format := sealkit.FormatJKS
	switch strings.ToLower(filepath.Ext(opts.OutPath)) {
	case ".p12", ".pfx":
		format = sealkit.FormatPKCS12
		data, err = sealkit.EncodePKCS12(key, cert, nil, opts.Password)
	default:
		data, err = sealkit.EncodeJKS(key, cert, nil, alias, opts.Password)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", format, err)
	}
	if err := os.WriteFile(opts.OutPath, data, 0600); err != nil {
		return nil, fmt.Errorf("writing %s: %w", opts.OutPath, err)
	}

	fingerprint, err := sealkit.KeyFingerprint(key)
	if err != nil {
		return nil, err
	}
	return &KeygenResult{
		Path:        opts.OutPath,
		Format:      format,
		Alias:       alias,
		Subject:     sealkit.SubjectDN(cert),
		Fingerprint: fingerprint,
	}, nil
}

var oidEmailAddress = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 1}

// SubjectName converts a DN string into a pkix.Name. Attributes without a
// pkix.Name field are carried as extra names when given by OID.
func SubjectName(dn string) (pkix.Name, error) {
	var name pkix.Name
	parsed, err := ldap.ParseDN(dn)
	if err != nil {
		return name, fmt.Errorf("parsing subject %q: %w", dn, err)
	}
	if len(parsed.RDNs) == 0 {
		return name, fmt.Errorf("subject is empty")
	}
	// DN strings list the most specific RDN first.
	for i := len(parsed.RDNs) - 1; i >= 0; i-- {
		for _, atv := range parsed.RDNs[i].Attributes {
			switch strings.ToUpper(atv.Type) {
			case "CN":
				name.CommonName = atv.Value
			case "O":
				name.Organization = append(name.Organization, atv.Value)
			case "OU":
				name.OrganizationalUnit = append(name.OrganizationalUnit, atv.Value)
			case "C":
				name.Country = append(name.Country, atv.Value)
			case "ST", "S":
				name.Province = append(name.Province, atv.Value)
			case "L":
				name.Locality = append(name.Locality, atv.Value)
			case "STREET":
				name.StreetAddress = append(name.StreetAddress, atv.Value)
			case "POSTALCODE":
				name.PostalCode = append(name.PostalCode, atv.Value)
			case "SERIALNUMBER":
				name.SerialNumber = atv.Value
			case "E", "EMAIL", "EMAILADDRESS":
				name.ExtraNames = append(name.ExtraNames, pkix.AttributeTypeAndValue{Type: oidEmailAddress, Value: atv.Value})
			default:
				return name, fmt.Errorf("unsupported subject attribute %q", atv.Type)
			}
		}
	}
	return name, nil
}
