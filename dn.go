package sealkit

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"slices"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// DN is a distinguished name such as "CN=partner, O=Example, C=US".
//
// Equality treats a DN as an unordered multiset of attribute=value tokens
// compared case-insensitively, so "CN=a, O=b" equals "o=B,cn=A".
type DN string

// IsEmpty reports whether the DN carries no tokens.
func (d DN) IsEmpty() bool {
	return strings.TrimSpace(string(d)) == ""
}

// String returns the DN text.
func (d DN) String() string {
	return string(d)
}

// Equal reports whether d and other hold the same attribute=value tokens,
// ignoring order and case.
func (d DN) Equal(other DN) bool {
	return slices.Equal(d.Tokens(), other.Tokens())
}

// Tokens returns the normalized, sorted attribute=value tokens of the DN.
// Attribute names are upper-cased and well-known aliases collapsed; values are
// lower-cased.
func (d DN) Tokens() []string {
	if d.IsEmpty() {
		return nil
	}
	var tokens []string
	if parsed, err := ldap.ParseDN(string(d)); err == nil {
		for _, rdn := range parsed.RDNs {
			for _, atv := range rdn.Attributes {
				tokens = append(tokens, dnToken(atv.Type, atv.Value))
			}
		}
	} else {
		// Not RFC 4514, e.g. RFC 2253 quoted values such as O="Example, Inc".
		for _, part := range splitDN(string(d)) {
			attr, value, _ := strings.Cut(part, "=")
			tokens = append(tokens, dnToken(attr, unquoteDNValue(value)))
		}
	}
	slices.Sort(tokens)
	return tokens
}

// splitDN splits a DN on the commas and semicolons that separate RDNs,
// skipping separators inside double quotes or escaped with a backslash.
func splitDN(s string) []string {
	var parts []string
	var cur strings.Builder
	quoted, escaped := false, false
	flush := func() {
		if part := strings.TrimSpace(cur.String()); part != "" {
			parts = append(parts, part)
		}
		cur.Reset()
	}
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			quoted = !quoted
		case (r == ',' || r == ';') && !quoted:
			flush()
			continue
		}
		cur.WriteRune(r)
	}
	flush()
	return parts
}

// unquoteDNValue strips surrounding double quotes and backslash escapes.
func unquoteDNValue(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		v = v[1 : len(v)-1]
	}
	if !strings.Contains(v, "\\") {
		return v
	}
	var b strings.Builder
	escaped := false
	for _, r := range v {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

// DNEquals reports whether two distinguished name strings are equal in an
// order- and case-independent way.
func DNEquals(a, b string) bool {
	return DN(a).Equal(DN(b))
}

var attributeAliases = map[string]string{
	"E":                    "EMAILADDRESS",
	"EMAIL":                "EMAILADDRESS",
	"1.2.840.113549.1.9.1": "EMAILADDRESS",
	"S":                    "ST",
	"2.5.4.3":              "CN",
	"2.5.4.6":              "C",
	"2.5.4.7":              "L",
	"2.5.4.8":              "ST",
	"2.5.4.10":             "O",
	"2.5.4.11":             "OU",
}

func dnToken(attr, value string) string {
	attr = strings.ToUpper(strings.TrimSpace(attr))
	if alias, ok := attributeAliases[attr]; ok {
		attr = alias
	}
	return attr + "=" + strings.ToLower(strings.TrimSpace(value))
}

var attributeNames = map[string]string{
	"2.5.4.3":                    "CN",
	"2.5.4.4":                    "SURNAME",
	"2.5.4.5":                    "SERIALNUMBER",
	"2.5.4.6":                    "C",
	"2.5.4.7":                    "L",
	"2.5.4.8":                    "ST",
	"2.5.4.9":                    "STREET",
	"2.5.4.10":                   "O",
	"2.5.4.11":                   "OU",
	"2.5.4.12":                   "T",
	"2.5.4.17":                   "POSTALCODE",
	"2.5.4.42":                   "GIVENNAME",
	"0.9.2342.19200300.100.1.1":  "UID",
	"0.9.2342.19200300.100.1.25": "DC",
	"1.2.840.113549.1.9.1":       "EMAILADDRESS",
}

// SubjectDN returns the certificate subject formatted most-specific first,
// e.g. "CN=partner, OU=Ops, O=Example, C=US". Multi-valued RDNs are joined
// with "+".
func SubjectDN(cert *x509.Certificate) DN {
	if cert == nil {
		return ""
	}
	return rawNameDN(cert.RawSubject, cert.Subject)
}

// IssuerDN formats the certificate issuer the same way as SubjectDN, so a
// self-signed certificate reports identical subject and issuer.
func IssuerDN(cert *x509.Certificate) DN {
	if cert == nil {
		return ""
	}
	return rawNameDN(cert.RawIssuer, cert.Issuer)
}

func rawNameDN(raw []byte, parsed pkix.Name) DN {
	var seq pkix.RDNSequence
	if rest, err := asn1.Unmarshal(raw, &seq); err != nil || len(rest) > 0 {
		return DN(parsed.String())
	}
	return formatRDNSequence(seq)
}

func formatRDNSequence(seq pkix.RDNSequence) DN {
	parts := make([]string, 0, len(seq))
	for i := len(seq) - 1; i >= 0; i-- {
		rdn := seq[i]
		atvs := make([]string, 0, len(rdn))
		for _, atv := range rdn {
			name, ok := attributeNames[atv.Type.String()]
			if !ok {
				name = atv.Type.String()
			}
			atvs = append(atvs, name+"="+escapeDNValue(fmt.Sprint(atv.Value)))
		}
		parts = append(parts, strings.Join(atvs, "+"))
	}
	return DN(strings.Join(parts, ", "))
}

// escapeDNValue escapes an attribute value per RFC 4514 so the formatted DN
// parses back to the same tokens.
func escapeDNValue(v string) string {
	var b strings.Builder
	for i, r := range v {
		switch {
		case strings.ContainsRune(`,+"\<>;`, r):
			b.WriteByte('\\')
		case i == 0 && (r == '#' || r == ' '):
			b.WriteByte('\\')
		case i == len(v)-1 && r == ' ':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
