package sealkit

import (
	"crypto/x509/pkix"
	"testing"
)

func TestDNEquals(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", "CN=partner, O=Example, C=US", "CN=partner, O=Example, C=US", true},
		{"permuted", "CN=partner, O=Example, C=US", "C=US, CN=partner, O=Example", true},
		{"case_insensitive", "CN=partner, O=Example, C=US", "c=us,o=EXAMPLE,cn=Partner", true},
		{"no_spaces", "CN=partner,O=Example", "O=Example, CN=partner", true},
		{"email_alias", "E=ops@example.com, CN=partner", "CN=partner, EMAILADDRESS=ops@example.com", true},
		{"state_alias", "S=Ohio, CN=partner", "CN=partner, ST=Ohio", true},
		{"different_value", "CN=partner, O=Example", "CN=partner, O=Other", false},
		{"different_attribute", "CN=partner, O=Example", "CN=partner, OU=Example", false},
		{"extra_token", "CN=partner, O=Example", "CN=partner, O=Example, C=US", false},
		{"multiset_counts", "OU=a, OU=a, CN=x", "OU=a, CN=x", false},
		{"quoted_value_vs_escaped", `CN=partner, O="Example, Inc", C=US`, `CN=partner, O=Example\, Inc, C=US`, true},
		{"quoted_value_permuted", `CN=partner, O="Example, Inc"`, `o="EXAMPLE, INC", cn=Partner`, true},
		{"quoted_value_differs", `CN=partner, O="Example, Inc"`, `CN=partner, O=Example, O=Inc`, false},
		{"both_empty", "", "", true},
		{"one_empty", "", "CN=partner", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DNEquals(tt.a, tt.b); got != tt.want {
				t.Errorf("DNEquals(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := DNEquals(tt.b, tt.a); got != tt.want {
				t.Errorf("DNEquals(%q, %q) = %v, want %v (symmetry)", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestSubjectDN(t *testing.T) {
	// WHY: Resolution reports the subject in this form; it must read most
	// specific first and compare equal to the pkix.Name it came from.
	t.Parallel()
	id := newIdentity(t, 0, partnerName())

	got := SubjectDN(id.cert)
	if got != "CN=partner, O=Example, C=US" {
		t.Errorf("SubjectDN = %q", got)
	}
	if !got.Equal(DN(id.cert.Subject.String())) {
		t.Errorf("SubjectDN %q not equal to %q", got, id.cert.Subject.String())
	}
}

func TestSubjectDN_EscapedValues(t *testing.T) {
	// WHY: Values containing RFC 4514 specials must round-trip through the
	// DN parser, otherwise a formatted subject would not equal itself.
	t.Parallel()
	id := newIdentity(t, 1, pkix.Name{CommonName: "Smith, J+R", Organization: []string{"#hash"}})

	got := SubjectDN(id.cert)
	if !got.Equal(got) {
		t.Fatalf("SubjectDN %q is not self-equal", got)
	}
	if !got.Equal(`O=\#hash, CN=Smith\, J\+R`) {
		t.Errorf("SubjectDN = %q, tokens %v", got, got.Tokens())
	}
}

func TestDN_IsEmpty(t *testing.T) {
	t.Parallel()
	if !DN("  ").IsEmpty() {
		t.Error("whitespace DN should be empty")
	}
	if DN("CN=x").IsEmpty() {
		t.Error("CN=x should not be empty")
	}
	if DN("").Tokens() != nil {
		t.Error("empty DN should have no tokens")
	}
}

func TestSubjectDN_MatchesQuotedFilter(t *testing.T) {
	// WHY: Java renders subjects with quoted values (O="Example, Inc"); such
	// filters must match the subject as SubjectDN formats it.
	t.Parallel()
	id := newIdentity(t, 2, pkix.Name{CommonName: "partner", Organization: []string{"Example, Inc"}, Country: []string{"US"}})
	got := SubjectDN(id.cert)
	if got != `CN=partner, O=Example\, Inc, C=US` {
		t.Errorf("SubjectDN = %q", got)
	}
	if !got.Equal(`CN=partner, O="Example, Inc", C=US`) {
		t.Errorf("%q does not equal the quoted form", got)
	}
}

func TestIssuerDN(t *testing.T) {
	// WHY: Inspect output shows subject and issuer side by side; both must
	// use the same ordering so a self-signed certificate reads identically.
	t.Parallel()
	id := newIdentity(t, 0, partnerName())

	if got := IssuerDN(id.cert); got != SubjectDN(id.cert) {
		t.Errorf("IssuerDN = %q, SubjectDN = %q", got, SubjectDN(id.cert))
	}
	if got := IssuerDN(id.cert); got != "CN=partner, O=Example, C=US" {
		t.Errorf("IssuerDN = %q", got)
	}
	if IssuerDN(nil) != "" {
		t.Error("IssuerDN(nil) should be empty")
	}
}
