package sealkit

import (
	"crypto/rsa"
	"errors"
	"testing"
)

func TestKeyStoreSource_Resolve(t *testing.T) {
	t.Parallel()
	partner := newIdentity(t, 0, partnerName())
	other := newIdentity(t, 1, otherName())
	path := writeTemp(t, "partners.jks", buildJKS(t, "storepass",
		jksEntry{alias: "partner", id: partner, withKey: true, keyPassword: "keypass"},
		jksEntry{alias: "trusted", id: other},
	))

	tests := []struct {
		name    string
		source  KeyStoreSource
		wantKey any
		wantErr []error
	}{
		{
			name:    "private_with_entry_password",
			source:  KeyStoreSource{Path: path, StorePassword: "storepass", EntryPassword: "keypass", Subject: "CN=partner, O=Example, C=US", Private: true},
			wantKey: partner.key,
		},
		{
			name:    "private_entry_password_defaults_to_store",
			source:  KeyStoreSource{Path: path, StorePassword: "storepass", Subject: "CN=partner, O=Example, C=US", Private: true},
			wantErr: []error{ErrKeyNotFound},
		},
		{
			name:    "private_no_match",
			source:  KeyStoreSource{Path: path, StorePassword: "storepass", EntryPassword: "keypass", Subject: "CN=nobody", Private: true},
			wantErr: []error{ErrKeyNotFound, ErrNotFound},
		},
		{
			name:    "private_trusted_entry",
			source:  KeyStoreSource{Path: path, StorePassword: "storepass", Subject: "CN=other, O=Elsewhere, C=CA", Private: true},
			wantErr: []error{ErrKeyNotFound},
		},
		{
			name:    "public",
			source:  KeyStoreSource{Path: path, StorePassword: "storepass", Subject: "o=elsewhere, cn=other, c=ca"},
			wantKey: &other.key.PublicKey,
		},
		{
			name:    "public_first_entry",
			source:  KeyStoreSource{Path: path, StorePassword: "storepass"},
			wantKey: &partner.key.PublicKey,
		},
		{
			name:    "public_wrong_store_password",
			source:  KeyStoreSource{Path: path, StorePassword: "wrongpass"},
			wantErr: []error{ErrBadPassword},
		},
		{
			name:    "missing_file",
			source:  KeyStoreSource{Path: path + ".absent", StorePassword: "storepass"},
			wantErr: []error{ErrNotFound},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tt.source.Resolve()
			if len(tt.wantErr) > 0 {
				for _, want := range tt.wantErr {
					if !errors.Is(err, want) {
						t.Errorf("expected %v in chain, got %v", want, err)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got.Origin != OriginKeyStore {
				t.Errorf("Origin = %q, want %q", got.Origin, OriginKeyStore)
			}
			if got.Algorithm != AlgorithmRSA {
				t.Errorf("Algorithm = %q, want RSA", got.Algorithm)
			}
			if !keysEqual(got.Key, tt.wantKey) {
				t.Errorf("resolved key %T does not match", got.Key)
			}
		})
	}
}

func TestPrivateKeyFromKeyStore_PopulatesSubject(t *testing.T) {
	// WHY: An empty subject selects the first entry and the resolved subject
	// must be reported back to the caller.
	t.Parallel()
	partner := newIdentity(t, 0, partnerName())
	path := writeTemp(t, "partner.jks", buildJKS(t, "changeit", jksEntry{alias: "partner", id: partner, withKey: true}))

	got, err := PrivateKeyFromKeyStore(path, "changeit", "")
	if err != nil {
		t.Fatalf("PrivateKeyFromKeyStore: %v", err)
	}
	if got.Subject != "CN=partner, O=Example, C=US" {
		t.Errorf("Subject = %q", got.Subject)
	}
	if got.Alias != "partner" {
		t.Errorf("Alias = %q", got.Alias)
	}
}

func TestCertificateFileSource_Resolve(t *testing.T) {
	t.Parallel()
	partner := newIdentity(t, 0, partnerName())
	derPath := writeTemp(t, "partner.cer", partner.cert.Raw)
	pemPath := writeTemp(t, "partner.pem", []byte(CertToPEM(partner.cert)))
	garbagePath := writeTemp(t, "garbage.cer", []byte("not a certificate"))

	tests := []struct {
		name    string
		path    string
		subject DN
		wantErr error
	}{
		{"der", derPath, "", nil},
		{"pem", pemPath, "", nil},
		{"matching_subject", derPath, "C=US, O=Example, CN=partner", nil},
		{"mismatched_subject", pemPath, "CN=someone, O=Example, C=US", ErrDNMismatch},
		{"garbage", garbagePath, "", ErrBadFormat},
		{"missing", derPath + ".absent", "", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := PublicKeyFromCertificateFile(tt.path, tt.subject)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if !keysEqual(got.Key, &partner.key.PublicKey) {
				t.Error("resolved key does not match certificate key")
			}
			if got.Subject != "CN=partner, O=Example, C=US" {
				t.Errorf("Subject = %q", got.Subject)
			}
			if got.Origin != OriginCertificate {
				t.Errorf("Origin = %q", got.Origin)
			}
		})
	}
}

// keysEqual compares RSA keys of matching kind.
func keysEqual(got, want any) bool {
	switch w := want.(type) {
	case *rsa.PrivateKey:
		g, ok := got.(*rsa.PrivateKey)
		return ok && g.Equal(w)
	case *rsa.PublicKey:
		g, ok := got.(*rsa.PublicKey)
		return ok && g.Equal(w)
	default:
		return false
	}
}
