package internal

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/sensiblebit/sealkit"
	"gopkg.in/yaml.v3"
)

func noPassword() (string, error) {
	return "", errors.New("password should not be requested")
}

func TestInspectFile_Certificate(t *testing.T) {
	t.Parallel()
	id := newRSAIdentity(t, partnerName())

	tests := []struct {
		name string
		data []byte
	}{
		{"PEM", id.certPEM},
		{"DER", id.certDER},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeTestFile(t, "partner.crt", tt.data)
			results, err := InspectFile(path, noPassword)
			if err != nil {
				t.Fatalf("InspectFile: %v", err)
			}
			if len(results) != 1 {
				t.Fatalf("expected 1 result, got %d", len(results))
			}
			r := results[0]
			if r.Subject != "CN=partner, O=Example, C=US" {
				t.Errorf("Subject = %q", r.Subject)
			}
			// Self-signed: issuer must read exactly like the subject.
			if r.Issuer != r.Subject {
				t.Errorf("Issuer = %q, want %q", r.Issuer, r.Subject)
			}
			if r.KeyAlgo != sealkit.AlgorithmRSA || r.KeySize != "2048 bits" {
				t.Errorf("key = %s %s", r.KeyAlgo, r.KeySize)
			}
			if r.Transform != sealkit.TransformRSA.String() {
				t.Errorf("Transform = %q", r.Transform)
			}
			if r.SHA256 != sealkit.CertFingerprint(id.cert) {
				t.Errorf("SHA256 = %q", r.SHA256)
			}
		})
	}
}

func TestInspectFile_KeyStore(t *testing.T) {
	// WHY: Key store entries must report alias and key presence, and the
	// password callback is only consulted for key stores.
	t.Parallel()
	id := newRSAIdentity(t, partnerName())
	data, err := sealkit.EncodeJKS(id.key, id.cert, nil, "partner", "changeit")
	if err != nil {
		t.Fatal(err)
	}
	path := writeTestFile(t, "partner.jks", data)

	calls := 0
	results, err := InspectFile(path, func() (string, error) {
		calls++
		return "changeit", nil
	})
	if err != nil {
		t.Fatalf("InspectFile: %v", err)
	}
	if calls != 1 {
		t.Errorf("password callback called %d times", calls)
	}
	if len(results) != 1 || results[0].Alias != "partner" || !results[0].HasKey {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Source != string(sealkit.FormatJKS) {
		t.Errorf("Source = %q", results[0].Source)
	}
}

func TestInspectFile_ECDSAHasNoTransform(t *testing.T) {
	t.Parallel()
	id := newECDSAIdentity(t, partnerName())
	path := writeTestFile(t, "ec.pem", id.certPEM)
	results, err := InspectFile(path, noPassword)
	if err != nil {
		t.Fatalf("InspectFile: %v", err)
	}
	if results[0].Transform != "" {
		t.Errorf("Transform = %q, want empty", results[0].Transform)
	}
	if results[0].KeySize != "P-256" {
		t.Errorf("KeySize = %q", results[0].KeySize)
	}
}

func TestInspectFile_Errors(t *testing.T) {
	t.Parallel()
	id := newRSAIdentity(t, partnerName())
	data, err := sealkit.EncodeJKS(id.key, id.cert, nil, "partner", "changeit")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		path     string
		password func() (string, error)
		wantErr  error
	}{
		{"missing file", "/nonexistent/file.pem", noPassword, nil},
		{"wrong password", writeTestFile(t, "a.jks", data), func() (string, error) { return "wrongpass", nil }, sealkit.ErrBadPassword},
		{"password error", writeTestFile(t, "b.jks", data), func() (string, error) { return "", ErrNoPassword }, ErrNoPassword},
		{"garbage", writeTestFile(t, "junk.bin", []byte("not a key store")), func() (string, error) { return "changeit", nil }, sealkit.ErrBadFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := InspectFile(tt.path, tt.password)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFormatInspectResults(t *testing.T) {
	t.Parallel()
	results := []InspectResult{
		{Source: "JKS", Alias: "partner", Subject: "CN=partner", KeyAlgo: "RSA", KeySize: "2048 bits", HasKey: true, SHA256: "ab:cd"},
		{Source: "certificate", Subject: "CN=other", KeyAlgo: "EC", SHA256: "ef:01"},
	}

	text, err := FormatInspectResults(results, "text")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`Entry "partner" (JKS):`, "Private Key: yes", "Certificate:", "CN=other"} {
		if !strings.Contains(text, want) {
			t.Errorf("text output missing %q:\n%s", want, text)
		}
	}

	js, err := FormatInspectResults(results, "json")
	if err != nil {
		t.Fatal(err)
	}
	var decoded []InspectResult
	if err := json.Unmarshal([]byte(js), &decoded); err != nil {
		t.Fatalf("json output: %v", err)
	}
	if len(decoded) != 2 || decoded[0].Alias != "partner" {
		t.Errorf("decoded = %+v", decoded)
	}

	ym, err := FormatInspectResults(results, "yaml")
	if err != nil {
		t.Fatal(err)
	}
	var ydecoded []map[string]any
	if err := yaml.Unmarshal([]byte(ym), &ydecoded); err != nil {
		t.Fatalf("yaml output: %v", err)
	}
	if ydecoded[0]["hasPrivateKey"] != true {
		t.Errorf("yaml = %v", ydecoded[0])
	}

	if _, err := FormatInspectResults(results, "xml"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
