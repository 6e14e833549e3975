package internal

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/sensiblebit/sealkit"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	// WHY: An envelope written by encrypt must be readable by decrypt,
	// including after passing through its YAML file form.
	t.Parallel()
	id := newRSAIdentity(t, partnerName())
	subject := sealkit.SubjectDN(id.cert)
	public := &sealkit.ResolvedKey{Key: id.key.Public(), Subject: subject}
	private := &sealkit.ResolvedKey{Key: id.key, Subject: subject}

	plaintext := []byte("hello world")
	env, err := SealEnvelope(plaintext, public)
	if err != nil {
		t.Fatalf("SealEnvelope: %v", err)
	}
	if env.KeyTransform != "RSA/ECB/PKCS1Padding" || env.Transform != "DESede/CBC/PKCS5Padding" {
		t.Errorf("transforms = %q, %q", env.KeyTransform, env.Transform)
	}
	if env.Recipient != "CN=partner, O=Example, C=US" {
		t.Errorf("Recipient = %q", env.Recipient)
	}

	data, err := MarshalEnvelope(env)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "keyTransform: RSA/ECB/PKCS1Padding") {
		t.Errorf("yaml = %s", data)
	}
	path := writeTestFile(t, "msg.yaml", data)
	loaded, err := LoadEnvelope(path)
	if err != nil {
		t.Fatalf("LoadEnvelope: %v", err)
	}
	got, err := OpenEnvelope(loaded, private)
	if err != nil {
		t.Fatalf("OpenEnvelope: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("plaintext = %q", got)
	}
}

func TestOpenEnvelope_Errors(t *testing.T) {
	t.Parallel()
	id := newRSAIdentity(t, partnerName())
	subject := sealkit.SubjectDN(id.cert)
	env, err := SealEnvelope([]byte("payload"), &sealkit.ResolvedKey{Key: id.key.Public(), Subject: subject})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		env     *EnvelopeFile
		key     *sealkit.ResolvedKey
		wantErr error
	}{
		{"incomplete", &EnvelopeFile{Key: env.Key}, &sealkit.ResolvedKey{Key: id.key}, ErrEnvelopeIncomplete},
		{"nil recipient", env, nil, sealkit.ErrNullInput},
		{"other transform", &EnvelopeFile{Key: env.Key, Data: env.Data, Transform: "AES/GCM/NoPadding"}, &sealkit.ResolvedKey{Key: id.key}, sealkit.ErrUnsupportedAlgorithm},
		{"recipient mismatch", env, &sealkit.ResolvedKey{Key: id.key, Subject: "CN=someone else"}, sealkit.ErrDNMismatch},
		{"public key", env, &sealkit.ResolvedKey{Key: id.key.Public(), Subject: subject}, sealkit.ErrCipherInit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := OpenEnvelope(tt.env, tt.key)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSealEnvelope_Errors(t *testing.T) {
	t.Parallel()
	ec := newECDSAIdentity(t, partnerName())
	if _, err := SealEnvelope([]byte("x"), nil); !errors.Is(err, sealkit.ErrNullInput) {
		t.Errorf("nil recipient: %v", err)
	}
	_, err := SealEnvelope([]byte("x"), &sealkit.ResolvedKey{Key: ec.key.Public()})
	if !errors.Is(err, sealkit.ErrUnsupportedAlgorithm) {
		t.Errorf("EC recipient: %v", err)
	}
}

func TestParseEnvelope_Invalid(t *testing.T) {
	t.Parallel()
	if _, err := ParseEnvelope([]byte("key: [unterminated")); err == nil {
		t.Error("expected YAML error")
	}
	if _, err := ParseEnvelope([]byte("key: abc\n")); !errors.Is(err, ErrEnvelopeIncomplete) {
		t.Errorf("missing data: %v", err)
	}
}
