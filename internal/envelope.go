package internal

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/sensiblebit/sealkit"
	"gopkg.in/yaml.v3"
)

// ErrEnvelopeIncomplete is returned when an envelope lacks its key or data.
var ErrEnvelopeIncomplete = errors.New("envelope is missing key or data")

// SealEnvelope encrypts plaintext for recipient and returns the envelope
// document describing it.
func SealEnvelope(plaintext []byte, recipient *sealkit.ResolvedKey) (*EnvelopeFile, error) {
	if recipient == nil {
		return nil, fmt.Errorf("recipient: %w", sealkit.ErrNullInput)
	}
	keyTransform, err := sealkit.SelectTransform(recipient.Key)
	if err != nil {
		return nil, err
	}
	wrapped, data, err := sealkit.Seal(plaintext, recipient.Key)
	if err != nil {
		return nil, err
	}
	return &EnvelopeFile{
		Recipient:    recipient.Subject.String(),
		KeyTransform: keyTransform.String(),
		Transform:    sealkit.TransformDESede.String(),
		Key:          wrapped,
		Data:         data,
	}, nil
}

// OpenEnvelope decrypts env with the recipient's private key.
func OpenEnvelope(env *EnvelopeFile, recipient *sealkit.ResolvedKey) ([]byte, error) {
	if env == nil || env.Key == "" || env.Data == "" {
		return nil, ErrEnvelopeIncomplete
	}
	if recipient == nil {
		return nil, fmt.Errorf("recipient: %w", sealkit.ErrNullInput)
	}
	if env.Transform != "" && env.Transform != sealkit.TransformDESede.String() {
		return nil, fmt.Errorf("envelope transform %q: %w", env.Transform, sealkit.ErrUnsupportedAlgorithm)
	}
	if env.Recipient != "" && !recipient.Subject.IsEmpty() && !recipient.Subject.Equal(sealkit.DN(env.Recipient)) {
		return nil, fmt.Errorf("envelope recipient %q, key subject %q: %w", env.Recipient, recipient.Subject, sealkit.ErrDNMismatch)
	}
	return sealkit.Open(env.Key, env.Data, recipient.Key)
}

// MarshalEnvelope renders env as YAML.
func MarshalEnvelope(env *EnvelopeFile) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(env); err != nil {
		return nil, fmt.Errorf("encoding envelope: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding envelope: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseEnvelope decodes a YAML envelope document.
func ParseEnvelope(data []byte) (*EnvelopeFile, error) {
	var env EnvelopeFile
	if err := yaml.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parsing envelope: %w", err)
	}
	if env.Key == "" || env.Data == "" {
		return nil, ErrEnvelopeIncomplete
	}
	return &env, nil
}

// LoadEnvelope reads and parses an envelope file.
func LoadEnvelope(path string) (*EnvelopeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading envelope %s: %w", path, err)
	}
	return ParseEnvelope(data)
}
