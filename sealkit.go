// Package sealkit resolves RSA keys from Java keystores, PKCS#12 files,
// certificate files, and LDAP directories, and performs RSA-wrapped
// triple-DES envelope encryption with them.
//
// Bulk payloads are encrypted with a fresh DESede session key
// (DESede/CBC/PKCS5Padding); the session key is wrapped with the recipient's
// RSA key (RSA/ECB/PKCS1Padding). Ciphertext is exchanged as base64 text.
package sealkit

import (
	"bytes"
	"crypto"
	"crypto/des"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"math/bits"
	"strings"

	"golang.org/x/crypto/ssh"
)

// Algorithm tags reported by KeyAlgorithm.
const (
	AlgorithmRSA     = "RSA"
	AlgorithmDESede  = "DESede"
	AlgorithmEC      = "EC"
	AlgorithmEd25519 = "Ed25519"
)

// SecretKey is a symmetric key tagged with its algorithm name.
type SecretKey struct {
	Algorithm string
	Material  []byte
}

// Equal reports whether two secret keys share algorithm and key bytes.
func (k SecretKey) Equal(other SecretKey) bool {
	return k.Algorithm == other.Algorithm && bytes.Equal(k.Material, other.Material)
}

// KeyAlgorithm returns the algorithm tag of a key: "RSA" for RSA public and
// private keys, the tag of a SecretKey, "EC" for ECDSA keys, "Ed25519" for
// Ed25519 keys. Unknown key types return "".
func KeyAlgorithm(key any) string {
	switch k := key.(type) {
	case SecretKey:
		return k.Algorithm
	case *SecretKey:
		if k == nil {
			return ""
		}
		return k.Algorithm
	case *rsa.PublicKey, *rsa.PrivateKey:
		return AlgorithmRSA
	case *ecdsa.PublicKey, *ecdsa.PrivateKey:
		return AlgorithmEC
	case ed25519.PublicKey, ed25519.PrivateKey, *ed25519.PrivateKey:
		return AlgorithmEd25519
	default:
		return ""
	}
}

// algorithmOf returns the algorithm portion of a transform name, the text
// before the first "/".
func algorithmOf(transform string) string {
	alg, _, _ := strings.Cut(transform, "/")
	return alg
}

// GenerateDESedeKey generates a new 24-byte triple-DES session key with DES
// odd parity on every byte.
func GenerateDESedeKey() (SecretKey, error) {
	material := make([]byte, 3*des.BlockSize)
	if _, err := rand.Read(material); err != nil {
		return SecretKey{}, fmt.Errorf("generating DESede key: %w", err)
	}
	for i, b := range material {
		b &= 0xfe
		if bits.OnesCount8(b)%2 == 0 {
			b |= 1
		}
		material[i] = b
	}
	return SecretKey{Algorithm: AlgorithmDESede, Material: material}, nil
}

// PublicKeyOf returns the public half of a key. Public keys are returned as
// is; private keys are asked via crypto.Signer.
func PublicKeyOf(key any) (crypto.PublicKey, error) {
	switch k := key.(type) {
	case *rsa.PublicKey, *ecdsa.PublicKey, ed25519.PublicKey:
		return k, nil
	case crypto.Signer:
		return k.Public(), nil
	default:
		return nil, fmt.Errorf("unsupported key type: %T", key)
	}
}

// KeyFingerprint returns the OpenSSH-style SHA-256 fingerprint of a key's
// public half ("SHA256:..."). Secret keys are fingerprinted as a hex SHA-256
// over the key bytes.
func KeyFingerprint(key any) (string, error) {
	if sk, ok := key.(SecretKey); ok {
		sum := sha256.Sum256(sk.Material)
		return hex.EncodeToString(sum[:]), nil
	}
	pub, err := PublicKeyOf(key)
	if err != nil {
		return "", err
	}
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("converting public key: %w", err)
	}
	return ssh.FingerprintSHA256(sshPub), nil
}

// CertFingerprint returns the SHA-256 fingerprint of a certificate as a lowercase hex string.
func CertFingerprint(cert *x509.Certificate) string {
	hash := sha256.Sum256(cert.Raw)
	return hex.EncodeToString(hash[:])
}
