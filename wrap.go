package sealkit

import (
	"fmt"
	"strings"
)

// WrapKey encrypts a session key's raw bytes under the wrapping key and
// returns the base64 envelope.
func WrapKey(session SecretKey, wrapping any) (string, error) {
	if len(session.Material) == 0 {
		return "", ErrNullInput
	}
	return Encrypt(session.Material, wrapping)
}

// UnwrapKey decrypts a wrapped session key and tags it with algorithm. A full
// transform name such as "DESede/CBC/PKCS5Padding" is reduced to its
// algorithm part.
func UnwrapKey(wrapped string, wrapping any, algorithm string) (SecretKey, error) {
	alg := strings.TrimSpace(algorithmOf(algorithm))
	if alg == "" {
		return SecretKey{}, fmt.Errorf("%w: empty target algorithm", ErrUnsupportedAlgorithm)
	}
	material, err := Decrypt(wrapped, wrapping)
	if err != nil {
		return SecretKey{}, err
	}
	return SecretKey{Algorithm: alg, Material: material}, nil
}

// Seal encrypts plaintext under a fresh DESede session key and wraps that key
// for the recipient. It returns the wrapped key and the payload envelope.
func Seal(plaintext []byte, recipient any) (wrappedKey, data string, err error) {
	session, err := GenerateDESedeKey()
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrCipherInit, err)
	}
	if data, err = Encrypt(plaintext, session); err != nil {
		return "", "", err
	}
	if wrappedKey, err = WrapKey(session, recipient); err != nil {
		return "", "", err
	}
	return wrappedKey, data, nil
}

// Open reverses Seal with the recipient's private key.
func Open(wrappedKey, data string, recipient any) ([]byte, error) {
	session, err := UnwrapKey(wrappedKey, recipient, AlgorithmDESede)
	if err != nil {
		return nil, err
	}
	return Decrypt(data, session)
}
