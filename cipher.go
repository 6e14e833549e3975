package sealkit

import (
	"crypto/cipher"
	"crypto/des"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
)

// Encrypt encrypts plaintext under key with the transform selected for the
// key's algorithm and returns the base64 envelope.
//
// DESede envelopes carry a random 8-byte block ahead of the payload inside
// the chained ciphertext, so every envelope is randomized and a decryptor
// needs no out-of-band IV. RSA envelopes have no IV.
func Encrypt(plaintext []byte, key any) (string, error) {
	if plaintext == nil || isNilKey(key) {
		return "", ErrNullInput
	}
	t, engine, err := engineForKey(key)
	if err != nil {
		return "", err
	}
	out, err := engine.Encrypt(plaintext, key)
	if err != nil {
		slog.Debug("encrypt failed", "transform", t, "error", err)
		return "", err
	}
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt decodes a base64 envelope and decrypts it under key. Whitespace in
// the envelope is ignored.
func Decrypt(ciphertext string, key any) ([]byte, error) {
	if ciphertext == "" || isNilKey(key) {
		return nil, ErrNullInput
	}
	t, engine, err := engineForKey(key)
	if err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(ciphertext), ""))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding base64: %w", ErrTransform, err)
	}
	out, err := engine.Decrypt(raw, key)
	if err != nil {
		slog.Debug("decrypt failed", "transform", t, "error", err)
		return nil, err
	}
	return out, nil
}

func engineForKey(key any) (Transform, Engine, error) {
	t, err := SelectTransform(key)
	if err != nil {
		return Transform{}, nil, err
	}
	engine, ok := engineFor(t)
	if !ok {
		return Transform{}, nil, fmt.Errorf("%w: no engine for %s", ErrCipherInit, t)
	}
	return t, engine, nil
}

func isNilKey(key any) bool {
	if key == nil {
		return true
	}
	v := reflect.ValueOf(key)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

type desedeEngine struct{}

// desedeBlock builds a triple-DES block cipher. Two-key material (16 bytes)
// is expanded to K1K2K1.
func desedeBlock(key any) (cipher.Block, error) {
	var sk SecretKey
	switch k := key.(type) {
	case SecretKey:
		sk = k
	case *SecretKey:
		sk = *k
	default:
		return nil, fmt.Errorf("%w: DESede requires a secret key, got %T", ErrCipherInit, key)
	}
	material := sk.Material
	switch len(material) {
	case 2 * des.BlockSize:
		material = append(material[:16:16], material[:8]...)
	case 3 * des.BlockSize:
	default:
		return nil, fmt.Errorf("%w: DESede key must be 16 or 24 bytes, got %d", ErrCipherInit, len(material))
	}
	block, err := des.NewTripleDESCipher(material)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCipherInit, err)
	}
	return block, nil
}

func (desedeEngine) Encrypt(plaintext []byte, key any) ([]byte, error) {
	block, err := desedeBlock(key)
	if err != nil {
		return nil, err
	}
	data := make([]byte, des.BlockSize, des.BlockSize+len(plaintext))
	if _, err := rand.Read(data); err != nil {
		return nil, fmt.Errorf("%w: generating IV: %w", ErrCipherInit, err)
	}
	data = pkcs5Pad(append(data, plaintext...), des.BlockSize)

	out := make([]byte, len(data))
	cipher.NewCBCEncrypter(block, make([]byte, des.BlockSize)).CryptBlocks(out, data)
	return out, nil
}

func (desedeEngine) Decrypt(ciphertext []byte, key any) ([]byte, error) {
	block, err := desedeBlock(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < 2*des.BlockSize || len(ciphertext)%des.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d is not a whole number of blocks after the IV", ErrTransform, len(ciphertext))
	}

	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, make([]byte, des.BlockSize)).CryptBlocks(out, ciphertext)
	out, err = pkcs5Unpad(out, des.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransform, err)
	}
	if len(out) < des.BlockSize {
		return nil, fmt.Errorf("%w: decrypted payload shorter than the IV", ErrTransform)
	}
	return out[des.BlockSize:], nil
}

type rsaEngine struct{}

func (rsaEngine) Encrypt(plaintext []byte, key any) ([]byte, error) {
	var pub *rsa.PublicKey
	switch k := key.(type) {
	case *rsa.PublicKey:
		pub = k
	case *rsa.PrivateKey:
		pub = &k.PublicKey
	default:
		return nil, fmt.Errorf("%w: RSA requires an RSA key, got %T", ErrCipherInit, key)
	}
	out, err := rsa.EncryptPKCS1v15(rand.Reader, pub, plaintext)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransform, err)
	}
	return out, nil
}

func (rsaEngine) Decrypt(ciphertext []byte, key any) ([]byte, error) {
	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: RSA decryption requires a private key, got %T", ErrCipherInit, key)
	}
	out, err := rsa.DecryptPKCS1v15(rand.Reader, priv, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransform, err)
	}
	return out, nil
}
