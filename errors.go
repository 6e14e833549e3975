package sealkit

import "errors"

// Key store errors
var (
	// ErrNotFound is returned when a file, alias, or matching entry is absent.
	ErrNotFound = errors.New("sealkit: not found")

	// ErrUnreadable is returned when a file exists but cannot be read.
	ErrUnreadable = errors.New("sealkit: unreadable")

	// ErrBadPassword is returned when a key store integrity check fails for the
	// supplied password.
	ErrBadPassword = errors.New("sealkit: bad password")

	// ErrBadFormat is returned when data parses as none of the supported
	// key store formats.
	ErrBadFormat = errors.New("sealkit: unrecognized key store format")
)

// Key resolution errors
var (
	// ErrKeyNotFound is returned when a private key cannot be resolved or
	// extracted from a key store entry.
	ErrKeyNotFound = errors.New("sealkit: key not found")

	// ErrDNMismatch is returned when a certificate subject does not match the
	// requested distinguished name.
	ErrDNMismatch = errors.New("sealkit: distinguished name mismatch")

	// ErrDirectory is returned when a directory connection or search fails.
	ErrDirectory = errors.New("sealkit: directory error")

	// ErrNoCertificate is returned when a directory entry carries no usable
	// certificate attribute.
	ErrNoCertificate = errors.New("sealkit: no certificate")
)

// Cipher errors
var (
	// ErrUnsupportedAlgorithm is returned when no registered transform
	// matches a key's algorithm.
	ErrUnsupportedAlgorithm = errors.New("sealkit: unsupported algorithm")

	// ErrCipherInit is returned when a cipher cannot be constructed for a key.
	ErrCipherInit = errors.New("sealkit: cipher initialization failed")

	// ErrTransform is returned when a block transform fails (bad padding,
	// truncated input, wrong key).
	ErrTransform = errors.New("sealkit: transform failed")

	// ErrNullInput is returned when a payload or key is missing.
	ErrNullInput = errors.New("sealkit: null input")
)
