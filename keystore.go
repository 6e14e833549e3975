package sealkit

import (
	"crypto"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
)

// Format identifies a key store container format.
type Format string

// Supported key store formats, in the order they are tried.
const (
	FormatJKS    Format = "JKS"
	FormatPKCS12 Format = "PKCS12"
)

// errFormatMismatch signals that data is not in the current format and the
// next format should be tried.
var errFormatMismatch = errors.New("format mismatch")

// Entry is one aliased entry of a key store.
type Entry struct {
	Alias       string
	Certificate *x509.Certificate
	Chain       []*x509.Certificate
	HasKey      bool
}

// keyRecoverer extracts the private key of an entry with an entry password.
type keyRecoverer interface {
	privateKey(alias, password string) (crypto.PrivateKey, error)
}

// KeyStore is a read-only, opened key store. It is not cached; every
// LoadKeyStore call reads the backing file again.
type KeyStore struct {
	Format  Format
	entries []Entry
	keys    keyRecoverer
}

// LoadKeyStore opens the key store at path, trying JKS first and falling back
// to PKCS#12 when the file is not a JKS. Failures wrap ErrNotFound,
// ErrUnreadable, ErrBadPassword, or ErrBadFormat.
func LoadKeyStore(path, password string) (*KeyStore, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	ks, err := LoadKeyStoreData(data, password)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	slog.Debug("key store loaded", "path", path, "format", ks.Format, "entries", len(ks.entries))
	return ks, nil
}

// LoadKeyStoreData parses an in-memory key store with the same JKS then
// PKCS#12 probing as LoadKeyStore.
func LoadKeyStoreData(data []byte, password string) (*KeyStore, error) {
	ks, err := loadJKS(data, password)
	if err == nil {
		return ks, nil
	}
	if !errors.Is(err, errFormatMismatch) {
		return nil, err
	}
	slog.Debug("not a JKS key store, trying PKCS#12")
	return loadPKCS12(data, password)
}

// readFile reads a whole file, mapping a missing file to ErrNotFound and any
// other failure to ErrUnreadable. The file is closed before returning.
func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("closing file", "path", path, "error", err)
		}
	}()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrUnreadable, path, err)
	}
	return data, nil
}

// Entries returns the entries in enumeration order.
func (ks *KeyStore) Entries() []Entry {
	out := make([]Entry, len(ks.entries))
	copy(out, ks.entries)
	return out
}

// Aliases returns the entry aliases in enumeration order.
func (ks *KeyStore) Aliases() []string {
	aliases := make([]string, 0, len(ks.entries))
	for _, e := range ks.entries {
		aliases = append(aliases, e.Alias)
	}
	return aliases
}

// Len returns the number of entries.
func (ks *KeyStore) Len() int {
	return len(ks.entries)
}

// Certificate returns the certificate stored under alias.
func (ks *KeyStore) Certificate(alias string) (*x509.Certificate, error) {
	e, ok := ks.entry(alias)
	if !ok {
		return nil, fmt.Errorf("%w: alias %q", ErrNotFound, alias)
	}
	return e.Certificate, nil
}

// PrivateKey recovers the private key stored under alias using the entry
// password.
func (ks *KeyStore) PrivateKey(alias, password string) (crypto.PrivateKey, error) {
	e, ok := ks.entry(alias)
	if !ok {
		return nil, fmt.Errorf("%w: alias %q", ErrNotFound, alias)
	}
	if !e.HasKey {
		return nil, fmt.Errorf("%w: alias %q holds no private key", ErrNotFound, alias)
	}
	return ks.keys.privateKey(alias, password)
}

func (ks *KeyStore) entry(alias string) (Entry, bool) {
	for _, e := range ks.entries {
		if e.Alias == alias {
			return e, true
		}
	}
	return Entry{}, false
}
