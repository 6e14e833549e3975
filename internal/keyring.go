package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sensiblebit/sealkit"
	"gopkg.in/yaml.v3"
)

// Key reference types.
const (
	KeyTypeKeyStore    = "keystore"
	KeyTypeCertificate = "certificate"
	KeyTypeDirectory   = "directory"
)

// KeyRef is one named key reference from the keyring file.
type KeyRef struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`

	// keystore and certificate
	Path string `yaml:"path,omitempty"`
	// keystore
	StorePassword     string `yaml:"storePassword,omitempty"`
	StorePasswordFile string `yaml:"storePasswordFile,omitempty"`
	EntryPassword     string `yaml:"entryPassword,omitempty"`

	// directory
	Host       string        `yaml:"host,omitempty"`
	BaseDN     string        `yaml:"baseDN,omitempty"`
	CommonName string        `yaml:"commonName,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`

	Subject string `yaml:"subject,omitempty"`
}

// KeyringDefaults fill fields left empty on individual keys.
type KeyringDefaults struct {
	StorePassword     string        `yaml:"storePassword,omitempty"`
	StorePasswordFile string        `yaml:"storePasswordFile,omitempty"`
	Timeout           time.Duration `yaml:"timeout,omitempty"`
}

// Keyring is the parsed keyring file.
type Keyring struct {
	Defaults KeyringDefaults `yaml:"defaults,omitempty"`
	Keys     []KeyRef        `yaml:"keys"`
}

// LoadKeyring loads a keyring YAML file. Relative key paths resolve against
// the keyring's directory.
func LoadKeyring(path string) (*Keyring, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	kr, err := ParseKeyring(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("parsing keyring %s: %w", path, err)
	}
	return kr, nil
}

// ParseKeyring parses keyring YAML. Both the mapping form with defaults and a
// bare list of keys are accepted.
func ParseKeyring(data []byte, baseDir string) (*Keyring, error) {
	var kr Keyring
	if err := yaml.Unmarshal(data, &kr); err != nil {
		// Fall back to a bare list of keys
		var keys []KeyRef
		if listErr := yaml.Unmarshal(data, &keys); listErr != nil {
			return nil, err
		}
		kr = Keyring{Keys: keys}
	}
	if len(kr.Keys) == 0 {
		return nil, errors.New("keyring defines no keys")
	}

	seen := make(map[string]bool)
	for i := range kr.Keys {
		k := &kr.Keys[i]
		if k.Name == "" {
			return nil, fmt.Errorf("key %d has no name", i+1)
		}
		if seen[k.Name] {
			return nil, fmt.Errorf("duplicate key name %q", k.Name)
		}
		seen[k.Name] = true

		switch k.Type {
		case KeyTypeKeyStore, KeyTypeCertificate:
			if k.Path == "" {
				return nil, fmt.Errorf("key %q: path is required for type %s", k.Name, k.Type)
			}
			if baseDir != "" && !filepath.IsAbs(k.Path) {
				k.Path = filepath.Join(baseDir, k.Path)
			}
		case KeyTypeDirectory:
			if k.Host == "" || k.CommonName == "" {
				return nil, fmt.Errorf("key %q: host and commonName are required for type directory", k.Name)
			}
		default:
			return nil, fmt.Errorf("key %q: unknown type %q", k.Name, k.Type)
		}

		if k.Type == KeyTypeKeyStore && k.StorePassword == "" && k.StorePasswordFile == "" {
			k.StorePassword = kr.Defaults.StorePassword
			k.StorePasswordFile = kr.Defaults.StorePasswordFile
		}
		if k.StorePasswordFile != "" && baseDir != "" && !filepath.IsAbs(k.StorePasswordFile) {
			k.StorePasswordFile = filepath.Join(baseDir, k.StorePasswordFile)
		}
		if k.Type == KeyTypeDirectory && k.Timeout == 0 {
			k.Timeout = kr.Defaults.Timeout
		}
	}
	return &kr, nil
}

// Lookup returns the key reference named name.
func (kr *Keyring) Lookup(name string) (KeyRef, bool) {
	for _, k := range kr.Keys {
		if k.Name == name {
			return k, true
		}
	}
	return KeyRef{}, false
}

// Source returns the key source for the named key.
func (kr *Keyring) Source(name string, private bool) (sealkit.KeySource, error) {
	ref, ok := kr.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("key %q not in keyring", name)
	}
	return ref.Source(private)
}

// Source builds the key source for the reference. Only key stores can supply
// private keys.
func (k KeyRef) Source(private bool) (sealkit.KeySource, error) {
	if private && k.Type != KeyTypeKeyStore {
		return nil, fmt.Errorf("key %q: a %s reference has no private key", k.Name, k.Type)
	}
	subject := sealkit.DN(k.Subject)
	switch k.Type {
	case KeyTypeKeyStore:
		storePass, err := ResolvePassword(PasswordInput{
			Value:  k.StorePassword,
			File:   k.StorePasswordFile,
			Prompt: fmt.Sprintf("Store password for %s", k.Name),
		})
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k.Name, err)
		}
		return sealkit.KeyStoreSource{
			Path:          k.Path,
			StorePassword: storePass,
			EntryPassword: k.EntryPassword,
			Subject:       subject,
			Private:       private,
		}, nil
	case KeyTypeCertificate:
		return sealkit.CertificateFileSource{Path: k.Path, Subject: subject}, nil
	case KeyTypeDirectory:
		return sealkit.DirectorySource{
			Host:       k.Host,
			BaseDN:     k.BaseDN,
			CommonName: k.CommonName,
			Subject:    subject,
			Timeout:    k.Timeout,
		}, nil
	default:
		return nil, fmt.Errorf("key %q: unknown type %q", k.Name, k.Type)
	}
}

// Reference describes where the key lives, for logs and the catalog.
func (k KeyRef) Reference() string {
	if k.Type == KeyTypeDirectory {
		return k.Host + "/" + k.BaseDN
	}
	return k.Path
}
