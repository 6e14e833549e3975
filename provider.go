package sealkit

import (
	"log/slog"
	"sync"
)

// DefaultProviderName names the provider registered by Init.
const DefaultProviderName = "sealkit"

// Engine performs the raw byte operations of one transform.
type Engine interface {
	Encrypt(plaintext []byte, key any) ([]byte, error)
	Decrypt(ciphertext []byte, key any) ([]byte, error)
}

// Provider supplies transforms and the engines that implement them.
// Transforms are consulted in slice order during selection.
type Provider struct {
	Name       string
	Transforms []Transform
	Engines    map[Transform]Engine
}

var (
	// registry stores providers by name
	registry = make(map[string]*Provider)
	// registryOrder keeps providers in registration order for selection
	registryOrder []string
	// registryMu protects concurrent access to the registry
	registryMu sync.RWMutex
	// initOnce registers the default provider on first use
	initOnce sync.Once
)

// DefaultProvider returns a provider with the RSA key-wrapping transform
// registered first and the DESede bulk transform second.
func DefaultProvider() *Provider {
	return &Provider{
		Name:       DefaultProviderName,
		Transforms: []Transform{TransformRSA, TransformDESede},
		Engines: map[Transform]Engine{
			TransformRSA:    rsaEngine{},
			TransformDESede: desedeEngine{},
		},
	}
}

// RegisterProvider adds p to the process-wide registry unless a provider of
// the same name is already present. It reports whether p was added; a
// repeated registration is not an error.
func RegisterProvider(p *Provider) bool {
	if p == nil || p.Name == "" {
		slog.Warn("ignoring unnamed cipher provider")
		return false
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[p.Name]; ok {
		return false
	}
	registry[p.Name] = p
	registryOrder = append(registryOrder, p.Name)
	slog.Debug("cipher provider registered", "provider", p.Name)
	return true
}

// Init registers the default provider. It is idempotent and safe for
// concurrent use; cipher operations call it on first use. It reports whether
// this call performed the registration.
func Init() bool {
	registered := false
	initOnce.Do(func() {
		registered = RegisterProvider(DefaultProvider())
	})
	return registered
}

// Providers returns the registered provider names in registration order.
func Providers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, len(registryOrder))
	copy(names, registryOrder)
	return names
}

// Transforms returns every registered transform in selection order.
func Transforms() []Transform {
	Init()
	registryMu.RLock()
	defer registryMu.RUnlock()
	var out []Transform
	for _, name := range registryOrder {
		out = append(out, registry[name].Transforms...)
	}
	return out
}

// engineFor returns the engine of the first provider implementing t.
func engineFor(t Transform) (Engine, bool) {
	Init()
	registryMu.RLock()
	defer registryMu.RUnlock()
	for _, name := range registryOrder {
		if e, ok := registry[name].Engines[t]; ok {
			return e, true
		}
	}
	return nil, false
}
