package sealkit

import (
	"crypto/x509"
	"fmt"
	"log/slog"
)

// Resolution is the key store entry selected by ResolveSubject.
type Resolution struct {
	Alias       string
	Subject     DN
	Certificate *x509.Certificate
	HasKey      bool
}

// ResolveSubject finds the entry whose certificate subject equals filter.
// With an empty filter the first entry in enumeration order is returned and
// its subject reported in the Resolution. Entries that do not match are
// skipped; ErrNotFound is returned when none match.
func ResolveSubject(ks *KeyStore, filter DN) (*Resolution, error) {
	if ks == nil {
		return nil, fmt.Errorf("%w: key store cannot be nil", ErrNullInput)
	}
	for _, e := range ks.entries {
		subject := SubjectDN(e.Certificate)
		if filter.IsEmpty() || filter.Equal(subject) {
			return &Resolution{
				Alias:       e.Alias,
				Subject:     subject,
				Certificate: e.Certificate,
				HasKey:      e.HasKey,
			}, nil
		}
		slog.Debug("skipping key store entry", "alias", e.Alias, "subject", subject)
	}
	if filter.IsEmpty() {
		return nil, fmt.Errorf("%w: key store has no entries", ErrNotFound)
	}
	return nil, fmt.Errorf("%w: no entry for %q", ErrNotFound, filter)
}
