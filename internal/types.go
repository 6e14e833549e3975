package internal

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ResolutionRecord is one catalogued key resolution.
type ResolutionRecord struct {
	ID          string         `db:"id"`
	KeyName     sql.NullString `db:"key_name"`
	Origin      string         `db:"origin"`
	Reference   string         `db:"reference"`
	Alias       sql.NullString `db:"alias"`
	Subject     string         `db:"subject"`
	Algorithm   string         `db:"algorithm"`
	Fingerprint string         `db:"fingerprint"`
	Private     bool           `db:"private"`
	ResolvedAt  time.Time      `db:"resolved_at"`
	// MetadataJSON holds certificate details: serial, not_after, sha256.
	MetadataJSON types.JSONText `db:"metadata"`
}

// EnvelopeFile is the YAML document written by encrypt and read by decrypt.
type EnvelopeFile struct {
	Recipient    string `yaml:"recipient,omitempty"`
	KeyTransform string `yaml:"keyTransform"`
	Transform    string `yaml:"transform"`
	Key          string `yaml:"key"`
	Data         string `yaml:"data"`
}
