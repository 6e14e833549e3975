package internal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/sensiblebit/sealkit"
	_ "modernc.org/sqlite"
)

// DB is the resolution catalog.
type DB struct {
	*sqlx.DB
}

// NewDB creates an in-memory catalog. Use SaveToDisk/LoadFromDisk to persist
// or restore it.
func NewDB() (*DB, error) {
	// Each :memory: connection is a separate database, so the pool is pinned
	// to one connection.
	dsn := "file::memory:?_pragma=temp_store(2)&_pragma=journal_mode(off)&_pragma=synchronous(off)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	dbObj := &DB{DB: db}
	if err := dbObj.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	slog.Debug("database initialized")
	return dbObj, nil
}

// OpenDB returns an in-memory catalog preloaded from path when the file
// exists. An empty path yields an empty catalog.
func OpenDB(path string) (*DB, error) {
	db, err := NewDB()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return db, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return db, nil
	}
	if err := db.LoadFromDisk(path); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) initSchema() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS resolutions (
			id           text PRIMARY KEY,
			key_name     text,
			origin       text NOT NULL,
			reference    text NOT NULL,
			alias        text,
			subject      text NOT NULL,
			algorithm    text NOT NULL,
			fingerprint  text NOT NULL,
			private      integer NOT NULL,
			resolved_at  timestamp NOT NULL,
			metadata     text
		);
	`)
	if err != nil {
		return fmt.Errorf("creating resolutions table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_resolutions_fingerprint ON resolutions (fingerprint);
	`)
	if err != nil {
		return fmt.Errorf("creating fingerprint index on resolutions table: %w", err)
	}
	return nil
}

// SaveToDisk writes the catalog to path. VACUUM INTO refuses to overwrite,
// so the copy is written beside path and renamed over it.
func (db *DB) SaveToDisk(path string) error {
	tmp := path + ".tmp"
	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing stale %s: %w", tmp, err)
	}
	if _, err := db.Exec("VACUUM INTO ?", tmp); err != nil {
		return fmt.Errorf("saving database to %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	slog.Debug("database saved to disk", "path", path)
	return nil
}

// LoadFromDisk copies the resolutions of an on-disk catalog into memory. The
// file is read once and then detached.
func (db *DB) LoadFromDisk(path string) error {
	_, err := db.Exec("ATTACH DATABASE ? AS diskdb", path)
	if err != nil {
		return fmt.Errorf("attaching database %s: %w", path, err)
	}
	defer func() {
		if _, err := db.Exec("DETACH DATABASE diskdb"); err != nil {
			slog.Warn("detaching database", "path", path, "error", err)
		}
	}()

	_, err = db.Exec("INSERT OR IGNORE INTO resolutions SELECT * FROM diskdb.resolutions")
	if err != nil {
		return fmt.Errorf("loading resolutions from %s: %w", path, err)
	}
	slog.Debug("database loaded from disk", "path", path)
	return nil
}

// InsertResolution stores a record, ignoring duplicate ids.
func (db *DB) InsertResolution(rec ResolutionRecord) error {
	_, err := db.NamedExec(`
		INSERT OR IGNORE INTO resolutions (id, key_name, origin, reference, alias, subject, algorithm, fingerprint, private, resolved_at, metadata)
		VALUES (:id, :key_name, :origin, :reference, :alias, :subject, :algorithm, :fingerprint, :private, :resolved_at, :metadata)
	`, rec)
	if err != nil {
		return fmt.Errorf("inserting resolution: %w", err)
	}
	return nil
}

// RecordResolution catalogues a resolved key under a fresh id. keyName is the
// keyring name, empty when the key was selected by flags.
func (db *DB) RecordResolution(keyName, reference string, private bool, key *sealkit.ResolvedKey) (ResolutionRecord, error) {
	fingerprint, err := sealkit.KeyFingerprint(key.Key)
	if err != nil {
		return ResolutionRecord{}, fmt.Errorf("fingerprinting key: %w", err)
	}
	rec := ResolutionRecord{
		ID:          uuid.NewString(),
		KeyName:     sql.NullString{String: keyName, Valid: keyName != ""},
		Origin:      key.Origin,
		Reference:   reference,
		Alias:       sql.NullString{String: key.Alias, Valid: key.Alias != ""},
		Subject:     key.Subject.String(),
		Algorithm:   key.Algorithm,
		Fingerprint: fingerprint,
		Private:     private,
		ResolvedAt:  time.Now().UTC().Truncate(time.Second),
	}
	if cert := key.Certificate; cert != nil {
		meta, err := json.Marshal(map[string]string{
			"serial":    cert.SerialNumber.String(),
			"not_after": cert.NotAfter.UTC().Format(time.RFC3339),
			"sha256":    sealkit.CertFingerprint(cert),
		})
		if err != nil {
			return ResolutionRecord{}, fmt.Errorf("marshaling metadata: %w", err)
		}
		rec.MetadataJSON = types.JSONText(meta)
	}
	if err := db.InsertResolution(rec); err != nil {
		return ResolutionRecord{}, err
	}
	return rec, nil
}

// GetResolution returns the record with the given id, or nil.
func (db *DB) GetResolution(id string) (*ResolutionRecord, error) {
	var rec ResolutionRecord
	err := db.Get(&rec, "SELECT * FROM resolutions WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting resolution: %w", err)
	}
	return &rec, nil
}

// GetAllResolutions returns every record, oldest first.
func (db *DB) GetAllResolutions() ([]ResolutionRecord, error) {
	var recs []ResolutionRecord
	if err := db.Select(&recs, "SELECT * FROM resolutions ORDER BY resolved_at, id"); err != nil {
		return nil, fmt.Errorf("getting all resolutions: %w", err)
	}
	return recs, nil
}

// GetResolutionsBySubject returns the records whose subject is DN-equal to
// subject.
func (db *DB) GetResolutionsBySubject(subject sealkit.DN) ([]ResolutionRecord, error) {
	all, err := db.GetAllResolutions()
	if err != nil {
		return nil, err
	}
	var out []ResolutionRecord
	for _, rec := range all {
		if subject.Equal(sealkit.DN(rec.Subject)) {
			out = append(out, rec)
		}
	}
	return out, nil
}
