package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sensiblebit/sealkit"
	"github.com/sensiblebit/sealkit/internal"
	"github.com/spf13/cobra"
)

// keyFlags selects one key, either by keyring name or by naming its key
// store, certificate file, or directory entry directly.
type keyFlags struct {
	key           string
	keystore      string
	cert          string
	ldapHost      string
	baseDN        string
	cn            string
	timeout       time.Duration
	subject       string
	storePass     string
	storePassFile string
	entryPass     string
}

// keySelection is a key source plus how to describe it in the catalog.
type keySelection struct {
	source    sealkit.KeySource
	keyName   string
	reference string
}

func (f *keyFlags) register(cmd *cobra.Command, private bool) {
	flags := cmd.Flags()
	flags.StringVar(&f.key, "key", "", "Key name from the --keyring file")
	flags.StringVar(&f.keystore, "keystore", "", "JKS or PKCS#12 key store")
	flags.StringVar(&f.subject, "subject", "", "Subject DN the key's certificate must carry")
	flags.StringVar(&f.storePass, "store-pass", "", "Key store password")
	flags.StringVar(&f.storePassFile, "store-pass-file", "", "File containing the key store password")
	flags.StringVar(&f.entryPass, "entry-pass", "", "Entry password (default: the store password)")

	registerCompletion(cmd, completionInput{flagName: "key", completeFunc: keyNameCompletion})
	registerCompletion(cmd, completionInput{flagName: "keystore", completeFunc: fileCompletion})
	registerCompletion(cmd, completionInput{flagName: "store-pass-file", completeFunc: fileCompletion})

	if private {
		cmd.MarkFlagsMutuallyExclusive("key", "keystore")
		return
	}
	flags.StringVar(&f.cert, "cert", "", "Certificate file (PEM, DER, or PKCS#7)")
	flags.StringVar(&f.ldapHost, "ldap-host", "", "LDAP host publishing the certificate")
	flags.StringVar(&f.baseDN, "base-dn", "", "LDAP search base")
	flags.StringVar(&f.cn, "cn", "", "Common name of the LDAP entry")
	flags.DurationVar(&f.timeout, "ldap-timeout", sealkit.DefaultDirectoryTimeout, "LDAP connect and search timeout")

	registerCompletion(cmd, completionInput{flagName: "cert", completeFunc: fileCompletion})
	cmd.MarkFlagsMutuallyExclusive("key", "keystore", "cert", "ldap-host")
	cmd.MarkFlagsRequiredTogether("ldap-host", "base-dn", "cn")
}

// selection builds the key source named by the flags. private requests the
// private half, which only key stores hold.
func (f *keyFlags) selection(private bool) (keySelection, error) {
	if f.key != "" {
		if keyringPath == "" {
			return keySelection{}, errors.New("--key requires --keyring")
		}
		kr, err := internal.LoadKeyring(keyringPath)
		if err != nil {
			return keySelection{}, fmt.Errorf("loading keyring: %w", err)
		}
		ref, ok := kr.Lookup(f.key)
		if !ok {
			return keySelection{}, fmt.Errorf("key %q not in keyring %s", f.key, keyringPath)
		}
		src, err := ref.Source(private)
		if err != nil {
			return keySelection{}, err
		}
		return keySelection{source: src, keyName: ref.Name, reference: ref.Reference()}, nil
	}

	subject := sealkit.DN(f.subject)
	switch {
	case f.keystore != "":
		storePass, err := internal.ResolvePassword(internal.PasswordInput{
			Value:  f.storePass,
			File:   f.storePassFile,
			Prompt: "Store password for " + f.keystore,
		})
		if err != nil {
			return keySelection{}, fmt.Errorf("store password: %w", err)
		}
		return keySelection{
			source: sealkit.KeyStoreSource{
				Path:          f.keystore,
				StorePassword: storePass,
				EntryPassword: f.entryPass,
				Subject:       subject,
				Private:       private,
			},
			reference: f.keystore,
		}, nil
	case private:
		return keySelection{}, errors.New("a private key needs --keystore or a keystore --key")
	case f.cert != "":
		return keySelection{
			source:    sealkit.CertificateFileSource{Path: f.cert, Subject: subject},
			reference: f.cert,
		}, nil
	case f.ldapHost != "":
		return keySelection{
			source: sealkit.DirectorySource{
				Host:       f.ldapHost,
				BaseDN:     f.baseDN,
				CommonName: f.cn,
				Subject:    subject,
				Timeout:    f.timeout,
			},
			reference: f.ldapHost + "/" + f.baseDN,
		}, nil
	default:
		return keySelection{}, errors.New("no key selected: use --key, --keystore, --cert, or --ldap-host")
	}
}

// resolve resolves the selected key and records it in the --db catalog.
func (f *keyFlags) resolve(private bool) (*sealkit.ResolvedKey, error) {
	sel, err := f.selection(private)
	if err != nil {
		return nil, err
	}
	key, err := sel.source.Resolve()
	if err != nil {
		return nil, err
	}
	slog.Debug("key resolved", "origin", key.Origin, "alias", key.Alias, "subject", key.Subject.String(), "private", private)
	recordResolution(sel, private, key)
	return key, nil
}

// recordResolution appends key to the catalog when --db is set. Catalog
// failures are logged and never fail the operation.
func recordResolution(sel keySelection, private bool, key *sealkit.ResolvedKey) {
	if dbPath == "" {
		return
	}
	db, err := internal.OpenDB(dbPath)
	if err != nil {
		slog.Warn("opening catalog", "path", dbPath, "error", err)
		return
	}
	defer db.Close()
	rec, err := db.RecordResolution(sel.keyName, sel.reference, private, key)
	if err != nil {
		slog.Warn("recording resolution", "error", err)
		return
	}
	if err := db.SaveToDisk(dbPath); err != nil {
		slog.Warn("saving catalog", "path", dbPath, "error", err)
		return
	}
	slog.Debug("resolution recorded", "id", rec.ID, "fingerprint", rec.Fingerprint)
}
