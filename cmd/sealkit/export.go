package main

import (
	"crypto/x509"
	"fmt"

	"github.com/sensiblebit/sealkit"
	"github.com/sensiblebit/sealkit/internal"
	"github.com/spf13/cobra"
)

var (
	exportAlias         string
	exportSubject       string
	exportFormat        string
	exportOut           string
	exportStorePass     string
	exportStorePassFile string
	exportPass          string
	exportChain         bool
)

var exportCmd = &cobra.Command{
	Use:   "export <keystore>",
	Short: "Export an entry's certificate for a partner",
	Long: `Write the certificate of a key store entry, selected by --alias or --subject,
as PEM, DER, a PKCS#7 bundle, or a PKCS#12 trust store. Partners seal to the
exported certificate with "encrypt --cert".`,
	Example: `  sealkit export partner.jks --store-pass-file store.pass > partner.pem
  sealkit export partner.p12 --alias partner --format p7b --out partner.p7b
  sealkit export partner.jks --subject "CN=partner, O=Example" --format p12 --out trust.p12`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportAlias, "alias", "", "Entry alias (default: resolve by --subject)")
	exportCmd.Flags().StringVar(&exportSubject, "subject", "", "Subject DN of the entry (default: first entry)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "pem", "Output format: pem, der, p7b, or p12")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default: stdout)")
	exportCmd.Flags().StringVar(&exportStorePass, "store-pass", "", "Key store password")
	exportCmd.Flags().StringVar(&exportStorePassFile, "store-pass-file", "", "File containing the key store password")
	exportCmd.Flags().StringVar(&exportPass, "export-pass", "", "PKCS#12 trust store password (default: the store password)")
	exportCmd.Flags().BoolVar(&exportChain, "chain", false, "Include the entry's full certificate chain")

	exportCmd.MarkFlagsMutuallyExclusive("alias", "subject")
	registerCompletion(exportCmd, completionInput{flagName: "format", completeFunc: fixedCompletion(internal.ExportFormats...)})
	registerCompletion(exportCmd, completionInput{flagName: "out", completeFunc: fileCompletion})
	registerCompletion(exportCmd, completionInput{flagName: "store-pass-file", completeFunc: fileCompletion})
}

func runExport(cmd *cobra.Command, args []string) error {
	storePass, err := internal.ResolvePassword(internal.PasswordInput{
		Value:  exportStorePass,
		File:   exportStorePassFile,
		Prompt: "Store password for " + args[0],
	})
	if err != nil {
		return fmt.Errorf("store password: %w", err)
	}
	ks, err := sealkit.LoadKeyStore(args[0], storePass)
	if err != nil {
		return err
	}
	cert, err := internal.SelectCertificate(ks, exportAlias, sealkit.DN(exportSubject))
	if err != nil {
		return err
	}

	certs := []*x509.Certificate{cert}
	if exportChain {
		for _, e := range ks.Entries() {
			if e.Certificate.Equal(cert) {
				certs = e.Chain
				break
			}
		}
	}

	password := exportPass
	if password == "" {
		password = storePass
	}
	data, err := internal.EncodeCertificates(certs, exportFormat, password)
	if err != nil {
		return err
	}
	return writeOutput(cmd, exportOut, data)
}
