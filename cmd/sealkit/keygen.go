package main

import (
	"fmt"
	"os"

	"github.com/sensiblebit/sealkit/internal"
	"github.com/spf13/cobra"
)

var (
	keygenRSA           bool
	keygenSubject       string
	keygenOutPath       string
	keygenBits          int
	keygenDays          int
	keygenAlias         string
	keygenStorePass     string
	keygenStorePassFile string
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a session key or an RSA identity",
	Long: `Print a fresh DESede session key as hex. With --rsa, generate an RSA key and a
self-signed certificate for --subject and write them as a key store: PKCS#12
when --out ends in .p12 or .pfx, JKS otherwise.`,
	Example: `  sealkit keygen
  sealkit keygen --rsa --subject "CN=partner, O=Example, C=US" --out partner.jks
  sealkit keygen --rsa --subject "CN=partner" --out partner.p12 --bits 3072`,
	Args: cobra.NoArgs,
	RunE: runKeygen,
}

func init() {
	keygenCmd.Flags().BoolVar(&keygenRSA, "rsa", false, "Generate an RSA identity instead of a session key")
	keygenCmd.Flags().StringVar(&keygenSubject, "subject", "", "Subject DN of the certificate")
	keygenCmd.Flags().StringVarP(&keygenOutPath, "out", "o", "", "Key store file to write (.jks, .p12, .pfx)")
	keygenCmd.Flags().IntVarP(&keygenBits, "bits", "b", 2048, "RSA key size in bits")
	keygenCmd.Flags().IntVar(&keygenDays, "days", 365, "Certificate validity in days")
	keygenCmd.Flags().StringVar(&keygenAlias, "alias", "", "Entry alias (default: the subject's CN)")
	keygenCmd.Flags().StringVar(&keygenStorePass, "store-pass", "", "Key store password (min. 6 characters)")
	keygenCmd.Flags().StringVar(&keygenStorePassFile, "store-pass-file", "", "File containing the key store password")

	keygenCmd.MarkFlagsRequiredTogether("rsa", "subject", "out")
	registerCompletion(keygenCmd, completionInput{flagName: "bits", completeFunc: fixedCompletion("2048", "3072", "4096")})
	registerCompletion(keygenCmd, completionInput{flagName: "out", completeFunc: fileCompletion})
	registerCompletion(keygenCmd, completionInput{flagName: "store-pass-file", completeFunc: fileCompletion})
}

func runKeygen(cmd *cobra.Command, _ []string) error {
	if !keygenRSA {
		key, err := internal.GenerateSessionKeyHex()
		if err != nil {
			return fmt.Errorf("generating session key: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	}

	password, err := internal.ResolvePassword(internal.PasswordInput{
		Value:  keygenStorePass,
		File:   keygenStorePassFile,
		Prompt: "Store password for " + keygenOutPath,
	})
	if err != nil {
		return fmt.Errorf("store password: %w", err)
	}

	result, err := internal.GenerateIdentity(internal.KeygenOptions{
		Subject:  keygenSubject,
		Bits:     keygenBits,
		Days:     keygenDays,
		OutPath:  keygenOutPath,
		Alias:    keygenAlias,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("generating identity: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Key store:   %s (%s)\n", result.Path, result.Format)
	fmt.Fprintf(os.Stderr, "Alias:       %s\n", result.Alias)
	fmt.Fprintf(os.Stderr, "Subject:     %s\n", result.Subject)
	fmt.Fprintf(os.Stderr, "Fingerprint: %s\n", result.Fingerprint)
	return nil
}
