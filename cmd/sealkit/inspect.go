package main

import (
	"fmt"

	"github.com/sensiblebit/sealkit/internal"
	"github.com/spf13/cobra"
)

var (
	inspectFormat        string
	inspectStorePass     string
	inspectStorePassFile string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "List key store entries or certificate details",
	Long:  "Show the entries of a JKS or PKCS#12 key store, or the certificates of a PEM, DER, or PKCS#7 file, with the transform each key selects.",
	Example: `  sealkit inspect partner.crt
  sealkit inspect keys.jks --store-pass-file store.pass
  sealkit inspect keys.p12 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "text", "Output format: text, json, or yaml")
	inspectCmd.Flags().StringVar(&inspectStorePass, "store-pass", "", "Key store password")
	inspectCmd.Flags().StringVar(&inspectStorePassFile, "store-pass-file", "", "File containing the key store password")

	registerCompletion(inspectCmd, completionInput{flagName: "format", completeFunc: fixedCompletion("text", "json", "yaml")})
	registerCompletion(inspectCmd, completionInput{flagName: "store-pass-file", completeFunc: fileCompletion})
}

func runInspect(cmd *cobra.Command, args []string) error {
	password := func() (string, error) {
		return internal.ResolvePassword(internal.PasswordInput{
			Value:  inspectStorePass,
			File:   inspectStorePassFile,
			Prompt: "Store password for " + args[0],
		})
	}

	results, err := internal.InspectFile(args[0], password)
	if err != nil {
		return err
	}

	output, err := internal.FormatInspectResults(results, inspectFormat)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), output)
	return nil
}
