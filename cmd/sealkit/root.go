package main

import (
	"strings"

	"github.com/sensiblebit/sealkit/internal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	logLevel    string
	logFormat   string
	keyringPath string
	dbPath      string
)

var rootCmd = &cobra.Command{
	Use:   "sealkit",
	Short: "Envelope encryption with keystore, certificate, and LDAP keys",
	Long: `Resolve RSA keys from Java keystores, PKCS#12 files, certificate files, or an
LDAP directory, and seal payloads with RSA-wrapped triple-DES envelopes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return internal.SetupLogger(logLevel, logFormat)
	},
}

func init() {
	rootCmd.SetGlobalNormalizationFunc(normalizeFlagName)

	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().StringVarP(&keyringPath, "keyring", "k", "", "Keyring YAML file naming key references")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "SQLite catalog of key resolutions (default: none)")

	registerCompletion(rootCmd, completionInput{flagName: "log-level", completeFunc: fixedCompletion("debug", "info", "warn", "error")})
	registerCompletion(rootCmd, completionInput{flagName: "log-format", completeFunc: fixedCompletion("text", "json")})
	registerCompletion(rootCmd, completionInput{flagName: "keyring", completeFunc: fileCompletion})
	registerCompletion(rootCmd, completionInput{flagName: "db", completeFunc: fileCompletion})

	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(encryptCmd)
	rootCmd.AddCommand(decryptCmd)
	rootCmd.AddCommand(wrapCmd)
	rootCmd.AddCommand(unwrapCmd)
	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(exportCmd)
}

// normalizeFlagName lets --store_pass stand in for --store-pass.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}
