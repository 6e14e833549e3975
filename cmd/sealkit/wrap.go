package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/sensiblebit/sealkit"
	"github.com/sensiblebit/sealkit/internal"
	"github.com/spf13/cobra"
)

var (
	wrapKeys       keyFlags
	wrapSessionKey string

	unwrapKeys      keyFlags
	unwrapAlgorithm string
)

var wrapCmd = &cobra.Command{
	Use:   "wrap",
	Short: "Wrap a hex session key with a recipient's public key",
	Example: `  sealkit wrap --session-key "$(sealkit keygen)" --cert partner.crt
  sealkit wrap --session-key 0123...cdef --keyring keys.yaml --key partner`,
	Args: cobra.NoArgs,
	RunE: runWrap,
}

var unwrapCmd = &cobra.Command{
	Use:   "unwrap <wrapped-key>",
	Short: "Unwrap a base64 session key with a private key and print it as hex",
	Example: `  sealkit unwrap "$WRAPPED" --keystore partner.jks --store-pass-file store.pass`,
	Args:    cobra.ExactArgs(1),
	RunE:    runUnwrap,
}

func init() {
	wrapKeys.register(wrapCmd, false)
	wrapCmd.Flags().StringVar(&wrapSessionKey, "session-key", "", "Hex-encoded DESede session key")
	if err := wrapCmd.MarkFlagRequired("session-key"); err != nil {
		panic(err)
	}

	unwrapKeys.register(unwrapCmd, true)
	unwrapCmd.Flags().StringVar(&unwrapAlgorithm, "algorithm", sealkit.AlgorithmDESede, "Algorithm of the wrapped key, or a transform naming it")
	registerCompletion(unwrapCmd, completionInput{flagName: "algorithm", completeFunc: fixedCompletion(sealkit.AlgorithmDESede, sealkit.TransformDESede.String())})
}

func runWrap(cmd *cobra.Command, _ []string) error {
	session, err := internal.ParseSessionKeyHex(wrapSessionKey)
	if err != nil {
		return err
	}
	recipient, err := wrapKeys.resolve(false)
	if err != nil {
		return fmt.Errorf("resolving recipient: %w", err)
	}
	wrapped, err := sealkit.WrapKey(session, recipient.Key)
	if err != nil {
		return fmt.Errorf("wrapping session key: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), wrapped)
	return nil
}

func runUnwrap(cmd *cobra.Command, args []string) error {
	recipient, err := unwrapKeys.resolve(true)
	if err != nil {
		return fmt.Errorf("resolving private key: %w", err)
	}
	session, err := sealkit.UnwrapKey(strings.TrimSpace(args[0]), recipient.Key, unwrapAlgorithm)
	if err != nil {
		return fmt.Errorf("unwrapping session key: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(session.Material))
	return nil
}
