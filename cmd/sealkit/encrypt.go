package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sensiblebit/sealkit/internal"
	"github.com/spf13/cobra"
)

var (
	encryptKeys keyFlags
	encryptIn   string
	encryptOut  string

	decryptKeys keyFlags
	decryptOut  string
)

var encryptCmd = &cobra.Command{
	Use:   "encrypt",
	Short: "Seal a payload for a recipient",
	Long: `Encrypt a payload under a fresh DESede session key and wrap that key with the
recipient's RSA public key. The result is a YAML envelope holding the wrapped
key and the base64 ciphertext.`,
	Example: `  sealkit encrypt --cert partner.crt --in payload.xml > payload.env
  sealkit encrypt --keyring keys.yaml --key partner < payload.xml
  sealkit encrypt --ldap-host ldap.example.com --base-dn o=Example --cn partner --in msg.txt`,
	Args: cobra.NoArgs,
	RunE: runEncrypt,
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt [envelope]",
	Short: "Open an envelope with a private key",
	Long:  "Unwrap an envelope's session key with the recipient's RSA private key and print the decrypted payload. The envelope is read from stdin when no file is given.",
	Example: `  sealkit decrypt payload.env --keystore partner.jks --store-pass-file store.pass
  sealkit decrypt --keyring keys.yaml --key self < payload.env`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecrypt,
}

func init() {
	encryptKeys.register(encryptCmd, false)
	encryptCmd.Flags().StringVar(&encryptIn, "in", "", "Payload file (default: stdin)")
	encryptCmd.Flags().StringVarP(&encryptOut, "out", "o", "", "Envelope file (default: stdout)")
	registerCompletion(encryptCmd, completionInput{flagName: "in", completeFunc: fileCompletion})
	registerCompletion(encryptCmd, completionInput{flagName: "out", completeFunc: fileCompletion})

	decryptKeys.register(decryptCmd, true)
	decryptCmd.Flags().StringVarP(&decryptOut, "out", "o", "", "Payload file (default: stdout)")
	registerCompletion(decryptCmd, completionInput{flagName: "out", completeFunc: fileCompletion})
}

func runEncrypt(cmd *cobra.Command, _ []string) error {
	plaintext, err := readInput(cmd, encryptIn)
	if err != nil {
		return err
	}
	recipient, err := encryptKeys.resolve(false)
	if err != nil {
		return fmt.Errorf("resolving recipient: %w", err)
	}
	env, err := internal.SealEnvelope(plaintext, recipient)
	if err != nil {
		return fmt.Errorf("sealing: %w", err)
	}
	data, err := internal.MarshalEnvelope(env)
	if err != nil {
		return err
	}
	slog.Info("payload sealed", "recipient", env.Recipient, "bytes", len(plaintext))
	return writeOutput(cmd, encryptOut, data)
}

func runDecrypt(cmd *cobra.Command, args []string) error {
	var in string
	if len(args) == 1 {
		in = args[0]
	}
	data, err := readInput(cmd, in)
	if err != nil {
		return err
	}
	env, err := internal.ParseEnvelope(data)
	if err != nil {
		return err
	}
	recipient, err := decryptKeys.resolve(true)
	if err != nil {
		return fmt.Errorf("resolving private key: %w", err)
	}
	plaintext, err := internal.OpenEnvelope(env, recipient)
	if err != nil {
		return fmt.Errorf("opening envelope: %w", err)
	}
	return writeOutput(cmd, decryptOut, plaintext)
}

// readInput reads path, or the command's stdin when path is empty.
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// writeOutput writes data to path, or to the command's stdout when path is
// empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
