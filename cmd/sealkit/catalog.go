package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/sensiblebit/sealkit"
	"github.com/sensiblebit/sealkit/internal"
	"github.com/spf13/cobra"
)

var (
	catalogSubject string
	catalogFormat  string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List recorded key resolutions",
	Long:  "List the key resolutions recorded in the --db catalog by earlier encrypt, decrypt, wrap, and unwrap runs.",
	Example: `  sealkit catalog --db resolutions.db
  sealkit catalog --db resolutions.db --subject "CN=partner, O=Example, C=US" --format json`,
	Args: cobra.NoArgs,
	RunE: runCatalog,
}

func init() {
	catalogCmd.Flags().StringVar(&catalogSubject, "subject", "", "Only show resolutions of this subject DN")
	catalogCmd.Flags().StringVar(&catalogFormat, "format", "text", "Output format: text or json")
	registerCompletion(catalogCmd, completionInput{flagName: "format", completeFunc: fixedCompletion("text", "json")})
}

// catalogEntry is the JSON form of a catalog record.
type catalogEntry struct {
	ID          string          `json:"id"`
	Key         string          `json:"key,omitempty"`
	Origin      string          `json:"origin"`
	Reference   string          `json:"reference"`
	Alias       string          `json:"alias,omitempty"`
	Subject     string          `json:"subject"`
	Algorithm   string          `json:"algorithm"`
	Fingerprint string          `json:"fingerprint"`
	Private     bool            `json:"private"`
	ResolvedAt  string          `json:"resolved_at"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

func runCatalog(cmd *cobra.Command, _ []string) error {
	if dbPath == "" {
		return errors.New("catalog requires --db")
	}
	db, err := internal.OpenDB(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	var recs []internal.ResolutionRecord
	if catalogSubject != "" {
		recs, err = db.GetResolutionsBySubject(sealkit.DN(catalogSubject))
	} else {
		recs, err = db.GetAllResolutions()
	}
	if err != nil {
		return err
	}

	switch catalogFormat {
	case "json":
		entries := make([]catalogEntry, 0, len(recs))
		for _, r := range recs {
			e := catalogEntry{
				ID:          r.ID,
				Key:         r.KeyName.String,
				Origin:      r.Origin,
				Reference:   r.Reference,
				Alias:       r.Alias.String,
				Subject:     r.Subject,
				Algorithm:   r.Algorithm,
				Fingerprint: r.Fingerprint,
				Private:     r.Private,
				ResolvedAt:  r.ResolvedAt.UTC().Format(time.RFC3339),
			}
			if len(r.MetadataJSON) > 0 {
				e.Metadata = json.RawMessage(r.MetadataJSON)
			}
			entries = append(entries, e)
		}
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	case "text":
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RESOLVED\tORIGIN\tKEY\tSUBJECT\tFINGERPRINT\tPRIVATE")
		for _, r := range recs {
			name := r.KeyName.String
			if name == "" {
				name = r.Reference
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				r.ResolvedAt.UTC().Format(time.RFC3339), r.Origin, name,
				r.Subject, r.Fingerprint, strconv.FormatBool(r.Private))
		}
		return w.Flush()
	default:
		return fmt.Errorf("unsupported output format %q (use text or json)", catalogFormat)
	}
	return nil
}
