package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"vatfiler/internal/cli"
	"vatfiler/internal/receipts"
)

// Receipts flags.
var (
	receiptsVRN    string
	receiptsOutput string
)

var receiptsCmd = &cobra.Command{
	Use:   "receipts",
	Short: "List recorded submission receipts",
	Long: `Lists the receipts recorded for successful VAT return submissions.

Examples:
  vatfiler receipts                   # All receipts as a table
  vatfiler receipts --vrn 123456789   # One VRN only
  vatfiler receipts -o json           # Raw JSON`,
	Args: cobra.NoArgs,
	RunE: runReceipts,
}

func runReceipts(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	log := receipts.NewLog(settings.ReceiptsFile())
	var list []receipts.Receipt
	if receiptsVRN != "" {
		list, err = log.ListForVRN(receiptsVRN)
	} else {
		list, err = log.List()
	}
	if err != nil {
		return fmt.Errorf("failed to read receipts: %w", err)
	}

	out := cmd.OutOrStdout()
	switch receiptsOutput {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	case "table", "":
		cli.RenderReceipts(out, list)
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (use table or json)", receiptsOutput)
	}
}

func init() {
	rootCmd.AddCommand(receiptsCmd)

	receiptsCmd.Flags().StringVar(&receiptsVRN, "vrn", "", "Only show receipts for this VAT registration number")
	receiptsCmd.Flags().StringVarP(&receiptsOutput, "output", "o", "table", "Output format: table or json")
}
