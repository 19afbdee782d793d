package cmd

import (
	"fmt"

	"github.com/SscSPs/org_books/internal/dto"
	"github.com/spf13/cobra"
)

var dryRun bool

var regenerateCmd = &cobra.Command{
	Use:   "regenerate",
	Short: "Rebuild the journal from the transactions",
	Long: `Delete every unfrozen journal entry and build the journal again from
all sales, invoices, expense claims and expense transactions.

With --dry-run every entry is built in memory and reported, and the stored
journal is left alone.

Example:
  books regenerate
  books regenerate --dry-run`,
	RunE: runRegenerate,
}

func init() {
	regenerateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "build entries without writing them")
}

func runRegenerate(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	report, err := a.services.Journal.Regenerate(a.context(cmd.Context()), dto.RegenerateRequest{DryRun: dryRun})
	if err != nil {
		return err
	}
	if err := printJSON(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if len(report.Failures) > 0 {
		return fmt.Errorf("%d transactions could not be journaled", len(report.Failures))
	}
	return nil
}
