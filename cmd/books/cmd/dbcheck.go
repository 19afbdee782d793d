package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dbcheckCmd = &cobra.Command{
	Use:   "dbcheck",
	Short: "Check journal and transaction consistency",
	Long: `Check that every stored journal entry balances and that every
transaction agrees with its details. Exits non-zero when anything is found.

Example:
  books dbcheck`,
	RunE: runDBCheck,
}

func runDBCheck(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	report, err := a.services.Journal.DBCheck(a.context(cmd.Context()))
	if err != nil {
		return err
	}
	if err := printJSON(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if !report.Clean() {
		return fmt.Errorf("database check found %d problems", len(report.Findings))
	}
	return nil
}
