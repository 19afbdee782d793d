package cmd

import (
	"github.com/SscSPs/org_books/internal/dto"
	"github.com/spf13/cobra"
)

var unbalancedCmd = &cobra.Command{
	Use:   "unbalanced",
	Short: "List stored journal entries whose debits and credits differ",
	Long: `List every stored journal entry whose debits and credits differ,
totalled from its line items.

Example:
  books unbalanced`,
	RunE: runUnbalanced,
}

func runUnbalanced(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	balances, err := a.services.Journal.FindUnbalancedEntries(a.context(cmd.Context()))
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), dto.UnbalancedEntriesResponse{
		Source:  "persisted",
		Entries: dto.ToEntryBalanceResponses(balances),
	})
}
