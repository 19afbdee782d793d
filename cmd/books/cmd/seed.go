package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var seedFile string

var seedAccountsCmd = &cobra.Command{
	Use:   "seed-accounts",
	Short: "Create the chart of accounts from a YAML file",
	Long: `Create every account listed in the seed file that does not exist yet.
Existing accounts, matched by name, are left alone.

Example:
  books seed-accounts
  books seed-accounts --file configs/accounts.yaml`,
	RunE: runSeedAccounts,
}

func init() {
	seedAccountsCmd.Flags().StringVar(&seedFile, "file", "", "seed file (default ACCOUNTS_SEED_FILE)")
}

func runSeedAccounts(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	path := seedFile
	if path == "" {
		path = a.cfg.AccountsSeedFile
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	resp, err := a.services.Account.SeedAccounts(a.context(cmd.Context()), f)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), resp)
}
