package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bcaldwell/ledgerline/pkg/config"
	"github.com/bcaldwell/ledgerline/pkg/csvimporter"
	"github.com/bcaldwell/ledgerline/pkg/ynabimporter"
)

var (
	flagUser     string
	flagAccount  string
	flagTagRegex string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import transactions from YNAB or a CSV export",
}

var importYnabCmd = &cobra.Command{
	Use:   "ynab",
	Short: "Import the configured YNAB budgets",
	RunE: func(cmd *cobra.Command, args []string) error {
		token := config.CurrentYnabSecrets().YnabAccessToken
		if token == "" {
			return errors.New("ynab access token is not set")
		}

		ctx, cancel := signalContext()
		defer cancel()

		db, s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		conf := config.CurrentYnabConfig()
		importer, err := ynabimporter.NewImporter(ynabimporter.NewAPIClient(token), s, conf)
		if err != nil {
			return err
		}

		return schedule(ctx, "ynab", conf.UpdateFrequency, importer)
	},
}

var importCSVCmd = &cobra.Command{
	Use:   "csv <file>",
	Short: "Import a bank CSV export into one account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		db, s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		importer, err := csvimporter.NewImporter(s, config.CurrentCSVConfig(), flagTagRegex)
		if err != nil {
			return err
		}

		result, err := importer.ImportFile(ctx, flagUser, flagAccount, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%d inserted, %d updated, %d skipped\n", result.Inserted, result.Updated, result.Skipped)
		return nil
	},
}

func init() {
	importCSVCmd.Flags().StringVar(&flagUser, "user", "", "user the account belongs to")
	importCSVCmd.Flags().StringVar(&flagAccount, "account", "", "account id to import into")
	importCSVCmd.Flags().StringVar(&flagTagRegex, "tag-regex", "", "regex memo words must match to become tags")
	_ = importCSVCmd.MarkFlagRequired("user")
	_ = importCSVCmd.MarkFlagRequired("account")

	importCmd.AddCommand(importYnabCmd, importCSVCmd)
	rootCmd.AddCommand(importCmd)
}
