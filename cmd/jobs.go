package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bcaldwell/ledgerline/pkg/config"
	"github.com/bcaldwell/ledgerline/pkg/currency"
	"github.com/bcaldwell/ledgerline/pkg/networth"
	"github.com/bcaldwell/ledgerline/pkg/recurringjob"
)

var recurringCmd = &cobra.Command{
	Use:   "recurring",
	Short: "Post due recurring transactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		db, s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		return schedule(ctx, "recurring", config.CurrentConfig().Recurring.UpdateFrequency, recurringjob.NewProcessor(s))
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Record daily account balances and net worth",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		db, s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		conf := config.CurrentConfig()
		job := networth.NewJob(s, currency.NewConverter(conf.Currency, *config.CurrentExchangeRateAPISecrets()), conf.Currency.Base)
		job.BackfillDays = conf.Snapshot.BackfillDays

		return schedule(ctx, "snapshot", conf.Snapshot.UpdateFrequency, job)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		return db.Close()
	},
}

func init() {
	rootCmd.AddCommand(recurringCmd, snapshotCmd, migrateCmd)
}
