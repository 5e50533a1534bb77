package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bcaldwell/ledgerline/internal/server"
	"github.com/bcaldwell/ledgerline/pkg/config"
	"github.com/bcaldwell/ledgerline/pkg/currency"
	"github.com/bcaldwell/ledgerline/pkg/networth"
	"github.com/bcaldwell/ledgerline/pkg/recurringjob"
)

var flagNoJobs bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and run the scheduled jobs",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&flagNoJobs, "no-jobs", false, "only serve the API")
	rootCmd.AddCommand(serveCmd)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	db, s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	conf := config.CurrentConfig()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.New(s, conf).ListenAndServe(ctx)
	})

	if !flagNoJobs {
		g.Go(func() error {
			return schedule(ctx, "recurring", conf.Recurring.UpdateFrequency, recurringjob.NewProcessor(s))
		})

		job := networth.NewJob(s, currency.NewConverter(conf.Currency, *config.CurrentExchangeRateAPISecrets()), conf.Currency.Base)
		job.BackfillDays = conf.Snapshot.BackfillDays
		g.Go(func() error {
			return schedule(ctx, "snapshot", conf.Snapshot.UpdateFrequency, job)
		})
	}

	return g.Wait()
}
