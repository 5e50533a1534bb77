package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"k8s.io/klog"

	"github.com/bcaldwell/ledgerline/pkg/config"
	"github.com/bcaldwell/ledgerline/pkg/dbutils"
	"github.com/bcaldwell/ledgerline/pkg/store"
)

var (
	flagConfig    string
	flagSecrets   string
	flagSingleRun bool
)

var rootCmd = &cobra.Command{
	Use:           "ledgerline",
	Short:         "Personal finance ledger with recurring transaction projection",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.ReadConfig(config.ConfigEnvVar, flagConfig, flagSecrets)
	},
}

// Execute is called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "./config.yml", "configuration file")
	rootCmd.PersistentFlags().StringVar(&flagSecrets, "secrets", "./secrets.json", "secrets file")
	rootCmd.PersistentFlags().BoolVar(&flagSingleRun, "single-run", false, "run jobs once (disable cron)")
}

// openStore connects to the configured database and brings the schema up to
// date.
func openStore(ctx context.Context) (*bun.DB, *store.Store, error) {
	db, err := dbutils.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := store.New(db).WithBatchSize(config.CurrentDatabaseConfig().BatchSize)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, s, nil
}

type Runner interface {
	Run(ctx context.Context) error
}

// schedule runs runner once, then on every tick of spec until the process
// exits. --single-run stops after the first run.
func schedule(ctx context.Context, name, spec string, runner Runner) error {
	run := func() {
		klog.Infof("%s: starting run at %s\n", name, time.Now().Format(time.RFC850))
		if err := runner.Run(ctx); err != nil {
			klog.Errorf("%s: %s\n", name, err)
		}
	}

	run()

	if flagSingleRun {
		return nil
	}

	c := cron.New()
	if err := c.AddFunc(spec, run); err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", spec, name, err)
	}

	c.Start()
	defer c.Stop()

	<-ctx.Done()
	return nil
}
