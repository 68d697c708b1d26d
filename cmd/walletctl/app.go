package main

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/walletkit/config"
	"github.com/kbukum/walletkit/errors"
	"github.com/kbukum/walletkit/logger"
	"github.com/kbukum/walletkit/observability"
	"github.com/kbukum/walletkit/wallet"
)

const (
	serviceName = "walletctl"
	envPrefix   = "WALLETKIT"
)

// app holds what every command shares: flags, config and the wallet.
type app struct {
	configFile string
	envFile    string

	cfg      wallet.Config
	log      *logger.Logger
	wallet   *wallet.Wallet
	shutdown []func(context.Context) error
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:          serviceName,
		Short:        "Generate, store and use walletkit keys",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close(cmd.Context())
		},
	}
	cmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "config file (default: resolved from cmd/walletctl, config/, ~/.walletctl)")
	cmd.PersistentFlags().StringVar(&a.envFile, "env-file", "", ".env file to load")

	cmd.AddCommand(
		newKeygenCmd(a),
		newListCmd(a),
		newSignCmd(a),
		newVerifyCmd(a),
		newCapabilitiesCmd(a),
		newVersionCmd(),
	)
	return cmd
}

// open loads configuration, initializes logging and telemetry and builds
// the wallet.
func (a *app) open(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	opts := []config.LoaderOption{config.WithEnvPrefix(envPrefix)}
	if a.configFile != "" {
		opts = append(opts, config.WithConfigFile(a.configFile))
	}
	if a.envFile != "" {
		opts = append(opts, config.WithEnvFile(a.envFile))
	}

	var cfg wallet.Config
	if err := config.LoadConfig(serviceName, &cfg, opts...); err != nil {
		return err
	}
	cfg.ApplyDefaults()
	if cfg.Logging.Output == "stdout" {
		// stdout carries command output
		cfg.Logging.Output = "stderr"
	}
	logger.Init(cfg.Logging)
	a.log = logger.GetGlobalLogger().WithComponent(serviceName)
	a.cfg = cfg

	if cfg.Tracing.Enabled {
		tp, err := observability.InitTracer(ctx, cfg.Tracing)
		if err != nil {
			return err
		}
		a.shutdown = append(a.shutdown, tp.Shutdown)
	}
	if cfg.Metrics.Enabled {
		mp, err := observability.InitMeter(ctx, cfg.Metrics)
		if err != nil {
			return stderrors.Join(err, a.close(ctx))
		}
		a.shutdown = append(a.shutdown, mp.Shutdown)
	}

	w, err := wallet.NewFromConfig(cfg, a.log)
	if err != nil {
		return stderrors.Join(err, a.close(ctx))
	}
	a.wallet = w
	a.log.Debug("wallet ready", logger.Fields(logger.FieldWalletID, w.ID(), logger.FieldBackend, cfg.Storage.Backend))
	return nil
}

func (a *app) close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var errs []error
	if a.wallet != nil {
		errs = append(errs, a.wallet.Close())
		a.wallet = nil
	}
	for i := len(a.shutdown) - 1; i >= 0; i-- {
		errs = append(errs, a.shutdown[i](ctx))
	}
	a.shutdown = nil
	return stderrors.Join(errs...)
}

// runE wraps a command body so the wallet is closed when it fails; cobra
// skips post-run hooks after an error.
func (a *app) runE(fn func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return stderrors.Join(err, a.close(cmd.Context()))
		}
		return nil
	}
}

// unlock unlocks the wallet with passphrase, running setup first when the
// datastore has never seen one.
func (a *app) unlock(ctx context.Context, passphrase string) error {
	err := a.wallet.Keys().Unlock(ctx, passphrase)
	if !errors.Is(err, errors.ErrCodeNotConfigured) {
		return err
	}
	if _, dsErr := a.wallet.Datastore(ctx); dsErr != nil {
		return dsErr
	}
	a.log.Info("first unlock, sealing app id", logger.Fields("app_id", a.cfg.AppID))
	return a.wallet.Keys().SetupAndUnlock(ctx, a.cfg.AppID, passphrase)
}

func printf(cmd *cobra.Command, format string, args ...any) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
