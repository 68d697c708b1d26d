package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/kbukum/walletkit/version"
)

func newCapabilitiesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "capabilities",
		Short: "Show the providers registered for each capability, outermost last",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, _ []string) error {
			for _, name := range a.wallet.Capabilities() {
				printf(cmd, "%s\n", name)
				for _, p := range a.wallet.Providers(name) {
					printf(cmd, "  %s\n", p.Source)
				}
			}
			return nil
		}),
	}
}

func newVersionCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		// no config or wallet needed
		PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			if !asJSON {
				printf(cmd, "walletctl %s\n", info)
				return nil
			}
			out, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
