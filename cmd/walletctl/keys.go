package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/walletkit/wallet"
)

func newKeygenCmd(a *app) *cobra.Command {
	var passphrase, exportPassword string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an ed25519 key and add it to the wallet",
		Long: "Generate an ed25519 key. With --passphrase the wallet is unlocked (set up on first use)\n" +
			"and the key is stored encrypted in the configured keystore. With --export-password the\n" +
			"key is also printed in the base58 export form accepted by `sign --key`.",
		Args: cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if passphrase != "" {
				if err := a.unlock(ctx, passphrase); err != nil {
					return err
				}
			}
			account, priv, err := wallet.NewKey()
			if err != nil {
				return err
			}
			if _, err := a.wallet.Keys().AddKey(ctx, account, priv); err != nil {
				return err
			}
			printf(cmd, "address: %s\n", account.Address)
			if exportPassword != "" {
				exported, err := a.wallet.Keys().ExportKey(ctx, account, exportPassword)
				if err != nil {
					return err
				}
				printf(cmd, "exported: %s\n", exported)
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "wallet passphrase")
	cmd.Flags().StringVar(&exportPassword, "export-password", "", "print the key encrypted under this password")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the addresses in the keystore",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, _ []string) error {
			addrs, err := a.wallet.Keys().Addresses(cmd.Context())
			if err != nil {
				return err
			}
			for _, addr := range addrs {
				printf(cmd, "%s\n", addr)
			}
			return nil
		}),
	}
}

func newSignCmd(a *app) *cobra.Command {
	var (
		address, passphrase string
		exported, password  string
		encoding            string
		asTransaction       bool
	)
	cmd := &cobra.Command{
		Use:   "sign MESSAGE",
		Short: "Sign a message or a JSON transaction",
		Long: "Sign MESSAGE with the key of --address. The key comes from the keystore (unlocked\n" +
			"with --passphrase) or from --key and --password. With --tx, MESSAGE is a JSON\n" +
			"transaction and the signed transaction is printed as JSON.",
		Args: cobra.ExactArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			account := wallet.Account{Address: address}
			keys := a.wallet.Keys()
			switch {
			case exported != "":
				// an exported key signs from a storage-less wallet, leaving the keystore untouched
				scratch := wallet.New(wallet.WithLogger(a.log), wallet.WithKDF(a.cfg.KDF))
				keys = scratch.Keys()
				if _, err := keys.ImportKey(ctx, wallet.ImportSpec{
					Account: account, B58Encrypted: exported, Password: password,
				}); err != nil {
					return err
				}
			case passphrase != "":
				if err := keys.Unlock(ctx, passphrase); err != nil {
					return err
				}
			}

			if !asTransaction {
				sig, err := keys.SignMessage(ctx, account, []byte(args[0]), encoding)
				if err != nil {
					return err
				}
				printf(cmd, "%s\n", sig)
				return nil
			}

			var tx wallet.Transaction
			if err := json.Unmarshal([]byte(args[0]), &tx); err != nil {
				return fmt.Errorf("parse transaction: %w", err)
			}
			signed, err := keys.SignTransaction(ctx, account, tx)
			if err != nil {
				return err
			}
			out, err := json.Marshal(signed)
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", out)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&address, "address", "a", "", "signing account address")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "wallet passphrase")
	cmd.Flags().StringVar(&exported, "key", "", "exported key to sign with")
	cmd.Flags().StringVar(&password, "password", "", "password of --key")
	cmd.Flags().StringVarP(&encoding, "encoding", "e", wallet.EncodingHex, "signature encoding: hex or base58")
	cmd.Flags().BoolVar(&asTransaction, "tx", false, "treat MESSAGE as a JSON transaction")
	_ = cmd.MarkFlagRequired("address")
	cmd.MarkFlagsRequiredTogether("key", "password")
	return cmd
}

func newVerifyCmd(a *app) *cobra.Command {
	var address, signature, encoding string
	var asTransaction bool
	cmd := &cobra.Command{
		Use:   "verify MESSAGE",
		Short: "Verify a message signature or a signed JSON transaction",
		Args:  cobra.ExactArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			if asTransaction {
				var signed wallet.SignedTransaction
				if err := json.Unmarshal([]byte(args[0]), &signed); err != nil {
					return fmt.Errorf("parse signed transaction: %w", err)
				}
				if err := signed.Verify(); err != nil {
					return err
				}
				printf(cmd, "valid\n")
				return nil
			}
			ok, err := wallet.VerifyMessage(address, []byte(args[0]), signature, encoding)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("invalid signature")
			}
			printf(cmd, "valid\n")
			return nil
		}),
	}
	cmd.Flags().StringVarP(&address, "address", "a", "", "signer address")
	cmd.Flags().StringVarP(&signature, "signature", "s", "", "signature to check")
	cmd.Flags().StringVarP(&encoding, "encoding", "e", wallet.EncodingHex, "signature encoding: hex or base58")
	cmd.Flags().BoolVar(&asTransaction, "tx", false, "treat MESSAGE as a signed JSON transaction")
	cmd.MarkFlagsRequiredTogether("address", "signature")
	return cmd
}
