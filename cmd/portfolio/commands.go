package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"wallet_portfolio/internal/address"
	"wallet_portfolio/internal/app"
	"wallet_portfolio/internal/assets"
	"wallet_portfolio/internal/balance"
	"wallet_portfolio/internal/config"
	"wallet_portfolio/internal/domain"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "portfolio",
		Short:         "Operator tools for the wallet portfolio service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.SetupLogger(config.LoadConfig())
		},
	}
	root.AddCommand(newBalancesCmd(), newPricesCmd(), newNormalizeCmd())
	return root
}

func newBalancesCmd() *cobra.Command {
	var evm, btc, list string
	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Aggregate wallet balances from the chain sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			registry, err := assets.Load(cfg.AssetsFile)
			if err != nil {
				return err
			}
			wallet, err := parseWallet(evm, btc)
			if err != nil {
				return err
			}
			res, err := app.NewAggregator(cfg, registry).Aggregate(cmd.Context(), wallet, assets.ParseList(list))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&evm, "evm", "", "EVM address")
	cmd.Flags().StringVar(&btc, "btc", "", "bitcoin address")
	cmd.Flags().StringVar(&list, "assets", "", "comma separated symbols, all when empty")
	return cmd
}

func newPricesCmd() *cobra.Command {
	var list string
	cmd := &cobra.Command{
		Use:   "prices",
		Short: "Fetch USD prices from the market-data source",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			registry, err := assets.Load(cfg.AssetsFile)
			if err != nil {
				return err
			}
			snap, err := app.NewPriceService(cfg, registry, nil).FetchPrices(cmd.Context(), assets.ParseList(list))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), snap)
		},
	}
	cmd.Flags().StringVar(&list, "assets", "", "comma separated symbols, all when empty")
	return cmd
}

func newNormalizeCmd() *cobra.Command {
	var family string
	cmd := &cobra.Command{
		Use:   "normalize <address>",
		Short: "Print the canonical form of an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := normalize(args[0], family)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&family, "family", "", "evm or bitcoin, detected when empty")
	return cmd
}

// normalize returns the canonical address, plus the EIP-55 form for EVM
func normalize(raw, family string) (string, error) {
	var f domain.Family
	switch strings.ToLower(family) {
	case "":
		detected, err := address.Detect(raw)
		if err != nil {
			return "", err
		}
		f = detected
	case string(domain.FamilyEVM):
		f = domain.FamilyEVM
	case string(domain.FamilyBitcoin):
		f = domain.FamilyBitcoin
	default:
		return "", fmt.Errorf("unknown family %q", family)
	}

	canonical, err := address.Normalize(raw, f)
	if err != nil {
		return "", err
	}
	if f == domain.FamilyEVM {
		return fmt.Sprintf("%s\t%s\t%s", f, canonical, address.Checksum(canonical)), nil
	}
	return fmt.Sprintf("%s\t%s", f, canonical), nil
}

func parseWallet(evm, btc string) (balance.Wallet, error) {
	var w balance.Wallet
	if evm == "" && btc == "" {
		return w, fmt.Errorf("at least one of --evm or --btc is required")
	}
	if evm != "" {
		c, err := address.Normalize(evm, domain.FamilyEVM)
		if err != nil {
			return w, fmt.Errorf("--evm: %w", err)
		}
		w.EVM = c
	}
	if btc != "" {
		c, err := address.Normalize(btc, domain.FamilyBitcoin)
		if err != nil {
			return w, fmt.Errorf("--btc: %w", err)
		}
		w.Bitcoin = c
	}
	return w, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
