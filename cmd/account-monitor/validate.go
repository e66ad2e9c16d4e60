package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/devblac/account-monitor/internal/config"
	"github.com/devblac/account-monitor/internal/ethrpc"
)

const connectTimeout = 10 * time.Second

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate config and ping RPC endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("config invalid: %w", err)
		}
		fmt.Fprintf(out, "config OK (%d chains)\n", len(cfg.Chains))

		failures := 0
		for i := range cfg.Chains {
			chain := &cfg.Chains[i]
			id, err := pingChain(cmd.Context(), chain)
			if err != nil {
				failures++
				fmt.Fprintf(out, "- chain %s: ERROR %v\n", chain.Name, err)
				continue
			}
			fmt.Fprintf(out, "- chain %s: chain id %d OK\n", chain.Name, id)
		}

		if failures > 0 {
			return fmt.Errorf("validate: %d chain(s) failed connectivity", failures)
		}

		fmt.Fprintln(out, "validate: success")
		return nil
	},
}

func pingChain(ctx context.Context, chain *config.Chain) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := ethrpc.Dial(ctx, chain.RPC)
	if err != nil {
		return 0, err
	}
	defer client.Close()

	return client.VerifyChainID(ctx, chain.ID)
}
