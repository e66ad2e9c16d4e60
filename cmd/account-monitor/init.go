package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const sampleConfig = `listen: ":3030"

# Optional bulk load of watched accounts at startup.
# accounts_file: accounts.yaml

# Optional rotki asset database backing token symbols/decimals and the
# KnownAssets spam filter.
# token_db: rotki_db.db

ntfy:
  url: ${NTFY_URL}
  topic: ${NTFY_TOPIC}
  token: ${NTFY_TOKEN}

chains:
  - name: Ethereum
    id: 1
    blocktime: 12s
    rpc_url: ${ETH_RPC_URL}
    explorer: https://etherscan.io
    mode: Blocks
    spam_filter: KnownAssets
  - name: Gnosis
    id: 100
    blocktime: 5s
    rpc_url: ${GNOSIS_RPC_URL}
    explorer: https://gnosisscan.io
    mode: Events
    spam_filter: SelfSubmittedTxs
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfgPath); err == nil {
			return fmt.Errorf("refusing to overwrite existing %s", cfgPath)
		}
		if err := os.WriteFile(cfgPath, []byte(sampleConfig), 0o644); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", cfgPath)
		return nil
	},
}
