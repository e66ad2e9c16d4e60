package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/devblac/account-monitor/internal/addressbook"
	"github.com/devblac/account-monitor/internal/api"
	"github.com/devblac/account-monitor/internal/config"
	"github.com/devblac/account-monitor/internal/engine"
	"github.com/devblac/account-monitor/internal/ethrpc"
	"github.com/devblac/account-monitor/internal/logging"
	"github.com/devblac/account-monitor/internal/metrics"
	"github.com/devblac/account-monitor/internal/notify"
	"github.com/devblac/account-monitor/internal/token"
)

var flagDebugBlock uint64

func init() {
	runCmd.Flags().Uint64Var(&flagDebugBlock, "debug-block", 0, "Replay a single block and exit once a notification is sent")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the account watchers",
	RunE: func(cmd *cobra.Command, args []string) error {
		logLevel := os.Getenv("LOG_LEVEL")
		if logLevel == "" {
			logLevel = "info"
		}
		log := logging.NewWithLevel(logLevel)

		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		book := addressbook.New()
		count := 0
		if cfg.AccountsFile != "" {
			count, err = addressbook.LoadFile(cfg.AccountsFile, book)
			if err != nil {
				return fmt.Errorf("load accounts: %w", err)
			}
		}

		var tokens *token.Store
		if cfg.TokenDB != "" {
			tokens, err = token.Open(cfg.TokenDB)
			if err != nil {
				return fmt.Errorf("open token db: %w", err)
			}
			defer tokens.Close()
		}

		mtr := metrics.Init()
		mtr.SetMonitoredAccounts(count)

		sender, err := notify.NewSender(cfg.Ntfy)
		if err != nil {
			return err
		}
		builder := notify.NewBuilder(tokens)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		startup := notify.Notification{
			Message: fmt.Sprintf("Account Monitor Started, %d accounts configured", count),
		}
		if err := sender.Send(ctx, startup); err != nil {
			return fmt.Errorf("startup notification: %w", err)
		}

		srv := api.Serve(cfg.Listen, api.New(book, mtr, log).Handler())
		log.Info("api listening", "addr", cfg.Listen)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = api.Shutdown(shutdownCtx, srv)
		}()

		g, gctx := errgroup.WithContext(ctx)
		for i := range cfg.Chains {
			chain := &cfg.Chains[i]

			client, err := ethrpc.Dial(ctx, chain.RPC)
			if err != nil {
				return fmt.Errorf("chain %s: %w", chain.Name, err)
			}
			defer client.Close()

			id, err := client.VerifyChainID(ctx, chain.ID)
			if err != nil {
				return fmt.Errorf("chain %s: %w", chain.Name, err)
			}
			chain.ID = id

			poller := engine.New(chain, client, ethrpc.NewReceiptFetcher(client),
				book, builder, sender, tokens, mtr, log)

			if flagDebugBlock > 0 {
				g.Go(func() error { return poller.Replay(gctx, flagDebugBlock) })
			} else {
				g.Go(func() error { return poller.Run(gctx) })
			}
		}

		err = g.Wait()
		switch {
		case errors.Is(err, engine.ErrReplayDone):
			return nil
		case errors.Is(err, context.Canceled):
			log.Info("shutting down")
			return nil
		default:
			return err
		}
	},
}
