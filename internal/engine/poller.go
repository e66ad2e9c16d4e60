// Package engine drives one polling loop per chain: it advances through
// chain history, classifies raw chain data, filters spam, collapses
// candidates per transaction, and hands notifications to the transport.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/devblac/account-monitor/internal/addressbook"
	"github.com/devblac/account-monitor/internal/classify"
	"github.com/devblac/account-monitor/internal/config"
	"github.com/devblac/account-monitor/internal/ethrpc"
	"github.com/devblac/account-monitor/internal/metrics"
	"github.com/devblac/account-monitor/internal/notify"
)

const (
	// maxBlockRange caps Events-mode log queries to respect provider limits.
	maxBlockRange = 100
	// startBackoffRetryCount is how many consecutive failures retry
	// immediately before each further retry waits a full blocktime.
	startBackoffRetryCount = 3
)

// ErrReplayDone reports that a replay run produced a notification and the
// process can exit successfully.
var ErrReplayDone = errors.New("replay produced a notification")

// HeadClient captures the subset of the RPC client the poller uses directly.
type HeadClient interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// Notifier delivers a formatted notification.
type Notifier interface {
	Send(ctx context.Context, n notify.Notification) error
}

// KnownAssets backs the KnownAssets spam policy.
type KnownAssets interface {
	Known(ctx context.Context, chainID uint64, contract common.Address) bool
}

// Poller runs the polling state machine for a single chain. Pollers never
// coordinate with each other; the addressbook is the only shared state.
type Poller struct {
	chain    *config.Chain
	client   HeadClient
	receipts ethrpc.ReceiptFetcher
	book     *addressbook.Book
	builder  *notify.Builder
	notifier Notifier
	assets   KnownAssets
	metrics  *metrics.Metrics
	log      *slog.Logger
	sleep    func(ctx context.Context, d time.Duration)

	nextBlock   uint64
	initialized bool
	retryCount  int
}

// New builds a poller for one chain.
func New(chain *config.Chain, client HeadClient, receipts ethrpc.ReceiptFetcher,
	book *addressbook.Book, builder *notify.Builder, notifier Notifier,
	assets KnownAssets, mtr *metrics.Metrics, log *slog.Logger) *Poller {
	return &Poller{
		chain:    chain,
		client:   client,
		receipts: receipts,
		book:     book,
		builder:  builder,
		notifier: notifier,
		assets:   assets,
		metrics:  mtr,
		log:      log.With("chain", chain.Name),
		sleep:    ctxSleep,
	}
}

// Run polls until the context is canceled.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info("starting account watcher", "mode", p.chain.PollMode().String())

	for ctx.Err() == nil {
		switch p.chain.PollMode() {
		case config.ModeEvents:
			p.cycleEvents(ctx)
		default:
			p.cycleBlocks(ctx)
		}
	}
	return ctx.Err()
}

// cycleBlocks walks every block from nextBlock through the current head,
// fetching its receipts. The pointer advances only after a block's receipts
// were fetched; a transient failure aborts the rest of the range so the
// failed block is retried next cycle (at least once, never skipped).
func (p *Poller) cycleBlocks(ctx context.Context) {
	start := time.Now()

	head, ok := p.fetchHead(ctx)
	if !ok {
		return
	}

	for p.nextBlock <= head && ctx.Err() == nil {
		p.log.Debug("processing block", "block", p.nextBlock)

		receipts, err := p.receipts.BlockReceipts(ctx, p.nextBlock)
		if err != nil {
			p.log.Error("fetch block receipts failed, retrying next cycle", "block", p.nextBlock, "error", err)
			p.metrics.RPCError(p.chain.Name)
			break
		}

		p.dispatch(ctx, classify.FromReceipts(receipts, p.book.Topics()))
		p.nextBlock++
	}

	p.metrics.SetCurrentBlock(p.chain.Name, head)
	p.retryCount = 0
	p.sleepRemainder(ctx, start)
}

// cycleEvents queries logs for a capped range ending one block behind head
// (confirmation buffer). The pointer advances past the processed chunk
// regardless of notification outcome; a log fetch error is handled like a
// head fetch error and leaves the pointer untouched.
func (p *Poller) cycleEvents(ctx context.Context) {
	start := time.Now()

	head, ok := p.fetchHead(ctx)
	if !ok {
		return
	}
	p.metrics.SetCurrentBlock(p.chain.Name, head)

	if head > 0 && p.nextBlock <= head-1 {
		target := head - 1
		to := p.nextBlock + maxBlockRange - 1
		if to > target {
			to = target
		}

		p.log.Debug("processing range", "from", p.nextBlock, "to", to)

		logs, err := p.filterRange(ctx, p.nextBlock, to)
		if err != nil {
			p.log.Error("fetch logs failed, retrying", "from", p.nextBlock, "to", to, "error", err)
			p.metrics.RPCError(p.chain.Name)
			p.backoff(ctx)
			return
		}

		p.dispatch(ctx, classify.FromLogs(logs, p.book.Topics()))
		p.nextBlock = to + 1
	}

	p.retryCount = 0
	p.sleepRemainder(ctx, start)
}

// Replay freezes on a single block, reprocessing it every blocktime until a
// notification is produced, then returns ErrReplayDone. The initial fetch is
// fatal: replay exists for one-shot verification, not steady-state operation.
func (p *Poller) Replay(ctx context.Context, block uint64) error {
	p.log.Warn("running in replay mode, getting single block", "block", block)

	var candidates func() []classify.Transaction
	switch p.chain.PollMode() {
	case config.ModeEvents:
		logs, err := p.filterRange(ctx, block, block)
		if err != nil {
			return fmt.Errorf("replay logs %d: %w", block, err)
		}
		candidates = func() []classify.Transaction {
			return classify.FromLogs(logs, p.book.Topics())
		}
	default:
		receipts, err := p.receipts.BlockReceipts(ctx, block)
		if err != nil {
			return fmt.Errorf("replay receipts %d: %w", block, err)
		}
		candidates = func() []classify.Transaction {
			return classify.FromReceipts(receipts, p.book.Topics())
		}
	}

	for ctx.Err() == nil {
		if sent := p.dispatch(ctx, candidates()); sent > 0 {
			p.log.Info("notification sent, replay done")
			return ErrReplayDone
		}
		p.log.Warn("no transaction by monitored accounts found, have the accounts been set up?")
		p.sleep(ctx, p.chain.PollInterval())
	}
	return ctx.Err()
}

// fetchHead gets the current head, initializing nextBlock on the first
// success (history before startup is never backfilled). On failure it applies
// the retry policy and reports false.
func (p *Poller) fetchHead(ctx context.Context) (uint64, bool) {
	head, err := p.client.BlockNumber(ctx)
	if err != nil {
		p.log.Error("fetch head block number failed, retrying", "error", err)
		p.metrics.RPCError(p.chain.Name)
		p.backoff(ctx)
		return 0, false
	}

	if !p.initialized {
		p.nextBlock = head
		p.initialized = true
	}
	return head, true
}

// backoff retries immediately until the consecutive failure count passes the
// threshold, then sleeps a full blocktime before the next attempt. The count
// is unbounded; only the retry rate is capped.
func (p *Poller) backoff(ctx context.Context) {
	if p.retryCount > startBackoffRetryCount {
		p.log.Error("still failing, backing off", "retries", p.retryCount, "wait", p.chain.PollInterval())
		p.sleep(ctx, p.chain.PollInterval())
	}
	p.retryCount++
}

// dispatch runs candidates through spam filtering, per-hash resolution, and
// notification building/sending. Delivery errors are logged and never halt
// the cycle. Returns the number of notifications sent.
func (p *Poller) dispatch(ctx context.Context, candidates []classify.Transaction) int {
	if len(candidates) == 0 {
		return 0
	}

	var known classify.KnownAssetFunc
	if p.assets != nil {
		known = func(contract common.Address) bool {
			return p.assets.Known(ctx, p.chain.ID, contract)
		}
	}

	kept := make([]classify.Transaction, 0, len(candidates))
	for _, tx := range candidates {
		if classify.IsSpam(tx, p.chain.SpamFilter(), known) {
			p.log.Info("spam transaction dropped", "tx", tx.Hash.Hex())
			continue
		}
		kept = append(kept, tx)
	}

	sent := 0
	for _, tx := range classify.Resolve(kept) {
		n := p.builder.Build(ctx, tx, p.chain, p.book)
		if err := p.notifier.Send(ctx, n); err != nil {
			p.log.Error("send notification failed", "tx", tx.Hash.Hex(), "error", err)
			continue
		}
		p.metrics.NotificationSent()
		sent++
	}
	return sent
}

func (p *Poller) filterRange(ctx context.Context, from, to uint64) ([]types.Log, error) {
	return p.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
	})
}

// sleepRemainder sleeps for the rest of the poll interval, skipping the nap
// entirely when processing already overran it.
func (p *Poller) sleepRemainder(ctx context.Context, start time.Time) {
	if remaining := p.chain.PollInterval() - time.Since(start); remaining > 0 {
		p.log.Debug("sleeping", "duration", remaining)
		p.sleep(ctx, remaining)
	}
}

func ctxSleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
