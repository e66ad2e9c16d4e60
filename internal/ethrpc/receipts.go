package ethrpc

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

// Receipt is the slice of a transaction receipt the classifier needs.
// go-ethereum's types.Receipt drops the top-level from/to fields the node
// returns, so receipts are decoded from the raw JSON-RPC response instead.
type Receipt struct {
	TxHash  common.Hash     `json:"transactionHash"`
	From    common.Address  `json:"from"`
	To      *common.Address `json:"to"`
	GasUsed hexutil.Uint64  `json:"gasUsed"`
	Logs    []types.Log     `json:"logs"`
}

// ReceiptFetcher returns all transaction receipts of a block. Implementations
// cover provider families with different receipt RPC surfaces.
type ReceiptFetcher interface {
	BlockReceipts(ctx context.Context, number uint64) ([]Receipt, error)
}

// NewReceiptFetcher selects a fetch strategy by endpoint inspection: Alchemy
// exposes batch receipts only through its own method, everything else speaks
// eth_getBlockReceipts.
func NewReceiptFetcher(c *Client) ReceiptFetcher {
	if strings.Contains(c.host, "alchemy.com") {
		return &alchemyReceiptFetcher{rpc: c.rpc}
	}
	return &standardReceiptFetcher{rpc: c.rpc}
}

type standardReceiptFetcher struct {
	rpc *rpc.Client
}

func (f *standardReceiptFetcher) BlockReceipts(ctx context.Context, number uint64) ([]Receipt, error) {
	var receipts []Receipt
	if err := f.rpc.CallContext(ctx, &receipts, "eth_getBlockReceipts", hexutil.EncodeUint64(number)); err != nil {
		return nil, err
	}
	return receipts, nil
}

type alchemyReceiptFetcher struct {
	rpc *rpc.Client
}

type alchemyReceiptsParam struct {
	BlockNumber string `json:"blockNumber"`
}

type alchemyReceiptsResult struct {
	Receipts []Receipt `json:"receipts"`
}

func (f *alchemyReceiptFetcher) BlockReceipts(ctx context.Context, number uint64) ([]Receipt, error) {
	param := alchemyReceiptsParam{BlockNumber: hexutil.EncodeUint64(number)}

	var result alchemyReceiptsResult
	if err := f.rpc.CallContext(ctx, &result, "alchemy_getTransactionReceipts", param); err != nil {
		return nil, err
	}
	return result.Receipts, nil
}
