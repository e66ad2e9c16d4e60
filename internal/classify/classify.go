// Package classify turns raw logs and receipts into typed candidate
// transactions involving watched accounts, and collapses them to at most one
// candidate per transaction hash.
package classify

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/devblac/account-monitor/internal/ethrpc"
)

// Event signatures (topics[0]) the classifier dispatches on.
var (
	// Transfer(address,address,uint256)
	transferTopic = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")
	// TransferSingle(address,address,address,uint256,uint256), ERC-1155
	transferSingleTopic = common.HexToHash("0xc3d58168c5ae7397731d063d5bbf3d657854427343f4c083240f7aacaa2d0f62")
	// Approval(address,address,uint256)
	approvalTopic = common.HexToHash("0x8c5be1e5ebec7d5bd14f71427d1e84f3dd0314c0f7b2291e5b200ac8c7c3b925")
	// SafeSend(address,uint256)
	safeSendTopic = common.HexToHash("0x3d0ce9bfc3ed7d6862dbb28b2dea94561fe714a1b4d019aa8af39730d1ad7c3d")
)

// Cost of a plain native transfer; receipts using exactly this much gas did
// nothing but move value.
const baseTransferGas = 21000

// Transaction is one detected signal involving a watched account. Many may
// share a hash before resolution.
type Transaction struct {
	Hash            common.Hash
	From            *common.Address
	To              *common.Address
	Kind            Kind
	Amount          *big.Int
	Contract        *common.Address
	InvolvedAccount common.Address
}

// FromLogs scans every topic of every log for watched addresses (in their
// 32-byte padded form) and emits one candidate per match. Logs with a known
// event signature produce typed candidates; any other watched touch is
// reported as KindOther so a detection is never silently lost.
func FromLogs(logs []types.Log, watched map[common.Hash]common.Address) []Transaction {
	var candidates []Transaction
	for _, lg := range logs {
		candidates = appendLogCandidates(candidates, lg, watched)
	}
	return candidates
}

// FromReceipts classifies a block's receipts. Receipts whose logs produce no
// candidate but whose top-level from/to is watched get one synthesized
// candidate: a plain Send when gas used equals the base transfer cost,
// otherwise Other.
func FromReceipts(receipts []ethrpc.Receipt, watched map[common.Hash]common.Address) []Transaction {
	var candidates []Transaction
	for i := range receipts {
		r := &receipts[i]

		fromLogs := FromLogs(r.Logs, watched)
		if len(fromLogs) == 0 {
			if involved, ok := receiptParty(r, watched); ok {
				kind := KindOther
				if uint64(r.GasUsed) == baseTransferGas {
					kind = KindSend
				}
				from := r.From
				fromLogs = append(fromLogs, Transaction{
					Hash:            r.TxHash,
					From:            &from,
					To:              r.To,
					Kind:            kind,
					InvolvedAccount: involved,
				})
			}
		}
		candidates = append(candidates, fromLogs...)
	}
	return candidates
}

func appendLogCandidates(candidates []Transaction, lg types.Log, watched map[common.Hash]common.Address) []Transaction {
	for _, topic := range lg.Topics {
		involved, ok := watched[topic]
		if !ok {
			continue
		}

		before := len(candidates)

		switch {
		case lg.Topics[0] == transferTopic && len(lg.Topics) >= 3:
			candidates = append(candidates, Transaction{
				Hash:            lg.TxHash,
				From:            topicAddress(lg.Topics[1]),
				To:              topicAddress(lg.Topics[2]),
				Kind:            KindTransfer,
				Amount:          decodeAmount(lg.Data),
				Contract:        addressPtr(lg.Address),
				InvolvedAccount: involved,
			})
		case lg.Topics[0] == transferSingleTopic && len(lg.Topics) >= 4:
			candidates = append(candidates, Transaction{
				Hash:            lg.TxHash,
				From:            topicAddress(lg.Topics[2]),
				To:              topicAddress(lg.Topics[3]),
				Kind:            KindTransfer1155,
				Contract:        addressPtr(lg.Address),
				InvolvedAccount: involved,
			})
		case lg.Topics[0] == approvalTopic && len(lg.Topics) >= 3:
			candidates = append(candidates, Transaction{
				Hash:            lg.TxHash,
				From:            topicAddress(lg.Topics[1]),
				To:              topicAddress(lg.Topics[2]),
				Kind:            KindApproval,
				Amount:          decodeAmount(lg.Data),
				Contract:        addressPtr(lg.Address),
				InvolvedAccount: involved,
			})
		case lg.Topics[0] == safeSendTopic && len(lg.Topics) >= 2:
			candidates = append(candidates, Transaction{
				Hash:            lg.TxHash,
				From:            topicAddress(lg.Topics[1]),
				To:              addressPtr(lg.Address),
				Kind:            KindSend,
				Amount:          decodeAmount(lg.Data),
				InvolvedAccount: involved,
			})
		}

		// Unknown signature but a watched topic: still worth a notification.
		if len(candidates) == before {
			candidates = append(candidates, Transaction{
				Hash:            lg.TxHash,
				Kind:            KindOther,
				InvolvedAccount: involved,
			})
		}
	}
	return candidates
}

func receiptParty(r *ethrpc.Receipt, watched map[common.Hash]common.Address) (common.Address, bool) {
	if _, ok := watched[common.BytesToHash(r.From.Bytes())]; ok {
		return r.From, true
	}
	if r.To != nil {
		if _, ok := watched[common.BytesToHash(r.To.Bytes())]; ok {
			return *r.To, true
		}
	}
	return common.Address{}, false
}

// decodeAmount reads the single uint256 word of a log's data. Malformed data
// degrades to zero rather than aborting the batch.
func decodeAmount(data []byte) *big.Int {
	if len(data) != common.HashLength {
		return new(big.Int)
	}
	return new(big.Int).SetBytes(data)
}

func topicAddress(topic common.Hash) *common.Address {
	a := common.BytesToAddress(topic.Bytes())
	return &a
}

func addressPtr(a common.Address) *common.Address {
	return &a
}
