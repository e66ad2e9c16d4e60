package classify

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/devblac/account-monitor/internal/config"
)

// KnownAssetFunc reports whether a token contract is a recognized asset on
// the chain being processed.
type KnownAssetFunc func(contract common.Address) bool

// IsSpam applies a chain's trust policy to a candidate. Unsolicited token
// transfers and approvals aimed at a watched address are the common phishing
// pattern; they are kept only when the watched address authored the action
// (and, under KnownAssets, when the contract is a recognized asset).
// Native sends and unknown operations always pass.
func IsSpam(tx Transaction, level config.SpamFilterLevel, known KnownAssetFunc) bool {
	if tx.Kind == KindSend || tx.Kind == KindOther {
		return false
	}

	switch level {
	case config.SpamFilterKnownAssets:
		if tx.Contract == nil || known == nil || !known(*tx.Contract) {
			return true
		}
		return !selfSubmitted(tx)
	case config.SpamFilterSelfSubmittedTxs:
		return !selfSubmitted(tx)
	default:
		return false
	}
}

func selfSubmitted(tx Transaction) bool {
	return tx.From != nil && *tx.From == tx.InvolvedAccount
}
