package classify

import "github.com/ethereum/go-ethereum/common"

// Resolve collapses the candidates of one poll cycle to at most one per
// transaction hash, keeping the highest-priority kind. Ties keep the first
// candidate seen, and the first-seen order of hashes is preserved.
func Resolve(candidates []Transaction) []Transaction {
	best := make(map[common.Hash]int, len(candidates))
	order := make([]common.Hash, 0, len(candidates))

	for i, tx := range candidates {
		j, seen := best[tx.Hash]
		if !seen {
			best[tx.Hash] = i
			order = append(order, tx.Hash)
			continue
		}
		if tx.Kind.Priority() > candidates[j].Kind.Priority() {
			best[tx.Hash] = i
		}
	}

	resolved := make([]Transaction, 0, len(order))
	for _, hash := range order {
		resolved = append(resolved, candidates[best[hash]])
	}
	return resolved
}
