// Package notify formats detected transactions into human-readable push
// notifications and delivers them to an ntfy-style endpoint.
package notify

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/devblac/account-monitor/internal/addressbook"
	"github.com/devblac/account-monitor/internal/classify"
	"github.com/devblac/account-monitor/internal/config"
	"github.com/devblac/account-monitor/internal/token"
)

// Notification is the terminal artifact of the pipeline. URL is empty when
// the chain has no explorer configured.
type Notification struct {
	Message string
	URL     string
}

// TokenResolver resolves token metadata for amount rendering.
type TokenResolver interface {
	Lookup(ctx context.Context, chainID uint64, contract common.Address) token.Token
}

// Labels applied without an addressbook entry.
var (
	gnosisPaySpender = common.HexToAddress("0x4822521e6135cd2599199c83ea35179229a172ee")
)

// Builder renders notifications for resolved, non-spam candidates.
type Builder struct {
	tokens TokenResolver
}

// NewBuilder returns a Builder using the given token metadata source.
func NewBuilder(tokens TokenResolver) *Builder {
	return &Builder{tokens: tokens}
}

// Build formats one notification for a candidate on a chain.
func (b *Builder) Build(ctx context.Context, tx classify.Transaction, chain *config.Chain, book *addressbook.Book) Notification {
	var message string
	switch tx.Kind {
	case classify.KindSend:
		if tx.Amount != nil {
			message = fmt.Sprintf("Sending %s native from %s to %s on %s",
				scaleAmount(tx.Amount, token.Native.Decimals),
				addressName(book, tx.From),
				addressName(book, tx.To),
				chain.Name)
		} else {
			message = fmt.Sprintf("Sending native from %s to %s on %s",
				addressName(book, tx.From),
				addressName(book, tx.To),
				chain.Name)
		}

	case classify.KindTransfer:
		t := b.resolve(ctx, chain.ID, tx.Contract)
		message = fmt.Sprintf("Transfering %s %s from %s to %s on %s",
			scaleAmount(tx.Amount, t.Decimals),
			t.Symbol,
			addressName(book, tx.From),
			addressName(book, tx.To),
			chain.Name)

	case classify.KindTransfer1155:
		t := b.resolve(ctx, chain.ID, tx.Contract)
		message = fmt.Sprintf("Transfering ERC1155 %s from %s to %s on %s",
			t.Symbol,
			addressName(book, tx.From),
			addressName(book, tx.To),
			chain.Name)

	case classify.KindApproval:
		t := b.resolve(ctx, chain.ID, tx.Contract)
		message = fmt.Sprintf("Approving %s to spend %s %s from %s on %s",
			addressName(book, tx.To),
			approvalAmount(tx.Amount, t.Decimals),
			t.Symbol,
			addressName(book, tx.From),
			chain.Name)

	default:
		message = fmt.Sprintf("Unknown operation involving %s on %s",
			addressName(book, &tx.InvolvedAccount),
			chain.Name)
	}

	var url string
	if chain.Explorer != "" {
		url = fmt.Sprintf("%s/tx/%s", chain.Explorer, tx.Hash.Hex())
	}

	return Notification{Message: message, URL: url}
}

func (b *Builder) resolve(ctx context.Context, chainID uint64, contract *common.Address) token.Token {
	if contract == nil || b.tokens == nil {
		return token.Unknown
	}
	return b.tokens.Lookup(ctx, chainID, *contract)
}

// addressName resolves through the addressbook first, then two well-known
// labels, then falls back to the raw lowercase address.
func addressName(book *addressbook.Book, address *common.Address) string {
	if address == nil {
		return "Unknown"
	}

	full := strings.ToLower(address.Hex())
	if label, ok := book.Label(full); ok {
		return label
	}
	if *address == (common.Address{}) {
		return "NULL"
	}
	if *address == gnosisPaySpender {
		return "Gnosis Pay Spender"
	}
	return full
}

// approvalAmount renders the unlimited-allowance sentinel as "Infinite".
func approvalAmount(amount *big.Int, decimals int) string {
	if amount != nil && amount.Cmp(math.MaxBig256) == 0 {
		return "Infinite"
	}
	return scaleAmount(amount, decimals)
}

// scaleAmount turns a raw integer amount into a decimal string, trimming
// trailing zeros and a bare trailing point.
func scaleAmount(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}

	s := amount.String()
	if decimals <= 0 {
		return s
	}
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}

	whole := s[:len(s)-decimals]
	frac := strings.TrimRight(s[len(s)-decimals:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}
