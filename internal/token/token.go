// Package token resolves token metadata (symbol, decimals) from a rotki
// asset database and backs the known-asset spam predicate.
package token

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	_ "modernc.org/sqlite"
)

// Token is the metadata needed to render an amount.
type Token struct {
	Symbol   string
	Decimals int
}

// Unknown is the fallback when a contract cannot be resolved.
var Unknown = Token{Symbol: "UNK", Decimals: 18}

// Native is the chain's base asset. Decimals 18 covers every supported chain.
var Native = Token{Decimals: 18}

// Store looks up token metadata keyed by chain id and contract address.
// A nil Store behaves as a permanent miss, for deployments without a token DB.
type Store struct {
	db *sql.DB
}

// Open opens the asset database read-only.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open token db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const lookupQuery = `
SELECT decimals, symbol
FROM evm_tokens
JOIN common_asset_details ON evm_tokens.identifier = common_asset_details.identifier
WHERE lower(address) = ? AND chain = ?;
`

// Lookup resolves a token contract; any failure or miss yields Unknown so a
// notification can still be rendered.
func (s *Store) Lookup(ctx context.Context, chainID uint64, contract common.Address) Token {
	t, err := s.query(ctx, chainID, contract)
	if err != nil {
		return Unknown
	}
	return t
}

// Known reports whether the contract is a recognized asset on the chain.
func (s *Store) Known(ctx context.Context, chainID uint64, contract common.Address) bool {
	_, err := s.query(ctx, chainID, contract)
	return err == nil
}

func (s *Store) query(ctx context.Context, chainID uint64, contract common.Address) (Token, error) {
	if s == nil || s.db == nil {
		return Token{}, sql.ErrNoRows
	}

	var t Token
	row := s.db.QueryRowContext(ctx, lookupQuery, strings.ToLower(contract.Hex()), chainID)
	if err := row.Scan(&t.Decimals, &t.Symbol); err != nil {
		return Token{}, err
	}
	return t, nil
}
