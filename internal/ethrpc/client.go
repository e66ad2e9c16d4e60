// Package ethrpc wraps the go-ethereum RPC client with the few quirks the
// pollers need: a bounded HTTP timeout, chain-id verification at connect
// time, and provider-specific receipt fetch strategies.
package ethrpc

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

const httpTimeout = 5 * time.Second

// Client is an EVM JSON-RPC client.
type Client struct {
	*ethclient.Client

	rpc  *rpc.Client
	host string
}

// Dial connects to an EVM node over HTTP with a bounded request timeout.
func Dial(ctx context.Context, rawurl string) (*Client, error) {
	endpoint, err := url.Parse(rawurl)
	if err != nil {
		return nil, fmt.Errorf("parse rpc url: %w", err)
	}

	rc, err := rpc.DialOptions(ctx, rawurl, rpc.WithHTTPClient(&http.Client{Timeout: httpTimeout}))
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	return &Client{
		Client: ethclient.NewClient(rc),
		rpc:    rc,
		host:   endpoint.Hostname(),
	}, nil
}

// VerifyChainID checks the configured chain id against the live endpoint.
// A mismatch is fatal; want 0 accepts whatever the endpoint reports. It
// returns the endpoint's chain id.
func (c *Client) VerifyChainID(ctx context.Context, want uint64) (uint64, error) {
	id, err := c.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("get chain id: %w", err)
	}

	got := id.Uint64()
	if want != 0 && got != want {
		return 0, fmt.Errorf("configured for chain %d but connected to %d", want, got)
	}
	return got, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.rpc.Close()
}
