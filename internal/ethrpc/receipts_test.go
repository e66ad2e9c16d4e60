package ethrpc

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestNewReceiptFetcherSelection(t *testing.T) {
	cases := []struct {
		host        string
		wantAlchemy bool
	}{
		{"eth-mainnet.g.alchemy.com", true},
		{"rpc.gnosischain.com", false},
		{"localhost", false},
	}
	for _, c := range cases {
		f := NewReceiptFetcher(&Client{host: c.host})
		_, isAlchemy := f.(*alchemyReceiptFetcher)
		if isAlchemy != c.wantAlchemy {
			t.Errorf("NewReceiptFetcher(host=%q) alchemy = %v, want %v", c.host, isAlchemy, c.wantAlchemy)
		}
	}
}

func TestReceiptDecoding(t *testing.T) {
	raw := `{
		"transactionHash": "0x0000000000000000000000000000000000000000000000000000000000000001",
		"from": "0x00000000000000000000000000000000000000a1",
		"to": null,
		"gasUsed": "0x5208",
		"logs": []
	}`

	var r Receipt
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if r.From != common.HexToAddress("0x00000000000000000000000000000000000000a1") {
		t.Errorf("from = %s", r.From.Hex())
	}
	if r.To != nil {
		t.Errorf("to = %v, want nil for contract creation", r.To)
	}
	if uint64(r.GasUsed) != 21000 {
		t.Errorf("gasUsed = %d, want 21000", r.GasUsed)
	}
}
