package notify

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/devblac/account-monitor/internal/addressbook"
	"github.com/devblac/account-monitor/internal/classify"
	"github.com/devblac/account-monitor/internal/config"
	"github.com/devblac/account-monitor/internal/token"
)

var (
	alice    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob      = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	contract = common.HexToAddress("0x00000000000000000000000000000000000000c3")
	txHash   = common.HexToHash("0x0000000000000000000000000000000000000000000000000000000000000001")
)

type fakeTokens struct {
	tokens map[common.Address]token.Token
}

func (f *fakeTokens) Lookup(_ context.Context, _ uint64, contract common.Address) token.Token {
	if t, ok := f.tokens[contract]; ok {
		return t
	}
	return token.Unknown
}

func testChain(t *testing.T, explorer string) *config.Chain {
	t.Helper()
	ch := config.Chain{
		ID:        100,
		Name:      "Gnosis",
		Blocktime: "5s",
		Explorer:  explorer,
		RPC:       "https://rpc.example.com",
	}
	if err := ch.Validate(); err != nil {
		t.Fatalf("chain validate: %v", err)
	}
	return &ch
}

func TestScaleAmount(t *testing.T) {
	tests := []struct {
		raw      string
		decimals int
		want     string
	}{
		{"1500000000000000000", 18, "1.5"},
		{"1000000000000000000", 18, "1"},
		{"1", 18, "0.000000000000000001"},
		{"0", 18, "0"},
		{"123", 0, "123"},
		{"1230000", 6, "1.23"},
	}

	for _, tt := range tests {
		amount, _ := new(big.Int).SetString(tt.raw, 10)
		if got := scaleAmount(amount, tt.decimals); got != tt.want {
			t.Errorf("scaleAmount(%s, %d) = %q, want %q", tt.raw, tt.decimals, got, tt.want)
		}
	}
}

func TestBuildSynthesizedSendMessage(t *testing.T) {
	book := addressbook.New()
	book.Add(alice.Hex(), "Alice")

	builder := NewBuilder(nil)
	from := alice
	to := bob
	n := builder.Build(context.Background(), classify.Transaction{
		Hash:            txHash,
		From:            &from,
		To:              &to,
		Kind:            classify.KindSend,
		InvolvedAccount: alice,
	}, testChain(t, "https://gnosisscan.io"), book)

	want := "Sending native from Alice to 0x00000000000000000000000000000000000000b2 on Gnosis"
	if n.Message != want {
		t.Errorf("message = %q, want %q", n.Message, want)
	}
	if n.URL != "https://gnosisscan.io/tx/"+txHash.Hex() {
		t.Errorf("url = %q", n.URL)
	}
}

func TestBuildSendWithAmount(t *testing.T) {
	book := addressbook.New()
	book.Add(alice.Hex(), "Alice")

	builder := NewBuilder(nil)
	from := alice
	to := bob
	amount, _ := new(big.Int).SetString("1500000000000000000", 10)
	n := builder.Build(context.Background(), classify.Transaction{
		Hash:            txHash,
		From:            &from,
		To:              &to,
		Kind:            classify.KindSend,
		Amount:          amount,
		InvolvedAccount: alice,
	}, testChain(t, ""), book)

	want := "Sending 1.5 native from Alice to 0x00000000000000000000000000000000000000b2 on Gnosis"
	if n.Message != want {
		t.Errorf("message = %q, want %q", n.Message, want)
	}
	if n.URL != "" {
		t.Errorf("url = %q, want empty without explorer", n.URL)
	}
}

func TestBuildTransferMessage(t *testing.T) {
	book := addressbook.New()
	book.Add(alice.Hex(), "Alice")
	book.Add(bob.Hex(), "Bob")

	builder := NewBuilder(&fakeTokens{tokens: map[common.Address]token.Token{
		contract: {Symbol: "GNO", Decimals: 18},
	}})

	from := alice
	to := bob
	c := contract
	amount, _ := new(big.Int).SetString("1000000000000000000", 10)
	n := builder.Build(context.Background(), classify.Transaction{
		Hash:            txHash,
		From:            &from,
		To:              &to,
		Kind:            classify.KindTransfer,
		Amount:          amount,
		Contract:        &c,
		InvolvedAccount: alice,
	}, testChain(t, ""), book)

	want := "Transfering 1 GNO from Alice to Bob on Gnosis"
	if n.Message != want {
		t.Errorf("message = %q, want %q", n.Message, want)
	}
}

func TestBuildTransfer1155Message(t *testing.T) {
	book := addressbook.New()

	builder := NewBuilder(&fakeTokens{})
	from := alice
	to := bob
	c := contract
	n := builder.Build(context.Background(), classify.Transaction{
		Hash:            txHash,
		From:            &from,
		To:              &to,
		Kind:            classify.KindTransfer1155,
		Contract:        &c,
		InvolvedAccount: alice,
	}, testChain(t, ""), book)

	want := "Transfering ERC1155 UNK from 0x00000000000000000000000000000000000000a1 to 0x00000000000000000000000000000000000000b2 on Gnosis"
	if n.Message != want {
		t.Errorf("message = %q, want %q", n.Message, want)
	}
}

func TestBuildApprovalInfinite(t *testing.T) {
	book := addressbook.New()
	book.Add(alice.Hex(), "Alice")

	builder := NewBuilder(&fakeTokens{tokens: map[common.Address]token.Token{
		contract: {Symbol: "USDC", Decimals: 6},
	}})

	from := alice
	spender := common.HexToAddress("0x4822521e6135cd2599199c83ea35179229a172ee")
	c := contract
	n := builder.Build(context.Background(), classify.Transaction{
		Hash:            txHash,
		From:            &from,
		To:              &spender,
		Kind:            classify.KindApproval,
		Amount:          new(big.Int).Set(math.MaxBig256),
		Contract:        &c,
		InvolvedAccount: alice,
	}, testChain(t, ""), book)

	want := "Approving Gnosis Pay Spender to spend Infinite USDC from Alice on Gnosis"
	if n.Message != want {
		t.Errorf("message = %q, want %q", n.Message, want)
	}
}

func TestBuildOtherMessage(t *testing.T) {
	book := addressbook.New()

	builder := NewBuilder(nil)
	n := builder.Build(context.Background(), classify.Transaction{
		Hash:            txHash,
		Kind:            classify.KindOther,
		InvolvedAccount: alice,
	}, testChain(t, ""), book)

	want := "Unknown operation involving 0x00000000000000000000000000000000000000a1 on Gnosis"
	if n.Message != want {
		t.Errorf("message = %q, want %q", n.Message, want)
	}
}

func TestAddressNameWellKnownLabels(t *testing.T) {
	book := addressbook.New()

	zero := common.Address{}
	if got := addressName(book, &zero); got != "NULL" {
		t.Errorf("zero address = %q, want NULL", got)
	}
	if got := addressName(book, nil); got != "Unknown" {
		t.Errorf("nil address = %q, want Unknown", got)
	}

	// The addressbook takes precedence over the hardcoded labels.
	book.Add(zero.Hex(), "Burn")
	if got := addressName(book, &zero); got != "Burn" {
		t.Errorf("labeled zero address = %q, want Burn", got)
	}
}
