package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validConfig = `
ntfy:
  url: https://ntfy.example.com
  topic: alerts
  token: tk_secret
chains:
  - name: Gnosis
    id: 100
    blocktime: 5s
    rpc_url: https://rpc.gnosischain.com
    explorer: https://gnosisscan.io
    mode: Events
    spam_filter: SelfSubmittedTxs
`

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Listen != ":3030" {
		t.Errorf("default listen = %q, want :3030", cfg.Listen)
	}
	if len(cfg.Chains) != 1 {
		t.Fatalf("expected 1 chain, got %d", len(cfg.Chains))
	}

	ch := cfg.Chains[0]
	if ch.PollInterval() != 5*time.Second {
		t.Errorf("blocktime = %v, want 5s", ch.PollInterval())
	}
	if ch.PollMode() != ModeEvents {
		t.Errorf("mode = %v, want Events", ch.PollMode())
	}
	if ch.SpamFilter() != SpamFilterSelfSubmittedTxs {
		t.Errorf("spam filter = %v, want SelfSubmittedTxs", ch.SpamFilter())
	}
}

func TestChainDefaults(t *testing.T) {
	ch := Chain{Name: "Ethereum", RPC: "https://rpc.example.com", Blocktime: "12s"}
	if err := ch.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if ch.PollMode() != ModeBlocks {
		t.Errorf("default mode = %v, want Blocks", ch.PollMode())
	}
	if ch.SpamFilter() != SpamFilterKnownAssets {
		t.Errorf("default spam filter = %v, want KnownAssets", ch.SpamFilter())
	}
}

func TestLoadRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		wantErr  string
	}{
		{
			name: "missing ntfy token",
			contents: `
ntfy:
  url: https://ntfy.example.com
  topic: alerts
chains:
  - name: Ethereum
    blocktime: 12s
    rpc_url: https://rpc.example.com
`,
			wantErr: "token is required",
		},
		{
			name: "no chains",
			contents: `
ntfy:
  url: https://ntfy.example.com
  topic: alerts
  token: tk
`,
			wantErr: "at least one chain",
		},
		{
			name: "bad mode",
			contents: `
ntfy:
  url: https://ntfy.example.com
  topic: alerts
  token: tk
chains:
  - name: Ethereum
    blocktime: 12s
    rpc_url: https://rpc.example.com
    mode: Streaming
`,
			wantErr: "unsupported mode",
		},
		{
			name: "bad blocktime",
			contents: `
ntfy:
  url: https://ntfy.example.com
  topic: alerts
  token: tk
chains:
  - name: Ethereum
    blocktime: fast
    rpc_url: https://rpc.example.com
`,
			wantErr: "parse blocktime",
		},
		{
			name: "duplicate chain name",
			contents: `
ntfy:
  url: https://ntfy.example.com
  topic: alerts
  token: tk
chains:
  - name: Ethereum
    blocktime: 12s
    rpc_url: https://a.example.com
  - name: Ethereum
    blocktime: 12s
    rpc_url: https://b.example.com
`,
			wantErr: "duplicate chain name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.contents))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnvInterpolation(t *testing.T) {
	t.Setenv("TEST_NTFY_TOKEN", "tk_from_env")
	cfg, err := Load(writeConfig(t, `
ntfy:
  url: https://ntfy.example.com
  topic: alerts
  token: ${TEST_NTFY_TOKEN}
chains:
  - name: Ethereum
    blocktime: 12s
    rpc_url: https://rpc.example.com
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Ntfy.Token != "tk_from_env" {
		t.Errorf("token = %q, want tk_from_env", cfg.Ntfy.Token)
	}
}

func TestEnvInterpolationMissingVar(t *testing.T) {
	_, err := Load(writeConfig(t, `
ntfy:
  url: https://ntfy.example.com
  topic: alerts
  token: ${DEFINITELY_NOT_SET_VAR}
chains:
  - name: Ethereum
    blocktime: 12s
    rpc_url: https://rpc.example.com
`))
	if err == nil || !strings.Contains(err.Error(), "DEFINITELY_NOT_SET_VAR") {
		t.Errorf("expected missing env var error, got %v", err)
	}
}
