package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ChainMode selects how a chain's poller gathers data.
type ChainMode int

const (
	// ModeBlocks walks full blocks and their transaction receipts.
	ModeBlocks ChainMode = iota
	// ModeEvents queries event logs in bounded block ranges.
	ModeEvents
)

func (m ChainMode) String() string {
	if m == ModeEvents {
		return "Events"
	}
	return "Blocks"
}

// SpamFilterLevel is the per-chain trust policy for token events.
type SpamFilterLevel int

const (
	// SpamFilterNone keeps every detected transaction.
	SpamFilterNone SpamFilterLevel = iota
	// SpamFilterKnownAssets drops token events from unrecognized contracts
	// and events the watched account did not initiate.
	SpamFilterKnownAssets
	// SpamFilterSelfSubmittedTxs drops every token event the watched account
	// did not initiate, regardless of asset recognition.
	SpamFilterSelfSubmittedTxs
)

func (l SpamFilterLevel) String() string {
	switch l {
	case SpamFilterKnownAssets:
		return "KnownAssets"
	case SpamFilterSelfSubmittedTxs:
		return "SelfSubmittedTxs"
	default:
		return "None"
	}
}

// Config holds the YAML configuration.
type Config struct {
	Listen       string  `yaml:"listen"`
	AccountsFile string  `yaml:"accounts_file"`
	TokenDB      string  `yaml:"token_db"`
	Ntfy         Ntfy    `yaml:"ntfy"`
	Chains       []Chain `yaml:"chains"`
}

// Ntfy configures the push-notification transport. All fields are required.
type Ntfy struct {
	URL   string `yaml:"url"`
	Topic string `yaml:"topic"`
	Token string `yaml:"token"`
}

// Chain is one monitored network. ID 0 means "learn the chain id from the
// endpoint at connect time"; a nonzero ID must match the live endpoint.
type Chain struct {
	ID        uint64 `yaml:"id"`
	Name      string `yaml:"name"`
	Blocktime string `yaml:"blocktime"`
	Explorer  string `yaml:"explorer"`
	RPC       string `yaml:"rpc_url"`
	Mode      string `yaml:"mode"`
	SpamLevel string `yaml:"spam_filter"`

	blocktime time.Duration
	mode      ChainMode
	spamLevel SpamFilterLevel
}

// PollInterval returns the parsed blocktime. Valid only after Validate.
func (c *Chain) PollInterval() time.Duration { return c.blocktime }

// PollMode returns the parsed chain mode. Valid only after Validate.
func (c *Chain) PollMode() ChainMode { return c.mode }

// SpamFilter returns the parsed spam policy. Valid only after Validate.
func (c *Chain) SpamFilter() SpamFilterLevel { return c.spamLevel }

var envPattern = regexp.MustCompile(`\${([A-Za-z_][A-Za-z0-9_]*)}`)

// Load reads, interpolates env vars, parses YAML, and validates.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}

	if err := loadDotEnv(path); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	interpolated, err := interpolateEnv(string(raw))
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(interpolated), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func loadDotEnv(configPath string) error {
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return fmt.Errorf("load .env: %w", err)
		}
	}
	return nil
}

func interpolateEnv(input string) (string, error) {
	missing := []string{}
	out := envPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := envPattern.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		missing = append(missing, name)
		return match
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("missing environment variables: %s", strings.Join(dedup(missing), ", "))
	}
	return out, nil
}

// Validate performs eager schema checks so misconfiguration surfaces at
// startup, not mid-poll.
func (c *Config) Validate() error {
	if c.Listen == "" {
		c.Listen = ":3030"
	}
	if err := c.Ntfy.Validate(); err != nil {
		return fmt.Errorf("ntfy: %w", err)
	}
	if len(c.Chains) == 0 {
		return errors.New("at least one chain is required")
	}

	names := map[string]struct{}{}
	for i := range c.Chains {
		ch := &c.Chains[i]
		if err := ch.Validate(); err != nil {
			return fmt.Errorf("chain %s: %w", ch.Name, err)
		}
		if _, exists := names[ch.Name]; exists {
			return fmt.Errorf("duplicate chain name: %s", ch.Name)
		}
		names[ch.Name] = struct{}{}
	}
	return nil
}

func (n *Ntfy) Validate() error {
	if n.URL == "" {
		return errors.New("url is required")
	}
	if n.Topic == "" {
		return errors.New("topic is required")
	}
	if n.Token == "" {
		return errors.New("token is required")
	}
	return nil
}

func (c *Chain) Validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	if c.RPC == "" {
		return errors.New("rpc_url is required")
	}
	if c.Blocktime == "" {
		return errors.New("blocktime is required")
	}

	d, err := time.ParseDuration(c.Blocktime)
	if err != nil {
		return fmt.Errorf("parse blocktime %q: %w", c.Blocktime, err)
	}
	if d <= 0 {
		return fmt.Errorf("blocktime %q must be positive", c.Blocktime)
	}
	c.blocktime = d

	switch c.Mode {
	case "", "Blocks":
		c.mode = ModeBlocks
	case "Events":
		c.mode = ModeEvents
	default:
		return fmt.Errorf("unsupported mode: %s", c.Mode)
	}

	switch c.SpamLevel {
	case "None":
		c.spamLevel = SpamFilterNone
	case "", "KnownAssets":
		c.spamLevel = SpamFilterKnownAssets
	case "SelfSubmittedTxs":
		c.spamLevel = SpamFilterSelfSubmittedTxs
	default:
		return fmt.Errorf("unsupported spam_filter: %s", c.SpamLevel)
	}

	return nil
}

func dedup(values []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
