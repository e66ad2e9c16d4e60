package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/devblac/account-monitor/internal/config"
)

const sendTimeout = 5 * time.Second

// Sender pushes notifications to an ntfy-compatible endpoint.
type Sender struct {
	client *http.Client
	url    string
	topic  string
	token  string
}

// NewSender validates the transport settings and builds a sender. Missing
// settings are a fatal startup error, not a per-send failure.
func NewSender(cfg config.Ntfy) (*Sender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("ntfy: %w", err)
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.HTTPClient.Timeout = sendTimeout
	rc.Logger = nil

	return &Sender{
		client: rc.StandardClient(),
		url:    strings.TrimRight(cfg.URL, "/"),
		topic:  cfg.Topic,
		token:  cfg.Token,
	}, nil
}

// Send delivers one notification. The message travels as the request body;
// an explorer link, when present, rides along as an ntfy action button.
func (s *Sender) Send(ctx context.Context, n Notification) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/%s", s.url, s.topic), strings.NewReader(n.Message))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token)
	if n.URL != "" {
		req.Header.Set("Actions", fmt.Sprintf("view, Explorer, %s, clear=true", n.URL))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification status %d", resp.StatusCode)
	}
	return nil
}
