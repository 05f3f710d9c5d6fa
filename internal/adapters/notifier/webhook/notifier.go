// Package webhook posts ended-election results to a configured URL as
// JSON, the seam where a chat presentation layer picks them up.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/chatmandu/elections/internal/core/domain"
)

type Notifier struct {
	url    string
	client *http.Client
}

func NewNotifier(url string) *Notifier {
	return &Notifier{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type endedPayload struct {
	Election *domain.ElectionSnapshot `json:"election"`
	Result   *domain.ElectionResult   `json:"result"`
}

func (n *Notifier) NotifyEnded(ctx context.Context, election *domain.Election, result *domain.ElectionResult) error {
	payload := endedPayload{
		Election: election.Snapshot(time.Now()),
		Result:   result,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode result payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver result webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("result webhook rejected with status %d", resp.StatusCode)
	}
	return nil
}
