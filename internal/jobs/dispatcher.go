package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"finwise/internal/logger"
)

// Dispatcher posts remote-parse jobs to the remote parsing collaborator
// over HTTP. The request carries the transaction id, the raw text, and the
// callback address the remote side must post results to.
type Dispatcher struct {
	url    string
	apiKey string
	client *http.Client
}

// NewDispatcher creates a Dispatcher. timeout bounds each outbound request;
// the escalation leg must never hold a worker for long.
func NewDispatcher(url, apiKey string, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
}

// remoteParseRequest is the outbound wire format.
type remoteParseRequest struct {
	TransactionID string `json:"transaction_id"`
	MessageText   string `json:"message_text"`
	CallbackURL   string `json:"callback_address"`
}

// Handle implements JobHandler: it sends one job to the remote parser.
func (d *Dispatcher) Handle(ctx context.Context, job *RemoteParseJob) error {
	if d.url == "" {
		return fmt.Errorf("remote parser URL not configured")
	}

	payload, err := json.Marshal(remoteParseRequest{
		TransactionID: job.MessageID,
		MessageText:   job.Text,
		CallbackURL:   job.CallbackURL,
	})
	if err != nil {
		return fmt.Errorf("failed to encode remote parse request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build remote parse request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.apiKey)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("remote parse request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("remote parser returned status %d", resp.StatusCode)
	}

	logger.Named("jobs").Infow("remote parse accepted",
		"message_id", job.MessageID,
		"status", resp.StatusCode,
	)
	return nil
}
