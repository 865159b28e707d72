// Package notify posts a run summary to a configured webhook after a batch
// finishes. Delivery is best-effort with a few retries; a run never
// fails because its notification did.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/cleverdata/haul/internal/config"
	"github.com/cleverdata/haul/internal/transfer"
)

const (
	attempts     = 3
	retryBackoff = 2 * time.Second
)

// RunSummary is the webhook payload.
type RunSummary struct {
	Operations int       `json:"operations"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	TotalFiles int       `json:"total_files"`
	TotalBytes int64     `json:"total_bytes"`
	FinishedAt time.Time `json:"finished_at"`
}

// Summarize folds a run's results into the payload sent to the webhook.
func Summarize(results []transfer.OperationResult) RunSummary {
	s := RunSummary{Operations: len(results), FinishedAt: time.Now()}
	for _, r := range results {
		if r.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
		s.TotalFiles += r.FilesProcessed
		s.TotalBytes += r.TotalSize
	}
	return s
}

// SendRunSummary posts the summary to the configured endpoint, retrying on
// failure. Returns the last error when every attempt fails.
func SendRunSummary(ctx context.Context, webhook config.WebhookConfig, summary RunSummary) error {
	if webhook.Endpoint == "" {
		return nil
	}

	client := resty.New()

	var lastErr error
	for i := 0; i < attempts; i++ {
		resp, err := client.R().
			SetContext(ctx).
			SetHeader("Authorization", "Bearer "+webhook.Key).
			SetBody(summary).
			Post(webhook.Endpoint)

		if err == nil && resp.StatusCode() >= 200 && resp.StatusCode() < 300 {
			return nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("webhook rejected summary: status %d", resp.StatusCode())
		}

		select {
		case <-time.After(retryBackoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
