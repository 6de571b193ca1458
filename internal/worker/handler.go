package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tabaani/jobqueue/internal/dto"
	"gorm.io/datatypes"
)

// SendEmailHandler delivers an email. Delivery is simulated; the result
// records what an SMTP relay would have been handed.
func SendEmailHandler(ctx context.Context, payload datatypes.JSON) (any, error) {
	var email dto.SendEmailPayload
	if err := json.Unmarshal(payload, &email); err != nil {
		return nil, fmt.Errorf("unmarshal email payload: %w", err)
	}

	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	slog.Info("sent email",
		slog.String("to", email.To),
		slog.String("subject", email.Subject),
	)

	return map[string]any{
		"to":         email.To,
		"subject":    email.Subject,
		"sent_at":    time.Now().Format(time.RFC3339),
		"message_id": fmt.Sprintf("msg_%d", time.Now().UnixNano()),
	}, nil
}

// ScanImageHandler runs content checks against an uploaded image. The
// scan itself is simulated; every requested check passes.
func ScanImageHandler(ctx context.Context, payload datatypes.JSON) (any, error) {
	var scan dto.ScanImagePayload
	if err := json.Unmarshal(payload, &scan); err != nil {
		return nil, fmt.Errorf("unmarshal scan payload: %w", err)
	}

	checks := scan.Checks
	if len(checks) == 0 {
		checks = []string{"nsfw", "malware"}
	}

	select {
	case <-time.After(150 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	results := make(map[string]string, len(checks))
	for _, c := range checks {
		results[c] = "pass"
	}

	slog.Info("scanned image",
		slog.String("upload_id", scan.UploadID),
		slog.Int("checks", len(checks)),
	)

	return map[string]any{
		"upload_id":  scan.UploadID,
		"verdict":    "clean",
		"checks":     results,
		"scanned_at": time.Now().Format(time.RFC3339),
	}, nil
}

// SendWebhookHandler delivers an HTTP webhook. Any transport error or
// non-2xx response is returned as an error so the retry policy applies.
func SendWebhookHandler(ctx context.Context, payload datatypes.JSON) (any, error) {
	var webhook dto.SendWebhookPayload
	if err := json.Unmarshal(payload, &webhook); err != nil {
		return nil, fmt.Errorf("unmarshal webhook payload: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(webhook.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, webhook.Method, webhook.URL, bytes.NewReader(webhook.Body))
	if err != nil {
		return nil, fmt.Errorf("build webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range webhook.Headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deliver webhook: %w", err)
	}
	defer resp.Body.Close()

	// drain so the connection can be reused
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	slog.Info("delivered webhook",
		slog.String("url", webhook.URL),
		slog.Int("status_code", resp.StatusCode),
	)

	return map[string]any{
		"url":          webhook.URL,
		"method":       webhook.Method,
		"status_code":  resp.StatusCode,
		"delivered_at": time.Now().Format(time.RFC3339),
	}, nil
}
