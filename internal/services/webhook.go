package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

type webhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type webhookEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Fields      []webhookField `json:"fields"`
	Timestamp   string         `json:"timestamp"`
}

type webhookRequest struct {
	Username string         `json:"username"`
	Embeds   []webhookEmbed `json:"embeds"`
}

const webhookTimeout = 10 * time.Second

// NotifyActivity posts an activity entry to the Discord-compatible webhook
// named by ACTIVITY_WEBHOOK_URL. When no webhook is configured it is a no-op.
func NotifyActivity(projectTitle string, actorName string, text string) error {
	webhookURL := os.Getenv("ACTIVITY_WEBHOOK_URL")

	if webhookURL == "" {
		return nil
	}

	payload := webhookRequest{
		Username: "taskdeck",
		Embeds: []webhookEmbed{
			{
				Title:       projectTitle,
				Description: text,
				Color:       0x5865F2,
				Fields: []webhookField{
					{Name: "By", Value: actorName, Inline: true},
				},
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			},
		},
	}

	body, err := json.Marshal(payload)

	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	client := &http.Client{Timeout: webhookTimeout}

	resp, err := client.Post(webhookURL, "application/json", bytes.NewReader(body))

	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
