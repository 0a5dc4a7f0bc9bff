package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hostdeck/hostdeck/internal/domain/notification"
)

// DiscordWebhook delivers outbox events to a Discord channel webhook. It
// implements notification.Sink.
type DiscordWebhook struct {
	webhookURL string
	httpClient *http.Client
}

// NewDiscordWebhook creates a new Discord webhook sink
func NewDiscordWebhook(webhookURL string, timeout time.Duration) *DiscordWebhook {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &DiscordWebhook{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type discordEmbed struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Color       int                 `json:"color"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Timestamp   string              `json:"timestamp"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordMessage struct {
	Embeds []discordEmbed `json:"embeds"`
}

// Send posts the event as an embed. A non-2xx response is an error so the
// dispatcher can retry.
func (d *DiscordWebhook) Send(ctx context.Context, e *notification.Event) error {
	if d.webhookURL == "" {
		return fmt.Errorf("discord webhook URL is not configured")
	}

	embed, err := buildEmbed(e)
	if err != nil {
		return err
	}

	body, err := json.Marshal(discordMessage{Embeds: []discordEmbed{embed}})
	if err != nil {
		return fmt.Errorf("failed to encode discord message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("discord request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("discord webhook error: status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

func buildEmbed(e *notification.Event) (discordEmbed, error) {
	embed := discordEmbed{
		Timestamp: e.CreatedAt.UTC().Format(time.RFC3339),
	}

	switch e.Type {
	case notification.EventTypePurchase:
		var p notification.PurchasePayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return discordEmbed{}, fmt.Errorf("failed to decode purchase payload: %w", err)
		}
		embed.Title = "Resources Purchased"
		embed.Description = fmt.Sprintf("%s purchased %d %s for %d coins", p.Username, p.Amount, p.Resource, p.Cost)
		embed.Color = 0x57F287
		embed.Fields = []discordEmbedField{
			{Name: "Resource", Value: p.Resource, Inline: true},
			{Name: "Amount", Value: fmt.Sprintf("%d", p.Amount), Inline: true},
			{Name: "Cost", Value: fmt.Sprintf("%d coins", p.Cost), Inline: true},
		}

	case notification.EventTypePlanGranted:
		var p notification.PlanPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return discordEmbed{}, fmt.Errorf("failed to decode plan payload: %w", err)
		}
		embed.Title = "Plan Granted"
		embed.Description = fmt.Sprintf("%s was granted plan %s", p.Username, p.PlanName)
		embed.Color = 0x5865F2

	case notification.EventTypePlanRevoked:
		var p notification.PlanPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return discordEmbed{}, fmt.Errorf("failed to decode plan payload: %w", err)
		}
		embed.Title = "Plan Revoked"
		embed.Description = fmt.Sprintf("Plan %s was revoked from %s", p.PlanName, p.Username)
		embed.Color = 0xED4245

	default:
		return discordEmbed{}, fmt.Errorf("unknown event type: %s", e.Type)
	}

	return embed, nil
}
