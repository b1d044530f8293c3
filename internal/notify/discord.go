package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/phoenix-club/membership-core/internal/application/entity"
)

// DiscordWebhook posts new-application notifications to a Discord
// webhook URL.
type DiscordWebhook struct {
	url    string
	client *http.Client
}

// DiscordWebhookFromEnv builds a webhook from DISCORD_WEBHOOK_URL.
func DiscordWebhookFromEnv() *DiscordWebhook {
	return NewDiscordWebhook(os.Getenv("DISCORD_WEBHOOK_URL"))
}

func NewDiscordWebhook(url string) *DiscordWebhook {
	return &DiscordWebhook{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordEmbed struct {
	Title     string         `json:"title"`
	Color     int            `json:"color"`
	Fields    []discordField `json:"fields"`
	Timestamp string         `json:"timestamp"`
	Footer    struct {
		Text string `json:"text"`
	} `json:"footer"`
}

type discordPayload struct {
	Username string         `json:"username"`
	Embeds   []discordEmbed `json:"embeds"`
}

// NotifyNewApplication sends one embed describing the application.
func (d *DiscordWebhook) NotifyNewApplication(ctx context.Context, app *entity.Application) error {
	if d.url == "" {
		return fmt.Errorf("discord webhook url not configured")
	}

	embed := discordEmbed{
		Title: "📝 New Phoenix Club Application",
		Color: 0xec3750,
		Fields: []discordField{
			{Name: "Name", Value: app.FirstName + " " + app.LastName, Inline: true},
			{Name: "Email", Value: app.Email, Inline: true},
			{Name: "School", Value: app.School, Inline: true},
			{Name: "Class", Value: app.Class, Inline: true},
			{Name: "Phone", Value: app.Phone, Inline: true},
			{Name: "Date of Birth", Value: app.Birthdate.Format("2006-01-02"), Inline: true},
			{Name: "About & Superpowers", Value: app.Superpowers},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	embed.Footer.Text = "Phoenix Club Application System"

	body, err := json.Marshal(discordPayload{
		Username: "Phoenix Club Applications",
		Embeds:   []discordEmbed{embed},
	})
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("post discord webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("discord webhook returned status %d", resp.StatusCode)
	}
	return nil
}
