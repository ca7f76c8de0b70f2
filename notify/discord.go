// Package notify delivers crawl results to Discord webhooks.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/froosterton/lookup/utils"
)

const embedColor = 0x00AE86

// Match carries everything the rich notification embed needs about one
// matched account.
type Match struct {
	RobloxName string
	Identity   string
	UserID     string
	ProfileURL string
	Value      int
	TradeAds   int
	AvatarURL  string
}

// Discord posts notifications to a pair of webhooks: one rich embed per
// match and one plain-text message carrying just the identity.
type Discord struct {
	http        *resty.Client
	webhookURL  string
	usernameURL string
}

func NewDiscord(webhookURL, usernameURL string) *Discord {
	return &Discord{
		http:        resty.New().SetTimeout(15 * time.Second),
		webhookURL:  webhookURL,
		usernameURL: usernameURL,
	}
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embedThumbnail struct {
	URL string `json:"url"`
}

type embed struct {
	Title     string          `json:"title"`
	Color     int             `json:"color"`
	Fields    []embedField    `json:"fields"`
	Thumbnail *embedThumbnail `json:"thumbnail,omitempty"`
	Timestamp string          `json:"timestamp"`
}

type webhookPayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []embed `json:"embeds,omitempty"`
}

// SendMatch posts the rich embed for a matched account.
func (d *Discord) SendMatch(ctx context.Context, m Match) error {
	fields := []embedField{
		{Name: "Discord Username", Value: m.Identity, Inline: true},
	}
	if m.UserID != "" {
		fields = append(fields, embedField{Name: "Discord ID", Value: m.UserID, Inline: true})
	}
	fields = append(fields,
		embedField{Name: "Roblox Username", Value: m.RobloxName, Inline: true},
	)
	if m.Value > 0 {
		fields = append(fields, embedField{Name: "Value", Value: utils.GroupDigits(m.Value), Inline: true})
	}
	fields = append(fields,
		embedField{Name: "Trade Ads", Value: utils.GroupDigits(m.TradeAds), Inline: true},
		embedField{Name: "Rolimons Profile", Value: fmt.Sprintf("[View Profile](%s)", m.ProfileURL), Inline: false},
	)

	e := embed{
		Title:     "New Discord Found!",
		Color:     embedColor,
		Fields:    fields,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if m.AvatarURL != "" {
		e.Thumbnail = &embedThumbnail{URL: m.AvatarURL}
	}
	return d.post(ctx, d.webhookURL, webhookPayload{Embeds: []embed{e}})
}

// SendUsername posts the bare identity to the username webhook so it can be
// consumed by downstream tooling.
func (d *Discord) SendUsername(ctx context.Context, identity string) error {
	return d.post(ctx, d.usernameURL, webhookPayload{Content: identity})
}

func (d *Discord) post(ctx context.Context, url string, payload webhookPayload) error {
	resp, err := d.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(url)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}
	return nil
}
