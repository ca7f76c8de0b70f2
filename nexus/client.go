// Package nexus implements the client for the Nexus Roblox-to-Discord lookup
// service.
package nexus

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/antchfx/jsonquery"
	"github.com/go-resty/resty/v2"
)

// Client queries the lookup service. All calls are authenticated with the
// static admin key header.
type Client struct {
	http     *resty.Client
	apiURL   string
	adminKey string
}

func NewClient(apiURL, adminKey string) *Client {
	return &Client{
		http:     resty.New().SetTimeout(30 * time.Second),
		apiURL:   apiURL,
		adminKey: adminKey,
	}
}

// Record is one candidate identity returned by the service. The response
// shape is not guaranteed, so the raw document is kept and queried
// dynamically.
type Record struct {
	node *jsonquery.Node
}

// Lookup queries the service for the given Roblox username. A nil record
// with a nil error means the service knows no matching identity; transport
// and HTTP errors are returned as errors and treated by callers as no-match.
func (c *Client) Lookup(ctx context.Context, username string) (*Record, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("query", username).
		SetHeader("x-admin-key", c.adminKey).
		Get(c.apiURL)
	if err != nil {
		return nil, fmt.Errorf("lookup request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("lookup returned status %d", resp.StatusCode())
	}
	doc, err := jsonquery.Parse(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse lookup response: %w", err)
	}
	data := jsonquery.FindOne(doc, "data")
	if data == nil {
		return nil, nil
	}
	// array element nodes carry no key; anything else means data is not a
	// non-empty array
	first := data.FirstChild
	if first == nil || first.Data != "" {
		return nil, nil
	}
	return &Record{node: first}, nil
}

// ParseRecord builds a Record from a raw JSON object, for tests and
// debugging.
func ParseRecord(raw string) (*Record, error) {
	doc, err := jsonquery.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return &Record{node: doc}, nil
}

// Identity resolves the Discord identity from the record. Explicit fields
// win over the plain username, which wins over the generic key fallback.
func (r *Record) Identity() string {
	if v := r.field("discord_tag"); v != "" {
		return v
	}
	if name := r.field("discord_username"); name != "" {
		if disc := r.field("discriminator"); disc != "" {
			return name + "#" + disc
		}
		return name
	}
	// the service currently returns the Discord name in a plain "username"
	// field next to score and server_id
	if v := r.field("username"); v != "" {
		return v
	}
	for _, child := range jsonquery.Find(r.node, "*") {
		if strings.Contains(strings.ToLower(child.Data), "discord") {
			if v := strings.TrimSpace(child.InnerText()); v != "" {
				return v
			}
		}
	}
	return ""
}

// UserID returns the service's Discord user id when present.
func (r *Record) UserID() string {
	if v := r.field("user_id"); v != "" {
		return v
	}
	return r.field("id")
}

// field reads a scalar field as text. Numeric ids come back without a
// decimal point, so they can go straight into the notification payloads.
func (r *Record) field(name string) string {
	n := jsonquery.FindOne(r.node, name)
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.InnerText())
}
