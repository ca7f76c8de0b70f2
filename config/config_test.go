package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("WEBHOOK_URL", "https://discord.com/api/webhooks/1/aaa")
	t.Setenv("USERNAME_WEBHOOK_URL", "https://discord.com/api/webhooks/2/bbb")
	t.Setenv("NEXUS_ADMIN_KEY", "test-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.Port != 3000 {
		t.Errorf("Port = %d, expected 3000", cfg.Port)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, expected 3", cfg.MaxRetries)
	}
	if cfg.BaseURL != "https://www.rolimons.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.SkipDelay != 6*time.Second {
		t.Errorf("SkipDelay = %v, expected 6s", cfg.SkipDelay)
	}
	if cfg.ProcessedDelay != 10*time.Second {
		t.Errorf("ProcessedDelay = %v, expected 10s", cfg.ProcessedDelay)
	}
	if got := cfg.ParseItemIDs(); !reflect.DeepEqual(got, []string{"74891470"}) {
		t.Errorf("ParseItemIDs() = %v", got)
	}
}

func TestValidateMissingRequired(t *testing.T) {
	tests := []struct {
		name string
		omit string
	}{
		{"webhook url", "WEBHOOK_URL"},
		{"username webhook url", "USERNAME_WEBHOOK_URL"},
		{"admin key", "NEXUS_ADMIN_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.omit, "")

			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error with %s unset", tt.omit)
			}
		})
	}
}

func TestParseItemIDs(t *testing.T) {
	tests := []struct {
		raw string
		ids []string
	}{
		{"74891470", []string{"74891470"}},
		{"123, 456", []string{"123", "456"}},
		{"123, abc, 456,", []string{"123", "456"}},
		{" 1 ,2,  3 ", []string{"1", "2", "3"}},
		{"abc", nil},
		{"", nil},
	}
	for _, tt := range tests {
		cfg := Config{ItemIDs: tt.raw}
		if got := cfg.ParseItemIDs(); !reflect.DeepEqual(got, tt.ids) {
			t.Errorf("ParseItemIDs(%q) = %v, expected %v", tt.raw, got, tt.ids)
		}
	}
}

func TestValidateRejectsEmptyItemIDs(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ITEM_IDS", "not,numeric,at,all")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for non-numeric item ids")
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "70000")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for out of range port")
	}
}

func TestRedactedHidesSecrets(t *testing.T) {
	cfg := Config{
		WebhookURL:         "https://discord.com/api/webhooks/1/supersecrettokenvalue-exceeding-fifty-characters-easily",
		UsernameWebhookURL: "https://discord.com/api/webhooks/2/anothersecrettokenvalue-exceeding-fifty-characters-easily",
		NexusAdminKey:      "very-secret-admin-key",
	}
	out := cfg.Redacted()
	if out == "" {
		t.Fatal("Redacted returned empty output")
	}
	for _, secret := range []string{"supersecrettokenvalue", "anothersecrettokenvalue", "very-secret-admin-key"} {
		if strings.Contains(out, secret) {
			t.Errorf("redacted output still contains %q", secret)
		}
	}
}
