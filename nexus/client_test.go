package nexus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-admin-key"); got != "secret" {
			t.Errorf("x-admin-key = %q, expected %q", got, "secret")
		}
		if got := r.URL.Query().Get("query"); got != "cooltrader" {
			t.Errorf("query = %q, expected %q", got, "cooltrader")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [{"username": "cool#1234", "user_id": 98765}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	rec, err := c.Lookup(context.Background(), "cooltrader")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a record")
	}
	if got := rec.Identity(); got != "cool#1234" {
		t.Errorf("Identity() = %q, expected %q", got, "cool#1234")
	}
	if got := rec.UserID(); got != "98765" {
		t.Errorf("UserID() = %q, expected %q", got, "98765")
	}
}

func TestClientLookupNoMatch(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty data array", `{"data": []}`},
		{"missing data key", `{"status": "ok"}`},
		{"data not an array", `{"data": "nothing"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			rec, err := NewClient(srv.URL, "k").Lookup(context.Background(), "nobody")
			if err != nil {
				t.Fatalf("Lookup failed: %v", err)
			}
			if rec != nil {
				t.Fatalf("expected no record, got %+v", rec)
			}
		})
	}
}

func TestClientLookupHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, "k").Lookup(context.Background(), "anyone"); err == nil {
		t.Fatal("expected an error on HTTP 403")
	}
}

func TestRecordIdentityPriority(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		identity string
	}{
		{
			name:     "discord_tag wins",
			raw:      `{"discord_tag": "tag#1", "discord_username": "u", "username": "fallback"}`,
			identity: "tag#1",
		},
		{
			name:     "username and discriminator composed",
			raw:      `{"discord_username": "user", "discriminator": "0420"}`,
			identity: "user#0420",
		},
		{
			name:     "bare discord_username",
			raw:      `{"discord_username": "solo"}`,
			identity: "solo",
		},
		{
			name:     "plain username field",
			raw:      `{"username": "nexus_99", "score": 3}`,
			identity: "nexus_99",
		},
		{
			name:     "generic discord key fallback",
			raw:      `{"linked_discord": "found_me", "score": 1}`,
			identity: "found_me",
		},
		{
			name:     "no identity at all",
			raw:      `{"score": 5, "server_id": "abc"}`,
			identity: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ParseRecord(tt.raw)
			if err != nil {
				t.Fatalf("ParseRecord failed: %v", err)
			}
			if got := rec.Identity(); got != tt.identity {
				t.Errorf("Identity() = %q, expected %q", got, tt.identity)
			}
		})
	}
}

func TestRecordUserID(t *testing.T) {
	tests := []struct {
		raw string
		id  string
	}{
		{`{"user_id": 123456789012345}`, "123456789012345"},
		{`{"user_id": "987"}`, "987"},
		{`{"id": 55}`, "55"},
		{`{"username": "noid"}`, ""},
	}
	for _, tt := range tests {
		rec, err := ParseRecord(tt.raw)
		if err != nil {
			t.Fatalf("ParseRecord failed: %v", err)
		}
		if got := rec.UserID(); got != tt.id {
			t.Errorf("UserID(%s) = %q, expected %q", tt.raw, got, tt.id)
		}
	}
}
