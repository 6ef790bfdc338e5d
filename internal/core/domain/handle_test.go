package domain

import (
	"strings"
	"testing"
	"time"
)

func TestHandle_Valid(t *testing.T) {
	tests := []struct {
		handle Handle
		valid  bool
	}{
		{"h0000000000000000001", true},
		{"AbCdEfGhIjKlMnOpQrSt", true},
		{"", false},
		{"short", false},
		{"h00000000000000000012", false},
		{"h000000000000000000-", false},
		{"h00000000000000000 1", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.handle), func(t *testing.T) {
			if got := tt.handle.Valid(); got != tt.valid {
				t.Errorf("Valid(%q) = %v, want %v", tt.handle, got, tt.valid)
			}
		})
	}
}

func TestHandle_Redacted(t *testing.T) {
	h := Handle("h0000000000000000001")
	if got := h.Redacted(); !strings.HasPrefix(got, "h000") || strings.Contains(got, "0001") {
		t.Errorf("unexpected redaction %q", got)
	}
	if got := Handle("abc").Redacted(); got != "****" {
		t.Errorf("short handles should be fully masked, got %q", got)
	}
}

func TestHandleAlphabet(t *testing.T) {
	if len(HandleAlphabet) != 62 {
		t.Errorf("expected 62 symbols, got %d", len(HandleAlphabet))
	}
	seen := make(map[rune]bool)
	for _, c := range HandleAlphabet {
		if seen[c] {
			t.Errorf("duplicate symbol %q", c)
		}
		seen[c] = true
	}
}

func TestPendingGrant_IsExpired(t *testing.T) {
	now := time.Now()

	g := &PendingGrant{ExpiresAt: now.Add(time.Minute)}
	if g.IsExpired(now) {
		t.Error("grant should not be expired yet")
	}
	if !g.IsExpired(now.Add(time.Minute)) {
		t.Error("grant should be expired at its expiry instant")
	}

	forever := &PendingGrant{}
	if forever.IsExpired(now.Add(24 * time.Hour)) {
		t.Error("zero expiry should never expire")
	}
}

func TestExternalIdentity_Valid(t *testing.T) {
	tests := []struct {
		id    ExternalIdentity
		valid bool
	}{
		{"tg_42", true},
		{"123456789", true},
		{"", false},
		{"has space", false},
		{"line\nbreak", false},
		{"tab\tsep", false},
		{"nul\x00", false},
		{"del\x7f", false},
		{"ключ_7", true},
		{"user@example.com", true},
		{ExternalIdentity(strings.Repeat("a", MaxIdentityLength)), true},
		{ExternalIdentity(strings.Repeat("a", MaxIdentityLength+1)), false},
	}

	for _, tt := range tests {
		if got := tt.id.Valid(); got != tt.valid {
			t.Errorf("Valid(%q) = %v, want %v", tt.id, got, tt.valid)
		}
	}
}
