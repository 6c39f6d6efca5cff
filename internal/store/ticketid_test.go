package store

import (
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestNewTicketIDFormat(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id, err := NewTicketID(now)
	if err != nil {
		t.Fatalf("new ticket id: %v", err)
	}

	parts := strings.Split(id, "-")
	if len(parts) != 3 {
		t.Fatalf("expected 3 segments, got %q", id)
	}
	if parts[0] != "TKT" {
		t.Fatalf("expected TKT prefix, got %q", parts[0])
	}
	millis, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		t.Fatalf("timestamp segment not numeric: %q", parts[1])
	}
	if millis != now.UnixMilli() {
		t.Fatalf("timestamp segment %d, want %d", millis, now.UnixMilli())
	}
	if len(parts[2]) != ticketIDSuffixLen {
		t.Fatalf("suffix length %d, want %d", len(parts[2]), ticketIDSuffixLen)
	}
	for _, r := range parts[2] {
		if !strings.ContainsRune(ticketIDAlphabet, r) {
			t.Fatalf("suffix contains %q outside alphabet", r)
		}
	}
}

func TestNewTicketIDUnique(t *testing.T) {
	now := time.Now().UTC()
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id, err := NewTicketID(now)
		if err != nil {
			t.Fatalf("new ticket id: %v", err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}
