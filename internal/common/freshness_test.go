package common

import (
	"testing"
	"time"
)

func TestIsFresh(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		updated time.Time
		want    bool
	}{
		{"zero time", time.Time{}, false},
		{"just now", now, true},
		{"within ttl", now.Add(-23 * time.Hour), true},
		{"exactly ttl", now.Add(-QuoteStaleAfter), false},
		{"older than ttl", now.Add(-48 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFresh(tt.updated, now, QuoteStaleAfter); got != tt.want {
				t.Errorf("IsFresh(%v) = %v, want %v", tt.updated, got, tt.want)
			}
		})
	}
}
