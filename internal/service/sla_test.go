package service

import (
	"testing"
	"time"
)

func TestSLAWindowByPriority(t *testing.T) {
	cases := []struct {
		priority int
		want     time.Duration
	}{
		{10, 4 * time.Hour},
		{9, 4 * time.Hour},
		{8, 8 * time.Hour},
		{7, 8 * time.Hour},
		{6, 24 * time.Hour},
		{4, 24 * time.Hour},
		{3, 72 * time.Hour},
		{1, 72 * time.Hour},
	}
	for _, tc := range cases {
		if got := SLAWindow(tc.priority); got != tc.want {
			t.Fatalf("SLAWindow(%d) = %v, want %v", tc.priority, got, tc.want)
		}
	}
}

func TestSLADeadline(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if got := SLADeadline(at, 9); !got.Equal(at.Add(4 * time.Hour)) {
		t.Fatalf("unexpected deadline: %v", got)
	}
}
