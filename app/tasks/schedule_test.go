package tasks

import (
	"testing"
	"time"

	"github.com/ivpopov/articlepipe/app/database"
)

func TestSourceDue(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-10 * time.Minute)
	stale := now.Add(-2 * time.Hour)

	cases := []struct {
		name     string
		src      *database.Source
		override bool
		expected bool
	}{
		{
			name:     "nil source",
			src:      nil,
			expected: false,
		},
		{
			name: "inactive source",
			src: &database.Source{
				Active:        false,
				FetchInterval: time.Hour,
			},
			expected: false,
		},
		{
			name: "inactive source with override",
			src: &database.Source{
				Active:        false,
				FetchInterval: time.Hour,
			},
			override: true,
			expected: false,
		},
		{
			name: "never fetched",
			src: &database.Source{
				Active:        true,
				FetchInterval: time.Hour,
			},
			expected: true,
		},
		{
			name: "recently fetched",
			src: &database.Source{
				Active:        true,
				FetchInterval: time.Hour,
				LastFetchedAt: &recent,
			},
			expected: false,
		},
		{
			name: "recently fetched with override",
			src: &database.Source{
				Active:        true,
				FetchInterval: time.Hour,
				LastFetchedAt: &recent,
			},
			override: true,
			expected: true,
		},
		{
			name: "interval elapsed",
			src: &database.Source{
				Active:        true,
				FetchInterval: time.Hour,
				LastFetchedAt: &stale,
			},
			expected: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SourceDue(tc.src, now, tc.override); got != tc.expected {
				t.Errorf("Expected %v, got: %v", tc.expected, got)
			}
		})
	}
}

func TestSourceDueExactBoundary(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	boundary := now.Add(-time.Hour)

	src := &database.Source{
		Active:        true,
		FetchInterval: time.Hour,
		LastFetchedAt: &boundary,
	}

	if !SourceDue(src, now, false) {
		t.Error("Expected source to be due exactly at the interval boundary")
	}
}
