package domain

import "time"

// StoryItem is one active story entry for a profile.
type StoryItem struct {
	ID       string
	TakenAt  time.Time
	MediaURL string
	IsVideo  bool
}
