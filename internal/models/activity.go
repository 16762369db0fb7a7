package models

import (
	"time"
)

// Activity types recorded to the feed.
const (
	ActivityQuestCompleted = "quest_completed"
	ActivityStoryCompleted = "story_completed"
	ActivityWisdomUnlocked = "wisdom_unlocked"
	ActivityLevelUp        = "level_up"
)

// Activity is one row of the per-user event feed shown on the profile
// screen and broadcast over the websocket hub.
type Activity struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Type      string    `json:"type" db:"type"`
	Title     string    `json:"title" db:"title"`
	Details   string    `json:"details" db:"details"`
	Icon      string    `json:"icon" db:"icon"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// LeaderboardEntry is one row of the shared XP ranking.
type LeaderboardEntry struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	XP       int    `json:"xp"`
	Rank     int    `json:"rank"`
}
