package models

import (
	"time"
)

// Completion status values for a user's relationship to one story.
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Story is one entry of the folklore catalog. Catalog rows are seeded at
// startup and treated as immutable afterwards.
type Story struct {
	ID              string    `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	OriginCulture   string    `json:"origin_culture" db:"origin_culture"`
	DifficultyLevel int       `json:"difficulty_level" db:"difficulty_level"`
	WisdomLesson    string    `json:"wisdom_lesson" db:"wisdom_lesson"`
	Content         string    `json:"content,omitempty" db:"content"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// CompletionRecord tracks one user's progress on one story. At most one
// record exists per (user, story) pair.
type CompletionRecord struct {
	ID             string     `json:"id" db:"id"`
	UserID         string     `json:"user_id" db:"user_id"`
	StoryID        string     `json:"story_id" db:"story_id"`
	Status         string     `json:"status" db:"status"`
	CompletedAt    *time.Time `json:"completed_at" db:"completed_at"`
	WisdomUnlocked bool       `json:"wisdom_unlocked" db:"wisdom_unlocked"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// Completed reports whether this record counts as a finished story.
func (r CompletionRecord) Completed() bool {
	return r.Status == StatusCompleted
}

// CompletionTime returns the timestamp a completion is dated by. CompletedAt
// is authoritative; records written before that column existed only carry
// UpdatedAt. The second return is false when the record has no usable date.
func (r CompletionRecord) CompletionTime() (time.Time, bool) {
	if !r.Completed() {
		return time.Time{}, false
	}
	if r.CompletedAt != nil {
		return *r.CompletedAt, true
	}
	if !r.UpdatedAt.IsZero() {
		return r.UpdatedAt, true
	}
	return time.Time{}, false
}
