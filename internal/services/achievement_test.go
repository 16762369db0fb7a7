package services

import (
	"testing"
	"time"
)

func TestAchievementServiceStreakAndBadges(t *testing.T) {
	db := newTestDB(t)
	insertStory(t, db, "s1", "Asian", 1)
	insertStory(t, db, "s2", "European", 3)

	stories := NewStoryService(db)
	if err := stories.MarkCompleted("u1", "s1"); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	ach := NewAchievementService(stories)
	// Pin the reference date just after the completion write.
	ach.now = func() time.Time { return time.Now().UTC() }

	streak, err := ach.Streak("u1")
	if err != nil {
		t.Fatalf("streak: %v", err)
	}
	if streak != 1 {
		t.Fatalf("expected streak 1, got %d", streak)
	}

	badges, err := ach.Badges("u1")
	if err != nil {
		t.Fatalf("badges: %v", err)
	}
	if len(badges) != 14 {
		t.Fatalf("expected 14 badges, got %d", len(badges))
	}

	for _, b := range badges {
		switch b.ID {
		case "read_1", "culture_asia", "easy_1", "streak_3":
			want := b.ID == "read_1" || b.ID == "culture_asia" || b.ID == "easy_1"
			if b.Unlocked != want {
				t.Fatalf("badge %s: unlocked=%v, want %v", b.ID, b.Unlocked, want)
			}
		case "completionist":
			if b.Unlocked {
				t.Fatalf("completionist unlocked with one of two stories read")
			}
		}
	}
}

func TestAchievementServiceStaleStreakIsZero(t *testing.T) {
	db := newTestDB(t)
	insertStory(t, db, "s1", "Asian", 1)

	stories := NewStoryService(db)
	if err := stories.MarkCompleted("u1", "s1"); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	ach := NewAchievementService(stories)
	ach.now = func() time.Time { return time.Now().UTC().AddDate(0, 0, 5) }

	streak, err := ach.Streak("u1")
	if err != nil {
		t.Fatalf("streak: %v", err)
	}
	if streak != 0 {
		t.Fatalf("five-day-old completion should break the streak, got %d", streak)
	}
}

func TestAchievementServiceEmptyHistory(t *testing.T) {
	db := newTestDB(t)
	stories := NewStoryService(db)
	ach := NewAchievementService(stories)

	streak, err := ach.Streak("nobody")
	if err != nil {
		t.Fatalf("streak: %v", err)
	}
	if streak != 0 {
		t.Fatalf("expected streak 0, got %d", streak)
	}

	badges, err := ach.Badges("nobody")
	if err != nil {
		t.Fatalf("badges: %v", err)
	}
	for _, b := range badges {
		if b.Unlocked {
			t.Fatalf("badge %s unlocked for an empty history", b.ID)
		}
	}
}
