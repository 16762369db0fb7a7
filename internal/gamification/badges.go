package gamification

import (
	"time"

	"github.com/wisp-app/wisp-server/internal/models"
)

// Badge is a stateless achievement definition. Unlock state is never
// persisted; it is recomputed from history on every evaluation.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`

	unlocked func(history []models.CompletionRecord, catalog []models.Story, today time.Time) bool
}

// BadgeStatus pairs a badge definition with its computed unlock state.
type BadgeStatus struct {
	Badge
	Unlocked bool `json:"unlocked"`
}

func completedCount(history []models.CompletionRecord) int {
	n := 0
	for _, rec := range history {
		if rec.Completed() {
			n++
		}
	}
	return n
}

func wisdomCount(history []models.CompletionRecord) int {
	n := 0
	for _, rec := range history {
		if rec.WisdomUnlocked {
			n++
		}
	}
	return n
}

// completedStories resolves the completed records against the catalog.
func completedStories(history []models.CompletionRecord, catalog []models.Story) []models.Story {
	done := make(map[string]bool, len(history))
	for _, rec := range history {
		if rec.Completed() {
			done[rec.StoryID] = true
		}
	}
	var out []models.Story
	for _, story := range catalog {
		if done[story.ID] {
			out = append(out, story)
		}
	}
	return out
}

func readAtLeast(n int) func([]models.CompletionRecord, []models.Story, time.Time) bool {
	return func(history []models.CompletionRecord, _ []models.Story, _ time.Time) bool {
		return completedCount(history) >= n
	}
}

func wisdomAtLeast(n int) func([]models.CompletionRecord, []models.Story, time.Time) bool {
	return func(history []models.CompletionRecord, _ []models.Story, _ time.Time) bool {
		return wisdomCount(history) >= n
	}
}

func completedFromCulture(culture string) func([]models.CompletionRecord, []models.Story, time.Time) bool {
	return func(history []models.CompletionRecord, catalog []models.Story, _ time.Time) bool {
		for _, story := range completedStories(history, catalog) {
			if story.OriginCulture == culture {
				return true
			}
		}
		return false
	}
}

func completedAtDifficulty(level int) func([]models.CompletionRecord, []models.Story, time.Time) bool {
	return func(history []models.CompletionRecord, catalog []models.Story, _ time.Time) bool {
		for _, story := range completedStories(history, catalog) {
			if story.DifficultyLevel == level {
				return true
			}
		}
		return false
	}
}

func streakAtLeast(n int) func([]models.CompletionRecord, []models.Story, time.Time) bool {
	return func(history []models.CompletionRecord, _ []models.Story, today time.Time) bool {
		return CalculateStreak(history, today) >= n
	}
}

// AllBadges is the fixed badge registry. Evaluation order and API order both
// follow this list.
var AllBadges = []Badge{
	{
		ID:          "read_1",
		Name:        "First Steps",
		Description: "Read your first story.",
		Icon:        "book-open",
		unlocked:    readAtLeast(1),
	},
	{
		ID:          "read_5",
		Name:        "Story Explorer",
		Description: "Read 5 different stories.",
		Icon:        "compass",
		unlocked:    readAtLeast(5),
	},
	{
		ID:          "read_10",
		Name:        "Folklore Fanatic",
		Description: "Read 10 different stories.",
		Icon:        "award",
		unlocked:    readAtLeast(10),
	},
	{
		ID:          "wisdom_1",
		Name:        "Sage Apprentice",
		Description: "Unlock your first wisdom.",
		Icon:        "unlock",
		unlocked:    wisdomAtLeast(1),
	},
	{
		ID:          "wisdom_5",
		Name:        "Wisdom Seeker",
		Description: "Unlock 5 pieces of wisdom.",
		Icon:        "sun",
		unlocked:    wisdomAtLeast(5),
	},
	{
		ID:          "wisdom_10",
		Name:        "Enlightened One",
		Description: "Unlock 10 pieces of wisdom.",
		Icon:        "sunrise",
		unlocked:    wisdomAtLeast(10),
	},
	{
		ID:          "culture_asia",
		Name:        "Asian Explorer",
		Description: "Read a story from Asia.",
		Icon:        "globe",
		unlocked:    completedFromCulture("Asian"),
	},
	{
		ID:          "culture_europe",
		Name:        "European Explorer",
		Description: "Read a story from Europe.",
		Icon:        "map",
		unlocked:    completedFromCulture("European"),
	},
	{
		ID:          "culture_africa",
		Name:        "African Explorer",
		Description: "Read a story from Africa.",
		Icon:        "shield",
		unlocked:    completedFromCulture("African"),
	},
	{
		ID:          "easy_1",
		Name:        "Easy Start",
		Description: "Complete an easy story.",
		Icon:        "coffee",
		unlocked:    completedAtDifficulty(1),
	},
	{
		ID:          "hard_1",
		Name:        "Challenge Accepted",
		Description: "Complete a hard story.",
		Icon:        "trending-up",
		unlocked:    completedAtDifficulty(3),
	},
	{
		ID:          "completionist",
		Name:        "Grand Storyteller",
		Description: "Read all available stories.",
		Icon:        "award",
		unlocked: func(history []models.CompletionRecord, catalog []models.Story, _ time.Time) bool {
			n := completedCount(history)
			return n > 0 && n == len(catalog)
		},
	},
	{
		ID:          "streak_3",
		Name:        "On a Roll",
		Description: "Maintain a 3-day reading streak.",
		Icon:        "activity",
		unlocked:    streakAtLeast(3),
	},
	{
		ID:          "streak_7",
		Name:        "Habit Builder",
		Description: "Maintain a 7-day reading streak.",
		Icon:        "calendar",
		unlocked:    streakAtLeast(7),
	},
}

// EvaluateBadges computes the unlock state of every registered badge against
// a completion history and the story catalog. The result always holds one
// entry per badge, in registry order. Empty inputs yield locked badges, not
// errors.
func EvaluateBadges(history []models.CompletionRecord, catalog []models.Story, today time.Time) []BadgeStatus {
	out := make([]BadgeStatus, 0, len(AllBadges))
	for _, badge := range AllBadges {
		out = append(out, BadgeStatus{
			Badge:    badge,
			Unlocked: badge.unlocked(history, catalog, today),
		})
	}
	return out
}
