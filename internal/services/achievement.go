package services

import (
	"fmt"
	"time"

	"github.com/wisp-app/wisp-server/internal/gamification"
)

// AchievementService is the read-side projection over a user's completion
// history: it fetches history and catalog and hands them to the pure
// engine. It never mutates anything.
type AchievementService struct {
	stories *StoryService

	// now supplies the reference date for streak evaluation. Tests swap it
	// for a fixed clock.
	now func() time.Time
}

func NewAchievementService(stories *StoryService) *AchievementService {
	return &AchievementService{
		stories: stories,
		now:     time.Now,
	}
}

// Badges returns the unlock state of the full badge registry for a user.
func (s *AchievementService) Badges(userID string) ([]gamification.BadgeStatus, error) {
	history, err := s.stories.History(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate badges: %w", err)
	}
	catalog, err := s.stories.ListStories()
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate badges: %w", err)
	}
	return gamification.EvaluateBadges(history, catalog, s.now()), nil
}

// Streak returns the user's current consecutive-day completion streak.
func (s *AchievementService) Streak(userID string) (int, error) {
	history, err := s.stories.History(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to compute streak: %w", err)
	}
	return gamification.CalculateStreak(history, s.now()), nil
}
