package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wisp-app/wisp-server/internal/database"
	"github.com/wisp-app/wisp-server/internal/models"
)

// StoryService reads the folklore catalog and maintains per-user completion
// records.
type StoryService struct {
	db *database.DB
}

func NewStoryService(db *database.DB) *StoryService {
	return &StoryService{db: db}
}

// ListStories returns the full catalog.
func (s *StoryService) ListStories() ([]models.Story, error) {
	var stories []models.Story
	query := `SELECT id, title, origin_culture, difficulty_level, wisdom_lesson, content, created_at
			  FROM folklore_stories ORDER BY created_at, id`

	if err := s.db.Select(&stories, query); err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	return stories, nil
}

// GetStory returns one catalog entry.
func (s *StoryService) GetStory(storyID string) (*models.Story, error) {
	var story models.Story
	query := `SELECT id, title, origin_culture, difficulty_level, wisdom_lesson, content, created_at
			  FROM folklore_stories WHERE id = ?`

	err := s.db.Get(&story, query, storyID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("story not found")
	} else if err != nil {
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	return &story, nil
}

// History returns every completion record for a user.
func (s *StoryService) History(userID string) ([]models.CompletionRecord, error) {
	var records []models.CompletionRecord
	query := `SELECT id, user_id, story_id, status, completed_at, wisdom_unlocked, updated_at
			  FROM user_progress WHERE user_id = ? ORDER BY updated_at DESC`

	if err := s.db.Select(&records, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get completion history: %w", err)
	}
	return records, nil
}

// MarkCompleted upserts the (user, story) record into the completed state.
// The completion timestamp is written once; re-completing a story keeps the
// original date.
func (s *StoryService) MarkCompleted(userID, storyID string) error {
	if _, err := s.GetStory(storyID); err != nil {
		return err
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO user_progress (id, user_id, story_id, status, completed_at, wisdom_unlocked, updated_at)
		VALUES (?, ?, ?, ?, ?, FALSE, ?)
		ON CONFLICT(user_id, story_id) DO UPDATE SET
			status = excluded.status,
			completed_at = COALESCE(completed_at, excluded.completed_at),
			updated_at = excluded.updated_at
	`
	_, err := s.db.Exec(query, uuid.NewString(), userID, storyID, models.StatusCompleted, now, now)
	if err != nil {
		return fmt.Errorf("failed to mark story completed: %w", err)
	}
	return nil
}

// MarkInProgress records that a user started reading a story. A completed
// record is never downgraded.
func (s *StoryService) MarkInProgress(userID, storyID string) error {
	if _, err := s.GetStory(storyID); err != nil {
		return err
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO user_progress (id, user_id, story_id, status, completed_at, wisdom_unlocked, updated_at)
		VALUES (?, ?, ?, ?, NULL, FALSE, ?)
		ON CONFLICT(user_id, story_id) DO UPDATE SET
			status = CASE WHEN status = 'completed' THEN status ELSE excluded.status END,
			updated_at = excluded.updated_at
	`
	_, err := s.db.Exec(query, uuid.NewString(), userID, storyID, models.StatusInProgress, now)
	if err != nil {
		return fmt.Errorf("failed to mark story in progress: %w", err)
	}
	return nil
}

// UnlockWisdom claims the lesson reward for a completed story. Unlocking
// wisdom on a story the user has not completed is rejected.
func (s *StoryService) UnlockWisdom(userID, storyID string) (*models.Story, error) {
	story, err := s.GetStory(storyID)
	if err != nil {
		return nil, err
	}

	var status string
	err = s.db.Get(&status, `SELECT status FROM user_progress WHERE user_id = ? AND story_id = ?`, userID, storyID)
	if err == sql.ErrNoRows || (err == nil && status != models.StatusCompleted) {
		return nil, fmt.Errorf("story not completed")
	} else if err != nil {
		return nil, fmt.Errorf("failed to check story status: %w", err)
	}

	query := `UPDATE user_progress SET wisdom_unlocked = TRUE, updated_at = ? WHERE user_id = ? AND story_id = ?`
	if _, err := s.db.Exec(query, time.Now().UTC(), userID, storyID); err != nil {
		return nil, fmt.Errorf("failed to unlock wisdom: %w", err)
	}
	return story, nil
}
