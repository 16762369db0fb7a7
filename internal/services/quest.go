package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/schollz/closestmatch"

	"github.com/wisp-app/wisp-server/internal/database"
	"github.com/wisp-app/wisp-server/internal/models"
)

// QuestService lists quests and grades quiz submissions. A passed quiz
// completes the quest, marks its story read and awards the quest's XP.
type QuestService struct {
	db       *database.DB
	progress *ProgressService
	stories  *StoryService
	activity *ActivityService
}

func NewQuestService(db *database.DB, progress *ProgressService, stories *StoryService, activity *ActivityService) *QuestService {
	return &QuestService{db: db, progress: progress, stories: stories, activity: activity}
}

// ListQuests returns all quests, quiz bodies excluded.
func (s *QuestService) ListQuests() ([]models.Quest, error) {
	var quests []models.Quest
	query := `SELECT id, title, description, era, story_id, xp, quiz, created_at
			  FROM quests ORDER BY created_at, id`

	if err := s.db.Select(&quests, query); err != nil {
		return nil, fmt.Errorf("failed to list quests: %w", err)
	}
	return quests, nil
}

// GetQuest returns one quest with its parsed quiz.
func (s *QuestService) GetQuest(questID string) (*models.Quest, []models.QuizQuestion, error) {
	var quest models.Quest
	query := `SELECT id, title, description, era, story_id, xp, quiz, created_at
			  FROM quests WHERE id = ?`

	err := s.db.Get(&quest, query, questID)
	if err == sql.ErrNoRows {
		return nil, nil, fmt.Errorf("quest not found")
	} else if err != nil {
		return nil, nil, fmt.Errorf("failed to get quest: %w", err)
	}

	var quiz []models.QuizQuestion
	if err := json.Unmarshal([]byte(quest.QuizJSON), &quiz); err != nil {
		return nil, nil, fmt.Errorf("failed to parse quiz for quest %s: %w", questID, err)
	}
	return &quest, quiz, nil
}

// SubmitQuiz grades a quiz attempt. Submitted answers are free text; each
// one is snapped to the closest option of its question before comparison,
// so minor client-side formatting differences don't fail a correct answer.
// All questions correct passes the quiz.
func (s *QuestService) SubmitQuiz(userID, username, questID string, submission models.QuizSubmission) (*models.QuizResult, error) {
	quest, quiz, err := s.GetQuest(questID)
	if err != nil {
		return nil, err
	}
	if len(quiz) == 0 {
		return nil, fmt.Errorf("quest has no quiz")
	}
	if len(submission.Answers) != len(quiz) {
		return nil, fmt.Errorf("expected %d answers, got %d", len(quiz), len(submission.Answers))
	}

	correct := 0
	for i, question := range quiz {
		if gradeAnswer(question, submission.Answers[i]) {
			correct++
		}
	}

	result := &models.QuizResult{
		QuestID: questID,
		Correct: correct,
		Total:   len(quiz),
		Passed:  correct == len(quiz),
	}
	if !result.Passed {
		return result, nil
	}

	_, firstCompletion := s.progress.CompleteQuest(userID, questID)
	if quest.StoryID != "" {
		if err := s.stories.MarkCompleted(userID, quest.StoryID); err != nil {
			return nil, err
		}
	}

	// XP is awarded once per quest, decided by the same mutation that
	// recorded the completion.
	if firstCompletion && quest.XP > 0 {
		s.progress.AddXP(userID, username, quest.XP)
		result.XPAwarded = quest.XP
		s.activity.Record(userID, models.ActivityQuestCompleted,
			fmt.Sprintf("Completed %q", quest.Title),
			fmt.Sprintf("+%d XP", quest.XP), "flag")
	}

	return result, nil
}

// gradeAnswer checks free text against the question's options. A normalized
// exact match on any option decides the grade outright; only inexact input
// falls through to fuzzy matching, which is unreliable for options shorter
// than its substring bags ("A", "4").
func gradeAnswer(question models.QuizQuestion, answer string) bool {
	if question.CorrectAnswerIndex < 0 || question.CorrectAnswerIndex >= len(question.Answers) {
		return false
	}

	normalized := strings.ToLower(strings.TrimSpace(answer))
	if normalized == "" {
		return false
	}

	options := make([]string, len(question.Answers))
	for i, option := range question.Answers {
		options[i] = strings.ToLower(strings.TrimSpace(option))
	}

	for i, option := range options {
		if option == normalized {
			return i == question.CorrectAnswerIndex
		}
	}

	cm := closestmatch.New(options, []int{2, 3})
	matched := cm.Closest(normalized)
	return matched == options[question.CorrectAnswerIndex]
}
