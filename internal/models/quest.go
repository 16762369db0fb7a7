package models

import (
	"time"
)

// Quest is a playable unit tied to the heritage content: reading a story,
// answering its quiz, earning XP.
type Quest struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Era         string    `json:"era" db:"era"`
	StoryID     string    `json:"story_id" db:"story_id"`
	XP          int       `json:"xp" db:"xp"`
	QuizJSON    string    `json:"-" db:"quiz"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// QuizQuestion is one multiple-choice question of a quest's quiz.
type QuizQuestion struct {
	Question           string   `json:"question"`
	Answers            []string `json:"answers"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	Explanation        string   `json:"explanation"`
}

// QuizSubmission is the client payload for a quiz attempt. Answers are the
// chosen option texts, one per question in order.
type QuizSubmission struct {
	Answers []string `json:"answers"`
}

// QuizResult reports a graded quiz attempt.
type QuizResult struct {
	QuestID   string `json:"quest_id"`
	Correct   int    `json:"correct"`
	Total     int    `json:"total"`
	Passed    bool   `json:"passed"`
	XPAwarded int    `json:"xp_awarded"`
}
