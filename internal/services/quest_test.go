package services

import (
	"testing"
	"time"

	"github.com/wisp-app/wisp-server/internal/database"
	"github.com/wisp-app/wisp-server/internal/logger"
	"github.com/wisp-app/wisp-server/internal/models"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(":memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func insertStory(t *testing.T, db *database.DB, id, culture string, difficulty int) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO folklore_stories (id, title, origin_culture, difficulty_level, wisdom_lesson, content, created_at)
		VALUES (?, ?, ?, ?, ?, '', ?)`, id, "Story "+id, culture, difficulty, "lesson for "+id, time.Now())
	if err != nil {
		t.Fatalf("insert story: %v", err)
	}
}

func insertQuest(t *testing.T, db *database.DB, id, storyID string, xp int, quiz string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO quests (id, title, description, era, story_id, xp, quiz, created_at)
		VALUES (?, ?, '', '', ?, ?, ?, ?)`, id, "Quest "+id, storyID, xp, quiz, time.Now())
	if err != nil {
		t.Fatalf("insert quest: %v", err)
	}
}

func newQuestFixture(t *testing.T) (*QuestService, *ProgressService, *fakeRanker) {
	db := newTestDB(t)
	log := logger.NewNop()

	ranker := newFakeRanker()
	progress := NewProgressService(database.NewBlobStore(db), ranker, log)
	stories := NewStoryService(db)
	activity := NewActivityService(db, nil, log)
	quests := NewQuestService(db, progress, stories, activity)

	insertStory(t, db, "s1", "Asian", 1)
	insertQuest(t, db, "q1", "s1", 50, `[
		{"question":"What did Momotaro share?","answers":["Millet dumplings","Rice wine","Gold coins","Silk robes"],"correctAnswerIndex":0,"explanation":""},
		{"question":"Where do the ogres live?","answers":["Mount Fuji","Onigashima","Kyoto"],"correctAnswerIndex":1,"explanation":""}
	]`)

	return quests, progress, ranker
}

func TestGradeAnswerExactAndFuzzy(t *testing.T) {
	question := models.QuizQuestion{
		Answers:            []string{"Millet dumplings", "Rice wine", "Gold coins"},
		CorrectAnswerIndex: 0,
	}

	cases := []struct {
		answer string
		want   bool
	}{
		{"Millet dumplings", true},
		{"millet dumplings", true},
		{"  Millet Dumplings ", true},
		{"millet dumplins", true}, // minor typo still snaps to the right option
		{"Rice wine", false},
		{"gold coins", false},
		{"", false},
	}
	for _, c := range cases {
		if got := gradeAnswer(question, c.answer); got != c.want {
			t.Fatalf("gradeAnswer(%q) = %v, want %v", c.answer, got, c.want)
		}
	}
}

func TestGradeAnswerShortAndSimilarOptions(t *testing.T) {
	letters := models.QuizQuestion{
		Answers:            []string{"A", "B", "C", "D"},
		CorrectAnswerIndex: 0,
	}
	if !gradeAnswer(letters, "A") {
		t.Fatalf("exact single-letter answer must grade as correct")
	}
	if !gradeAnswer(letters, "a") {
		t.Fatalf("case-folded single-letter answer must grade as correct")
	}
	if gradeAnswer(letters, "B") {
		t.Fatalf("exact wrong option must grade as incorrect")
	}

	numbers := models.QuizQuestion{
		Answers:            []string{"2", "4", "6", "8"},
		CorrectAnswerIndex: 1,
	}
	if !gradeAnswer(numbers, "4") {
		t.Fatalf("exact numeric answer must grade as correct")
	}
	if gradeAnswer(numbers, "6") {
		t.Fatalf("exact wrong numeric option must grade as incorrect")
	}

	years := models.QuizQuestion{
		Answers:            []string{"1904", "1905", "1906"},
		CorrectAnswerIndex: 2,
	}
	if !gradeAnswer(years, "1906") {
		t.Fatalf("exact answer among near-identical options must grade as correct")
	}
	if gradeAnswer(years, "1905") {
		t.Fatalf("exact wrong year must grade as incorrect")
	}
}

func TestGradeAnswerRejectsBrokenQuestion(t *testing.T) {
	question := models.QuizQuestion{
		Answers:            []string{"a", "b"},
		CorrectAnswerIndex: 5,
	}
	if gradeAnswer(question, "a") {
		t.Fatalf("out-of-range correct index must never grade as correct")
	}
}

func TestSubmitQuizPassAwardsXPOnce(t *testing.T) {
	quests, progress, ranker := newQuestFixture(t)

	submission := models.QuizSubmission{Answers: []string{"Millet dumplings", "Onigashima"}}
	result, err := quests.SubmitQuiz("u1", "ayla", "q1", submission)
	if err != nil {
		t.Fatalf("submit quiz: %v", err)
	}
	if !result.Passed || result.Correct != 2 || result.XPAwarded != 50 {
		t.Fatalf("unexpected result: %+v", result)
	}
	ranker.waitForCall(t)

	p := progress.Load("u1")
	if p.XP != 50 {
		t.Fatalf("expected xp=50, got %d", p.XP)
	}
	if len(p.CompletedQuests) != 1 || p.CompletedQuests[0] != "q1" {
		t.Fatalf("quest not recorded: %v", p.CompletedQuests)
	}

	// Re-passing the quiz must not double-award.
	result, err = quests.SubmitQuiz("u1", "ayla", "q1", submission)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if result.XPAwarded != 0 {
		t.Fatalf("repeat pass awarded xp: %+v", result)
	}
	if p := progress.Load("u1"); p.XP != 50 {
		t.Fatalf("xp changed on repeat pass: %d", p.XP)
	}
}

func TestSubmitQuizFailAwardsNothing(t *testing.T) {
	quests, progress, _ := newQuestFixture(t)

	submission := models.QuizSubmission{Answers: []string{"Rice wine", "Onigashima"}}
	result, err := quests.SubmitQuiz("u1", "ayla", "q1", submission)
	if err != nil {
		t.Fatalf("submit quiz: %v", err)
	}
	if result.Passed || result.Correct != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if p := progress.Load("u1"); p.XP != 0 || len(p.CompletedQuests) != 0 {
		t.Fatalf("failed quiz must not change progress: %+v", p)
	}
}

func TestSubmitQuizRejectsWrongAnswerCount(t *testing.T) {
	quests, _, _ := newQuestFixture(t)

	_, err := quests.SubmitQuiz("u1", "ayla", "q1", models.QuizSubmission{Answers: []string{"only one"}})
	if err == nil {
		t.Fatalf("expected an error for mismatched answer count")
	}
}

func TestSubmitQuizPassMarksStoryCompleted(t *testing.T) {
	quests, _, _ := newQuestFixture(t)
	db := quests.db

	submission := models.QuizSubmission{Answers: []string{"Millet dumplings", "Onigashima"}}
	if _, err := quests.SubmitQuiz("u1", "ayla", "q1", submission); err != nil {
		t.Fatalf("submit quiz: %v", err)
	}

	var status string
	if err := db.Get(&status, `SELECT status FROM user_progress WHERE user_id = ? AND story_id = ?`, "u1", "s1"); err != nil {
		t.Fatalf("read progress row: %v", err)
	}
	if status != models.StatusCompleted {
		t.Fatalf("story should be completed, got %s", status)
	}
}
