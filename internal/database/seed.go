package database

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wisp-app/wisp-server/internal/models"
)

// seedFile is the shape of the JSON content packs under the data directory.
// A pack can carry stories, quests, or both.
type seedFile struct {
	Stories []models.Story `json:"stories"`
	Quests  []seedQuest    `json:"quests"`
}

type seedQuest struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Era         string                `json:"era"`
	StoryID     string                `json:"story_id"`
	XP          int                   `json:"xp"`
	Quiz        []models.QuizQuestion `json:"quiz"`
}

// Seed loads every JSON content pack under dir into the catalog tables.
// Already-present rows are left untouched so re-running the server never
// clobbers edits. Unreadable or malformed packs are skipped.
func (db *DB) Seed(dir string) (int, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read data directory %s: %w", dir, err)
	}

	seeded := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}

		path := filepath.Join(dir, file.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var pack seedFile
		if err := json.Unmarshal(raw, &pack); err != nil {
			continue
		}

		for _, story := range pack.Stories {
			if err := db.insertStory(story); err != nil {
				return seeded, err
			}
			seeded++
		}
		for _, quest := range pack.Quests {
			if err := db.insertQuest(quest); err != nil {
				return seeded, err
			}
			seeded++
		}
	}

	return seeded, nil
}

func (db *DB) insertStory(story models.Story) error {
	query := `
		INSERT OR IGNORE INTO folklore_stories (id, title, origin_culture, difficulty_level, wisdom_lesson, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.Exec(query, story.ID, story.Title, story.OriginCulture,
		story.DifficultyLevel, story.WisdomLesson, story.Content, time.Now())
	if err != nil {
		return fmt.Errorf("failed to seed story %s: %w", story.ID, err)
	}
	return nil
}

func (db *DB) insertQuest(quest seedQuest) error {
	quiz, err := json.Marshal(quest.Quiz)
	if err != nil {
		return fmt.Errorf("failed to encode quiz for quest %s: %w", quest.ID, err)
	}

	query := `
		INSERT OR IGNORE INTO quests (id, title, description, era, story_id, xp, quiz, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = db.Exec(query, quest.ID, quest.Title, quest.Description, quest.Era,
		quest.StoryID, quest.XP, string(quiz), time.Now())
	if err != nil {
		return fmt.Errorf("failed to seed quest %s: %w", quest.ID, err)
	}
	return nil
}
