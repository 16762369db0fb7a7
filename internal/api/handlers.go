package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wisp-app/wisp-server/internal/auth"
	"github.com/wisp-app/wisp-server/internal/leaderboard"
	"github.com/wisp-app/wisp-server/internal/logger"
	"github.com/wisp-app/wisp-server/internal/models"
	"github.com/wisp-app/wisp-server/internal/services"
)

type Handler struct {
	stories      *services.StoryService
	quests       *services.QuestService
	progress     *services.ProgressService
	achievements *services.AchievementService
	activity     *services.ActivityService
	ranker       leaderboard.Ranker
	sessions     *auth.Sessions
	log          *logger.Logger
}

func NewHandler(
	stories *services.StoryService,
	quests *services.QuestService,
	progress *services.ProgressService,
	achievements *services.AchievementService,
	activity *services.ActivityService,
	ranker leaderboard.Ranker,
	sessions *auth.Sessions,
	log *logger.Logger,
) *Handler {
	return &Handler{
		stories:      stories,
		quests:       quests,
		progress:     progress,
		achievements: achievements,
		activity:     activity,
		ranker:       ranker,
		sessions:     sessions,
		log:          log,
	}
}

// RegisterRoutes mounts all authenticated API routes.
func RegisterRoutes(r *mux.Router, h *Handler) {
	r.HandleFunc("/stories", h.ListStories).Methods("GET")
	r.HandleFunc("/stories/{id}", h.GetStory).Methods("GET")
	r.HandleFunc("/stories/{id}/start", h.StartStory).Methods("POST")
	r.HandleFunc("/stories/{id}/complete", h.CompleteStory).Methods("POST")
	r.HandleFunc("/stories/{id}/wisdom", h.UnlockWisdom).Methods("POST")

	r.HandleFunc("/quests", h.ListQuests).Methods("GET")
	r.HandleFunc("/quests/{id}", h.GetQuest).Methods("GET")
	r.HandleFunc("/quests/{id}/quiz", h.SubmitQuiz).Methods("POST")

	r.HandleFunc("/progress", h.GetProgress).Methods("GET")
	r.HandleFunc("/progress/history", h.GetHistory).Methods("GET")
	r.HandleFunc("/progress/xp", h.AddXP).Methods("POST")
	r.HandleFunc("/codex/unlock", h.UnlockCodexEntry).Methods("POST")

	r.HandleFunc("/badges", h.GetBadges).Methods("GET")
	r.HandleFunc("/streak", h.GetStreak).Methods("GET")
	r.HandleFunc("/leaderboard", h.GetLeaderboard).Methods("GET")
	r.HandleFunc("/leaderboard/rank", h.GetRank).Methods("GET")
	r.HandleFunc("/activities", h.GetActivities).Methods("GET")
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// GET /api/v1/stories
func (h *Handler) ListStories(w http.ResponseWriter, r *http.Request) {
	stories, err := h.stories.ListStories()
	if err != nil {
		h.log.Error("failed to list stories", "error", err)
		http.Error(w, "Failed to list stories", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"stories": stories})
}

// GET /api/v1/stories/{id}
func (h *Handler) GetStory(w http.ResponseWriter, r *http.Request) {
	story, err := h.stories.GetStory(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Story not found", http.StatusNotFound)
		return
	}
	writeJSON(w, story)
}

// POST /api/v1/stories/{id}/start
func (h *Handler) StartStory(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.sessions.Identity(r)
	if err := h.stories.MarkInProgress(userID, mux.Vars(r)["id"]); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/stories/{id}/complete
func (h *Handler) CompleteStory(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.sessions.Identity(r)
	storyID := mux.Vars(r)["id"]

	if err := h.stories.MarkCompleted(userID, storyID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	story, err := h.stories.GetStory(storyID)
	if err == nil {
		h.activity.Record(userID, models.ActivityStoryCompleted,
			"Completed \""+story.Title+"\"", story.OriginCulture, "book-open")
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/stories/{id}/wisdom
func (h *Handler) UnlockWisdom(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.sessions.Identity(r)
	story, err := h.stories.UnlockWisdom(userID, mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.activity.Record(userID, models.ActivityWisdomUnlocked,
		"Unlocked wisdom from \""+story.Title+"\"", story.WisdomLesson, "unlock")
	writeJSON(w, map[string]string{"wisdom_lesson": story.WisdomLesson})
}

// GET /api/v1/quests
func (h *Handler) ListQuests(w http.ResponseWriter, r *http.Request) {
	quests, err := h.quests.ListQuests()
	if err != nil {
		h.log.Error("failed to list quests", "error", err)
		http.Error(w, "Failed to list quests", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"quests": quests})
}

// questView hides the correct answer index from clients.
type questView struct {
	models.Quest
	Quiz []struct {
		Question string   `json:"question"`
		Answers  []string `json:"answers"`
	} `json:"quiz"`
}

// GET /api/v1/quests/{id}
func (h *Handler) GetQuest(w http.ResponseWriter, r *http.Request) {
	quest, quiz, err := h.quests.GetQuest(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Quest not found", http.StatusNotFound)
		return
	}

	view := questView{Quest: *quest}
	for _, q := range quiz {
		view.Quiz = append(view.Quiz, struct {
			Question string   `json:"question"`
			Answers  []string `json:"answers"`
		}{Question: q.Question, Answers: q.Answers})
	}
	writeJSON(w, view)
}

// POST /api/v1/quests/{id}/quiz
func (h *Handler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	userID, username := h.sessions.Identity(r)

	var submission models.QuizSubmission
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.quests.SubmitQuiz(userID, username, mux.Vars(r)["id"], submission)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, result)
}

// GET /api/v1/progress
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.sessions.Identity(r)
	writeJSON(w, h.progress.Load(userID))
}

// GET /api/v1/progress/history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.sessions.Identity(r)
	history, err := h.stories.History(userID)
	if err != nil {
		h.log.Error("failed to get history", "user_id", userID, "error", err)
		http.Error(w, "Failed to get history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"history": history})
}

// POST /api/v1/progress/xp
func (h *Handler) AddXP(w http.ResponseWriter, r *http.Request) {
	userID, username := h.sessions.Identity(r)

	var req struct {
		Amount int `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount <= 0 {
		http.Error(w, "Amount must be a positive integer", http.StatusBadRequest)
		return
	}

	writeJSON(w, h.progress.AddXP(userID, username, req.Amount))
}

// POST /api/v1/codex/unlock
func (h *Handler) UnlockCodexEntry(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.sessions.Identity(r)

	var req struct {
		EntryID string `json:"entry_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EntryID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	writeJSON(w, h.progress.UnlockCodexEntry(userID, req.EntryID))
}

// GET /api/v1/badges
func (h *Handler) GetBadges(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.sessions.Identity(r)
	badges, err := h.achievements.Badges(userID)
	if err != nil {
		h.log.Error("failed to evaluate badges", "user_id", userID, "error", err)
		http.Error(w, "Failed to evaluate badges", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"badges": badges})
}

// GET /api/v1/streak
func (h *Handler) GetStreak(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.sessions.Identity(r)
	streak, err := h.achievements.Streak(userID)
	if err != nil {
		h.log.Error("failed to compute streak", "user_id", userID, "error", err)
		http.Error(w, "Failed to compute streak", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]int{"streak": streak})
}

// GET /api/v1/leaderboard
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.ranker.Top(r.Context(), limit)
	if err != nil {
		h.log.Error("failed to fetch leaderboard", "error", err)
		http.Error(w, "Failed to fetch leaderboard", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"leaderboard": entries})
}

// GET /api/v1/leaderboard/rank
func (h *Handler) GetRank(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.sessions.Identity(r)
	rank, err := h.ranker.Rank(r.Context(), userID)
	if err != nil {
		h.log.Error("failed to fetch rank", "user_id", userID, "error", err)
		http.Error(w, "Failed to fetch rank", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]int{"rank": rank})
}

// GET /api/v1/activities
func (h *Handler) GetActivities(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.sessions.Identity(r)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	activities, err := h.activity.Recent(userID, limit)
	if err != nil {
		h.log.Error("failed to get activities", "user_id", userID, "error", err)
		http.Error(w, "Failed to get activities", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"activities": activities})
}
