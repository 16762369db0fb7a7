package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/wisp-app/wisp-server/internal/leaderboard"
	"github.com/wisp-app/wisp-server/internal/logger"
	"github.com/wisp-app/wisp-server/internal/models"
)

// progressKeyPrefix namespaces progress blobs in the key-value store. The
// full key is the prefix plus the user id.
const progressKeyPrefix = "wisp:user_progress:"

// KeyValue is the durable storage seam for player progress aggregates.
type KeyValue interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
}

// ProgressService owns the mutable play-state aggregates, one per active
// user session. Mutations update memory first, then persist; a failed write
// is logged and the in-memory state keeps the new value for the rest of the
// session. XP changes additionally push a snapshot to the ranking store,
// fire-and-forget.
type ProgressService struct {
	kv     KeyValue
	ranker leaderboard.Ranker
	log    *logger.Logger

	// OnLevelUp, when set, runs after an XP gain crosses a level boundary.
	// Called outside the store's lock. Set once at wiring time.
	OnLevelUp func(userID string, level int)

	mu       sync.Mutex
	sessions map[string]*models.PlayerProgress
}

func NewProgressService(kv KeyValue, ranker leaderboard.Ranker, log *logger.Logger) *ProgressService {
	return &ProgressService{
		kv:       kv,
		ranker:   ranker,
		log:      log,
		sessions: make(map[string]*models.PlayerProgress),
	}
}

func progressKey(userID string) string {
	return progressKeyPrefix + userID
}

// Load returns the aggregate for a user, reading it from storage on first
// access. A missing or undecodable blob yields the default aggregate;
// corruption is logged, never surfaced.
func (s *ProgressService) Load(userID string) models.PlayerProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.sessionLocked(userID)
}

func (s *ProgressService) sessionLocked(userID string) *models.PlayerProgress {
	if p, ok := s.sessions[userID]; ok {
		return p
	}

	progress := models.NewPlayerProgress()
	raw, found, err := s.kv.Get(progressKey(userID))
	if err != nil {
		s.log.Error("failed to load player progress", "user_id", userID, "error", err)
	} else if found {
		if err := json.Unmarshal(raw, progress); err != nil {
			s.log.Error("corrupt player progress blob, falling back to defaults",
				"user_id", userID, "error", err)
			progress = models.NewPlayerProgress()
		}
	}
	progress.Normalize()

	s.sessions[userID] = progress
	return progress
}

// CompleteQuest records a finished quest. The second return reports
// whether the quest was newly added; callers use it to decide one-time
// rewards. Adding an id twice is a no-op.
func (s *ProgressService) CompleteQuest(userID, questID string) (models.PlayerProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	progress := s.sessionLocked(userID)
	added := progress.AddQuest(questID)
	if added {
		s.persistLocked(userID, progress)
	}
	return *progress, added
}

// UnlockCodexEntry records an unlocked codex/lore entry. Idempotent.
func (s *ProgressService) UnlockCodexEntry(userID, entryID string) models.PlayerProgress {
	s.mu.Lock()
	defer s.mu.Unlock()

	progress := s.sessionLocked(userID)
	if progress.AddCodexEntry(entryID) {
		s.persistLocked(userID, progress)
	}
	return *progress
}

// AddXP raises the user's XP, persists the aggregate and pushes the new
// total to the ranking store without waiting for it. The local update
// always wins: a failed push is logged and never rolled back.
func (s *ProgressService) AddXP(userID, username string, amount int) models.PlayerProgress {
	s.mu.Lock()
	progress := s.sessionLocked(userID)
	before := progress.Level
	progress.AddXP(amount)
	s.persistLocked(userID, progress)
	snapshot := *progress
	s.mu.Unlock()

	if snapshot.Level > before {
		s.log.Info("player leveled up", "user_id", userID, "level", snapshot.Level)
		if s.OnLevelUp != nil {
			s.OnLevelUp(userID, snapshot.Level)
		}
	}

	go s.pushRanking(userID, username, snapshot.XP)

	return snapshot
}

// EndSession drops the in-memory aggregate for a signed-out user. The
// persisted copy remains.
func (s *ProgressService) EndSession(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

func (s *ProgressService) persistLocked(userID string, progress *models.PlayerProgress) {
	raw, err := json.Marshal(progress)
	if err != nil {
		s.log.Error("failed to encode player progress", "user_id", userID, "error", err)
		return
	}
	if err := s.kv.Set(progressKey(userID), raw); err != nil {
		// In-memory state stays ahead of storage until the next write
		// succeeds. A crash before then loses this increment.
		s.log.Error("failed to persist player progress", "user_id", userID, "error", err)
	}
}

func (s *ProgressService) pushRanking(userID, username string, xp int) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.ranker.Upsert(ctx, userID, username, xp); err != nil {
		s.log.Error("failed to update leaderboard", "user_id", userID, "error", err)
	}
}
