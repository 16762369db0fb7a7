package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wisp-app/wisp-server/internal/database"
	"github.com/wisp-app/wisp-server/internal/logger"
	"github.com/wisp-app/wisp-server/internal/models"
)

// Publisher pushes feed events to connected clients. The websocket hub
// satisfies it.
type Publisher interface {
	Broadcast(message []byte)
}

type nopPublisher struct{}

func (nopPublisher) Broadcast([]byte) {}

// ActivityService records feed rows and mirrors them onto the live feed.
// Recording is best-effort: a failed insert is logged and gameplay
// continues.
type ActivityService struct {
	db  *database.DB
	pub Publisher
	log *logger.Logger
}

func NewActivityService(db *database.DB, pub Publisher, log *logger.Logger) *ActivityService {
	if pub == nil {
		pub = nopPublisher{}
	}
	return &ActivityService{db: db, pub: pub, log: log}
}

// Record inserts one activity row and broadcasts it.
func (s *ActivityService) Record(userID, activityType, title, details, icon string) {
	activity := models.Activity{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      activityType,
		Title:     title,
		Details:   details,
		Icon:      icon,
		CreatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO activities (id, user_id, type, title, details, icon, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, activity.ID, activity.UserID, activity.Type,
		activity.Title, activity.Details, activity.Icon, activity.CreatedAt)
	if err != nil {
		s.log.Error("failed to record activity", "user_id", userID, "type", activityType, "error", err)
		return
	}

	if raw, err := json.Marshal(activity); err == nil {
		s.pub.Broadcast(raw)
	}
}

// Recent returns the latest activity rows for a user, newest first.
func (s *ActivityService) Recent(userID string, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 10
	}

	var activities []models.Activity
	query := `
		SELECT id, user_id, type, title, details, icon, created_at
		FROM activities
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`
	if err := s.db.Select(&activities, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to get recent activities: %w", err)
	}
	return activities, nil
}
