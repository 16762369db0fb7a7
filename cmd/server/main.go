// cmd/server/main.go
package main

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/wisp-app/wisp-server/config"
	"github.com/wisp-app/wisp-server/internal/api"
	"github.com/wisp-app/wisp-server/internal/auth"
	"github.com/wisp-app/wisp-server/internal/database"
	"github.com/wisp-app/wisp-server/internal/leaderboard"
	"github.com/wisp-app/wisp-server/internal/logger"
	"github.com/wisp-app/wisp-server/internal/models"
	"github.com/wisp-app/wisp-server/internal/services"
	"github.com/wisp-app/wisp-server/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer log.Sync()

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatal("failed to initialize database", "error", err)
	}
	defer db.Close()
	log.Info("database ready", "path", cfg.Database.Path)

	if n, err := db.Seed(cfg.ContentPack.Dir); err != nil {
		log.Warn("content seeding incomplete", "dir", cfg.ContentPack.Dir, "error", err)
	} else if n > 0 {
		log.Info("seeded content packs", "rows", n)
	}

	var ranker leaderboard.Ranker = leaderboard.NopRanker{}
	if cfg.Redis.Addr != "" {
		redisRanker, err := leaderboard.NewRedisRanker(cfg.Redis.Addr)
		if err != nil {
			log.Warn("leaderboard disabled, redis unreachable", "addr", cfg.Redis.Addr, "error", err)
		} else {
			defer redisRanker.Close()
			ranker = redisRanker
			log.Info("leaderboard connected", "addr", cfg.Redis.Addr)
		}
	}

	sessions := auth.New(cfg.Auth.SessionSecret)
	hub := websocket.NewHub(log)

	storyService := services.NewStoryService(db)
	activityService := services.NewActivityService(db, hub, log)
	progressService := services.NewProgressService(database.NewBlobStore(db), ranker, log)
	progressService.OnLevelUp = func(userID string, level int) {
		activityService.Record(userID, models.ActivityLevelUp,
			fmt.Sprintf("Reached level %d", level), "", "star")
	}
	questService := services.NewQuestService(db, progressService, storyService, activityService)
	achievementService := services.NewAchievementService(storyService)

	handler := api.NewHandler(storyService, questService, progressService,
		achievementService, activityService, ranker, sessions, log)

	r := mux.NewRouter()

	// Public routes
	r.HandleFunc("/session", sessions.BeginHandler).Methods("POST")
	r.HandleFunc("/logout", sessions.EndHandler(progressService.EndSession)).Methods("POST")
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	// Authenticated routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(sessions.RequireUser)

	apiRouter := authRouter.PathPrefix("/api/v1").Subrouter()
	api.RegisterRoutes(apiRouter, handler)

	websocket.RegisterRoutes(authRouter, hub)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	log.Info("wisp server starting", "addr", cfg.Server.Addr)
	if err := http.ListenAndServe(cfg.Server.Addr, c.Handler(r)); err != nil {
		log.Fatal("server exited", "error", err)
	}
}
