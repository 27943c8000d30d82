package main

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"studynotes/analytics"
	"studynotes/auth"
	"studynotes/cache"
	"studynotes/common"
	"studynotes/config"
	"studynotes/database"
	"studynotes/llm"
	"studynotes/logger"
	"studynotes/metrics"
	"studynotes/notes"
	"studynotes/prompts"
	"studynotes/topics"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.SessionSecret == "" {
		log.Fatal("SESSION_SECRET environment variable not set")
	}

	db := common.ConnectDb(cfg, log)
	if db == nil {
		log.Fatal("failed to connect to database")
	}

	if err := database.RunMigrations(db, log); err != nil {
		log.Fatal("failed to run migrations", "error", err)
	}

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// server-side sessions: the response history does not fit in a cookie
	store := common.NewSessionStore(db, []byte(cfg.SessionSecret), cfg.Env == "production", true)
	router.Use(sessions.Sessions("studynotes-session", store))

	router.LoadHTMLGlob("*/views/*.html")

	exports := cache.NewExportCache(cfg.ExportCacheDir, cfg.ExportCacheMaxAge)
	if err := exports.ClearOld(); err != nil {
		log.Warn("error clearing old exports", "error", err)
	}

	usage := analytics.NewUsageModule(common.ConnectAnalyticsDb(cfg, log), log)

	auth.NewAuthModule(db, log).RegisterRoutes(router)
	topics.NewTopicsModule(db, log, cfg.UploadDir).RegisterRoutes(router)
	notes.NewNotesModule(db, log, notes.Options{
		LLM:          llm.NewClient(cfg.LLM, log),
		Prompts:      prompts.NewRenderer(cfg.PromptTemplatesDir),
		Usage:        usage,
		Exports:      exports,
		HistoryLimit: cfg.HistoryLimit,
	}).RegisterRoutes(router)
	usage.RegisterRoutes(router)

	router.GET("/metrics", metrics.Handler())

	log.Info("starting server", "port", cfg.Port, "llm_provider", cfg.LLM.DefaultProvider)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("failed to start server", "error", err)
	}
}
