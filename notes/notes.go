// Package notes is the study workflow: pick a topic, generate an answer,
// step through earlier answers, save them and download the notebook.
package notes

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
	"gorm.io/gorm"

	"studynotes/analytics"
	"studynotes/cache"
	"studynotes/common"
	"studynotes/llm"
	"studynotes/logger"
	"studynotes/models"
	"studynotes/prompts"
	"studynotes/topics"
)

// Session keys describing the answer currently on screen.
const (
	topicIDKey    = "topic_id"
	subtopicIDKey = "subtopic_id"
	topicKey      = "topic"
	subtopicKey   = "subtopic"
	answerTypeKey = "answer_type"
	lastPromptKey = "last_prompt"
)

type NotesModule struct {
	db           *gorm.DB
	log          *logger.Logger
	llm          *llm.Client
	prompts      *prompts.Renderer
	usage        *analytics.UsageModule
	exports      *cache.ExportCache
	historyLimit int
}

type Options struct {
	LLM          *llm.Client
	Prompts      *prompts.Renderer
	Usage        *analytics.UsageModule
	Exports      *cache.ExportCache
	HistoryLimit int
}

func NewNotesModule(db *gorm.DB, log *logger.Logger, opts Options) *NotesModule {
	return &NotesModule{
		db:           db,
		log:          log,
		llm:          opts.LLM,
		prompts:      opts.Prompts,
		usage:        opts.Usage,
		exports:      opts.Exports,
		historyLimit: opts.HistoryLimit,
	}
}

func (m *NotesModule) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/")
	group.Use(common.RequireAuth)
	{
		group.GET("/select", m.selectPage)
		group.POST("/generate", m.generate)
		group.POST("/regenerate_custom", m.regenerate)
		group.POST("/word_explanation", m.wordExplanation)
		group.GET("/previous_response", m.previousResponse)
		group.GET("/next_response", m.nextResponse)
		group.POST("/save", m.save)
		group.GET("/notebook", m.notebook)
		group.GET("/notebook/download/:filetype", m.downloadNotebook)
		group.GET("/download/:note_id/:filetype", m.downloadNote)
	}
}

func (m *NotesModule) selectPage(c *gin.Context) {
	userID := common.CurrentUserID(c)

	topicList, err := topics.ListTopics(m.db)
	if err != nil {
		m.log.Error("error loading topics", "error", err)
	}

	var customPrompts []models.CustomPrompt
	if err := m.db.Where("user_id = ?", userID).Order("id DESC").Find(&customPrompts).Error; err != nil {
		m.log.Error("error loading custom prompts", "user_id", userID, "error", err)
	}

	c.HTML(http.StatusOK, "notes_select.html", gin.H{
		"title":           "Choose a topic",
		"topics":          topicList,
		"promptTypes":     m.prompts.Types(),
		"customPrompts":   customPrompts,
		"providers":       llm.Providers,
		"defaultProvider": m.llm.DefaultProvider(),
		"flashes":         common.Flashes(c),
	})
}

// renderMarkdown converts note or answer text to HTML. Raw HTML in the
// source is not passed through.
func renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}
