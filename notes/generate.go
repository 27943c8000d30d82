package notes

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"studynotes/cache"
	"studynotes/common"
	"studynotes/history"
	"studynotes/llm"
	"studynotes/models"
	"studynotes/prompts"
)

const (
	AnswerTypeCustom = "custom"
	AnswerTypeWord   = "Word Explanation"

	customPromptNameLen = 60
)

// responseView is what notes_response.html renders.
type responseView struct {
	Topic          string
	Subtopic       string
	AnswerType     string
	EditablePrompt string
	// Navigable is false for answers that are not part of the history.
	Navigable bool
}

// llmRequest reads the provider fields shared by every generating form.
func (m *NotesModule) llmRequest(c *gin.Context) (llm.Request, bool) {
	provider := strings.ToLower(strings.TrimSpace(c.PostForm("llm_provider")))
	if provider == "" {
		provider = m.llm.DefaultProvider()
	}
	if !llm.IsSupported(provider) {
		common.FlashRedirect(c, "Invalid LLM provider selected. Please choose OpenAI or Groq.", "/select")
		return llm.Request{}, false
	}

	return llm.Request{
		Provider: provider,
		APIKey:   strings.TrimSpace(c.PostForm("llm_api_key")),
		Model:    strings.TrimSpace(c.PostForm("llm_model")),
	}, true
}

// complete runs one adapter call and records it in usage analytics.
func (m *NotesModule) complete(c *gin.Context, req llm.Request, kind string) (*llm.Completion, error) {
	userID := common.CurrentUserID(c)

	out, err := m.llm.Complete(c.Request.Context(), req)
	if err != nil {
		provider := req.Provider
		var llmErr *llm.Error
		if errors.As(err, &llmErr) {
			provider = llmErr.Provider
		}
		m.usage.TrackGeneration(userID, provider, req.Model, kind, false, 0)
		return nil, err
	}

	m.usage.TrackGeneration(userID, out.Provider, out.Model, kind, true, out.Duration)
	return out, nil
}

func (m *NotesModule) generate(c *gin.Context) {
	userID := common.CurrentUserID(c)

	req, ok := m.llmRequest(c)
	if !ok {
		return
	}

	topic, subtopic, ok := m.loadSelection(c)
	if !ok {
		common.FlashRedirect(c, "Invalid topic or subtopic selected.", "/select")
		return
	}

	promptType := strings.TrimSpace(c.PostForm("prompt_type"))
	customPrompt := strings.TrimSpace(c.PostForm("custom_prompt"))
	if promptType == "" && customPrompt == "" {
		common.FlashRedirect(c, "Please select an answer type or enter a custom prompt.", "/select")
		return
	}

	var answerType string
	if customPrompt == "" {
		rendered, err := m.prompts.Render(promptType, topic.Name, subtopic.Name, strings.TrimSpace(c.PostForm("user_feedback")))
		if err != nil {
			m.log.Warn("prompt template unavailable", "prompt_type", promptType, "error", err)
			common.FlashRedirect(c, fmt.Sprintf("Prompt template '%s' not found.", promptType), "/select")
			return
		}
		req.Prompt = prompts.ForTemplate(topic.Name, subtopic.Name, promptType, strings.TrimSpace(rendered))
		answerType = promptType
	} else {
		req.Prompt = prompts.ForInstruction(topic.Name, subtopic.Name, customPrompt)
		m.rememberCustomPrompt(userID, customPrompt)
		answerType = AnswerTypeCustom
	}

	out, err := m.complete(c, req, answerType)
	if err != nil {
		common.FlashRedirect(c, err.Error(), "/select")
		return
	}

	session := sessions.Default(c)
	h := history.Load(session, m.historyLimit)
	h.Append(out.Text)
	if err := history.Save(session, h); err != nil {
		m.log.Error("error saving response history", "user_id", userID, "error", err)
	}
	session.Set(topicIDKey, topic.ID)
	session.Set(subtopicIDKey, subtopic.ID)
	session.Set(topicKey, topic.Name)
	session.Set(subtopicKey, subtopic.Name)
	session.Set(answerTypeKey, answerType)
	session.Set(lastPromptKey, req.Prompt)
	m.saveSession(c, session)

	m.renderResponse(c, h, out.Text, responseView{
		Topic:      topic.Name,
		Subtopic:   subtopic.Name,
		AnswerType: answerType,
		Navigable:  true,
	})
}

// loadSelection resolves topic_id and subtopic_id; the subtopic must belong
// to the topic.
func (m *NotesModule) loadSelection(c *gin.Context) (models.Topic, models.Subtopic, bool) {
	var topic models.Topic
	var subtopic models.Subtopic

	topicID, err := strconv.Atoi(c.PostForm("topic_id"))
	if err != nil {
		return topic, subtopic, false
	}
	subtopicID, err := strconv.Atoi(c.PostForm("subtopic_id"))
	if err != nil {
		return topic, subtopic, false
	}

	if err := m.db.First(&topic, topicID).Error; err != nil {
		return topic, subtopic, false
	}
	if err := m.db.Where("id = ? AND topic_id = ?", subtopicID, topic.ID).First(&subtopic).Error; err != nil {
		return topic, subtopic, false
	}
	return topic, subtopic, true
}

// rememberCustomPrompt stores an instruction once per user.
func (m *NotesModule) rememberCustomPrompt(userID int, text string) {
	hash := cache.Hash(text)

	var count int64
	err := m.db.Model(&models.CustomPrompt{}).
		Where("prompt_hash = ? AND user_id = ? AND prompt_text = ?", hash, userID, text).
		Count(&count).Error
	if err != nil {
		m.log.Error("error checking custom prompt", "user_id", userID, "error", err)
		return
	}
	if count > 0 {
		return
	}

	prompt := models.CustomPrompt{
		PromptName: promptName(text),
		PromptText: text,
		PromptHash: hash,
		AnswerType: AnswerTypeCustom,
		UserID:     &userID,
	}
	if err := m.db.Create(&prompt).Error; err != nil {
		m.log.Error("error saving custom prompt", "user_id", userID, "error", err)
	}
}

func promptName(text string) string {
	if utf8.RuneCountInString(text) <= customPromptNameLen {
		return text
	}
	return string([]rune(text)[:customPromptNameLen])
}

func (m *NotesModule) regenerate(c *gin.Context) {
	userID := common.CurrentUserID(c)
	session := sessions.Default(c)

	prompt := strings.TrimSpace(c.PostForm("custom_prompt"))
	if prompt == "" {
		prompt = sessionString(session, lastPromptKey)
	}
	if prompt == "" {
		common.FlashRedirect(c, "No prompt available to regenerate.", "/select")
		return
	}

	req, ok := m.llmRequest(c)
	if !ok {
		return
	}
	req.Prompt = prompt

	answerType := sessionString(session, answerTypeKey)
	out, err := m.complete(c, req, "regenerate")
	if err != nil {
		common.FlashRedirect(c, err.Error(), "/select")
		return
	}

	h := history.Load(session, m.historyLimit)
	h.Append(out.Text)
	if err := history.Save(session, h); err != nil {
		m.log.Error("error saving response history", "user_id", userID, "error", err)
	}
	session.Set(lastPromptKey, prompt)
	m.saveSession(c, session)

	m.renderResponse(c, h, out.Text, responseView{
		Topic:          sessionStringOr(session, topicKey, "N/A"),
		Subtopic:       sessionStringOr(session, subtopicKey, "N/A"),
		AnswerType:     answerType,
		EditablePrompt: prompt,
		Navigable:      true,
	})
}

func (m *NotesModule) wordExplanation(c *gin.Context) {
	word := strings.TrimSpace(c.PostForm("word"))
	if word == "" {
		common.FlashRedirect(c, "Please enter a word to explain.", "/select")
		return
	}

	req, ok := m.llmRequest(c)
	if !ok {
		return
	}
	req.Prompt = prompts.ForWord(word)

	out, err := m.complete(c, req, "word")
	if err != nil {
		common.FlashRedirect(c, err.Error(), "/select")
		return
	}

	session := sessions.Default(c)
	m.renderResponse(c, nil, out.Text, responseView{
		Topic:      sessionStringOr(session, topicKey, "N/A"),
		Subtopic:   sessionStringOr(session, subtopicKey, "N/A"),
		AnswerType: AnswerTypeWord,
	})
}

func (m *NotesModule) previousResponse(c *gin.Context) {
	m.navigate(c, (*history.History).Previous)
}

func (m *NotesModule) nextResponse(c *gin.Context) {
	m.navigate(c, (*history.History).Next)
}

func (m *NotesModule) navigate(c *gin.Context, move func(*history.History)) {
	session := sessions.Default(c)
	h := history.Load(session, m.historyLimit)
	if h.Empty() {
		common.FlashRedirect(c, "No responses yet", "/select")
		return
	}

	move(h)
	if err := history.Save(session, h); err != nil {
		m.log.Error("error saving response history", "user_id", common.CurrentUserID(c), "error", err)
	}
	m.saveSession(c, session)

	current, _ := h.Current()
	m.renderResponse(c, h, current, responseView{
		Topic:          sessionStringOr(session, topicKey, "N/A"),
		Subtopic:       sessionStringOr(session, subtopicKey, "N/A"),
		AnswerType:     sessionString(session, answerTypeKey),
		EditablePrompt: sessionString(session, lastPromptKey),
		Navigable:      true,
	})
}

func (m *NotesModule) renderResponse(c *gin.Context, h *history.History, text string, view responseView) {
	data := gin.H{
		"title":           "Response",
		"response":        text,
		"responseHTML":    renderMarkdown(text),
		"topic":           view.Topic,
		"subtopic":        view.Subtopic,
		"answerType":      view.AnswerType,
		"editablePrompt":  view.EditablePrompt,
		"providers":       llm.Providers,
		"defaultProvider": m.llm.DefaultProvider(),
		"hasPrevious":     false,
		"hasNext":         false,
		"flashes":         common.Flashes(c),
	}
	if view.Navigable && h != nil {
		data["hasPrevious"] = h.HasPrevious()
		data["hasNext"] = h.HasNext()
		data["position"] = h.Cursor + 1
		data["total"] = h.Len()
	}

	c.HTML(http.StatusOK, "notes_response.html", data)
}

func (m *NotesModule) saveSession(c *gin.Context, session sessions.Session) {
	if err := session.Save(); err != nil {
		m.log.Error("error saving session", "user_id", common.CurrentUserID(c), "error", err)
	}
}

func sessionString(session sessions.Session, key string) string {
	s, _ := session.Get(key).(string)
	return s
}

func sessionStringOr(session sessions.Session, key, fallback string) string {
	if s := sessionString(session, key); s != "" {
		return s
	}
	return fallback
}

func sessionInt(session sessions.Session, key string) (int, bool) {
	i, ok := session.Get(key).(int)
	return i, ok
}
