package notes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"studynotes/cache"
	"studynotes/common"
	"studynotes/config"
	"studynotes/llm"
	"studynotes/logger"
	"studynotes/models"
	"studynotes/prompts"
)

func setupTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	db.AutoMigrate(&models.User{}, &models.Topic{}, &models.Subtopic{}, &models.Notebook{}, &models.Note{}, &models.CustomPrompt{})
	return db
}

// fakeLLM answers with replies in order and remembers the prompts it got.
type fakeLLM struct {
	replies []string
	err     error
	prompts []string
	calls   int
}

func (f *fakeLLM) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.prompts = append(f.prompts, in[len(in)-1].Content)
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	reply := "answer " + strconv.Itoa(f.calls)
	if len(f.replies) > 0 {
		reply = f.replies[0]
		f.replies = f.replies[1:]
	}
	return schema.AssistantMessage(reply, nil), nil
}

func (f *fakeLLM) factory(ctx context.Context, cfg *openai.ChatModelConfig) (llm.Generator, error) {
	return f, nil
}

type fixture struct {
	t       *testing.T
	db      *gorm.DB
	llm     *fakeLLM
	router  *gin.Engine
	cookies []*http.Cookie
	exports *cache.ExportCache

	topic    models.Topic
	subtopic models.Subtopic
	user     models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, func(*gorm.DB) sessions.Store {
		return cookie.NewStore([]byte("secret"))
	})
}

// newFixtureWithStore builds the router around the session store returned by
// newStore for the fixture's database.
func newFixtureWithStore(t *testing.T, newStore func(*gorm.DB) sessions.Store) *fixture {
	t.Helper()
	db := setupTestDB()

	templates := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(templates, "definition.txt"),
		[]byte("Define {{subtopic}} within {{topic}}. {{user_feedback}}"), 0644))

	fake := &fakeLLM{}
	client := llm.NewClient(config.LLMConfig{
		DefaultProvider: "openai",
		Timeout:         time.Minute,
		Providers: map[string]config.ProviderConfig{
			"openai": {APIKey: "sk-test", Model: "gpt-4"},
			"groq":   {Model: "llama"},
		},
	}, logger.Nop()).WithFactory(fake.factory)

	exports := cache.NewExportCache(t.TempDir(), time.Hour)

	module := NewNotesModule(db, logger.Nop(), Options{
		LLM:          client,
		Prompts:      prompts.NewRenderer(templates),
		Exports:      exports,
		HistoryLimit: 20,
	})

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(sessions.Sessions("test-session", newStore(db)))
	router.LoadHTMLGlob("views/*.html")
	router.GET("/test-login/:id", func(c *gin.Context) {
		id, _ := strconv.Atoi(c.Param("id"))
		s := sessions.Default(c)
		s.Clear()
		s.Set("user_id", id)
		_ = s.Save()
		c.Status(http.StatusOK)
	})
	module.RegisterRoutes(router)

	f := &fixture{t: t, db: db, llm: fake, router: router, exports: exports}

	f.user = models.User{Username: "ana", Email: "ana@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&f.user).Error)
	f.topic = models.Topic{Name: "Math"}
	require.NoError(t, db.Create(&f.topic).Error)
	f.subtopic = models.Subtopic{Name: "Algebra", TopicID: f.topic.ID}
	require.NoError(t, db.Create(&f.subtopic).Error)

	f.login(f.user.ID)
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range f.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	if rc := w.Result().Cookies(); len(rc) > 0 {
		f.cookies = rc
	}
	return w
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", path, nil)
	return f.do(req)
}

func (f *fixture) post(path string, form url.Values) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.do(req)
}

func (f *fixture) login(userID int) {
	f.cookies = nil
	f.get("/test-login/" + strconv.Itoa(userID))
}

func (f *fixture) generateForm(extra url.Values) url.Values {
	form := url.Values{
		"topic_id":    {strconv.Itoa(f.topic.ID)},
		"subtopic_id": {strconv.Itoa(f.subtopic.ID)},
	}
	for k, v := range extra {
		form[k] = v
	}
	return form
}

// flashes returns the next rendered page, which drains the queued messages.
func (f *fixture) flashes() string {
	return f.get("/select").Body.String()
}

func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, location, w.Header().Get("Location"))
}

func TestRoutes_RequireLogin(t *testing.T) {
	f := newFixture(t)
	f.cookies = nil

	for _, path := range []string{"/select", "/notebook", "/previous_response", "/next_response", "/notebook/download/txt", "/download/1/txt"} {
		w := f.get(path)
		assertRedirect(t, w, "/login")
	}
	assertRedirect(t, f.post("/generate", f.generateForm(nil)), "/login")
	assert.Equal(t, 0, f.llm.calls)
}

func TestSelectPage(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Create(&models.CustomPrompt{PromptName: "Three examples", PromptText: "Give three examples", AnswerType: "custom", UserID: &f.user.ID}).Error)

	w := f.get("/select")

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Math")
	assert.Contains(t, body, `value="definition"`)
	assert.Contains(t, body, "Three examples")
	assert.Contains(t, body, `value="groq"`)
}

func TestGenerate_Template(t *testing.T) {
	f := newFixture(t)
	f.llm.replies = []string{"Algebra is **symbolic** arithmetic."}

	w := f.post("/generate", f.generateForm(url.Values{"prompt_type": {"definition"}, "user_feedback": {"Keep it short."}}))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<strong>symbolic</strong>")
	assert.Contains(t, w.Body.String(), "Response 1 of 1")

	require.Len(t, f.llm.prompts, 1)
	assert.Equal(t, prompts.ForTemplate("Math", "Algebra", "definition", "Define Algebra within Math. Keep it short."), f.llm.prompts[0])
}

func TestGenerate_InvalidProvider(t *testing.T) {
	f := newFixture(t)

	w := f.post("/generate", f.generateForm(url.Values{"prompt_type": {"definition"}, "llm_provider": {"sql-injection"}}))

	assertRedirect(t, w, "/select")
	assert.Equal(t, 0, f.llm.calls)
	assert.Contains(t, f.flashes(), "Invalid LLM provider selected")
}

func TestGenerate_InvalidSelection(t *testing.T) {
	f := newFixture(t)
	other := models.Topic{Name: "Physics"}
	require.NoError(t, f.db.Create(&other).Error)

	cases := map[string]url.Values{
		"unknown topic":            {"topic_id": {"999"}, "subtopic_id": {strconv.Itoa(f.subtopic.ID)}, "prompt_type": {"definition"}},
		"unknown subtopic":         {"topic_id": {strconv.Itoa(f.topic.ID)}, "subtopic_id": {"999"}, "prompt_type": {"definition"}},
		"subtopic of other topic":  {"topic_id": {strconv.Itoa(other.ID)}, "subtopic_id": {strconv.Itoa(f.subtopic.ID)}, "prompt_type": {"definition"}},
		"non numeric":              {"topic_id": {"abc"}, "subtopic_id": {"1"}, "prompt_type": {"definition"}},
	}
	for name, form := range cases {
		t.Run(name, func(t *testing.T) {
			w := f.post("/generate", form)
			assertRedirect(t, w, "/select")
			assert.Contains(t, f.flashes(), "Invalid topic or subtopic selected.")
		})
	}
	assert.Equal(t, 0, f.llm.calls)
}

func TestGenerate_NeedsPromptTypeOrCustomPrompt(t *testing.T) {
	f := newFixture(t)

	w := f.post("/generate", f.generateForm(nil))

	assertRedirect(t, w, "/select")
	assert.Contains(t, f.flashes(), "Please select an answer type or enter a custom prompt.")
	assert.Equal(t, 0, f.llm.calls)
}

func TestGenerate_MissingTemplate(t *testing.T) {
	f := newFixture(t)

	w := f.post("/generate", f.generateForm(url.Values{"prompt_type": {"interview"}}))

	assertRedirect(t, w, "/select")
	body := f.flashes()
	assert.Contains(t, body, "interview")
	assert.Contains(t, body, "not found")
	assert.Equal(t, 0, f.llm.calls)
}

func TestGenerate_CustomPromptStoredOnce(t *testing.T) {
	f := newFixture(t)
	form := f.generateForm(url.Values{"custom_prompt": {"Give three examples"}, "prompt_type": {"definition"}})

	require.Equal(t, http.StatusOK, f.post("/generate", form).Code)
	require.Equal(t, http.StatusOK, f.post("/generate", form).Code)

	var stored []models.CustomPrompt
	require.NoError(t, f.db.Find(&stored).Error)
	require.Len(t, stored, 1)
	assert.Equal(t, "Give three examples", stored[0].PromptText)
	assert.Equal(t, AnswerTypeCustom, stored[0].AnswerType)
	assert.Equal(t, cache.Hash("Give three examples"), stored[0].PromptHash)
	require.NotNil(t, stored[0].UserID)
	assert.Equal(t, f.user.ID, *stored[0].UserID)

	assert.Equal(t, prompts.ForInstruction("Math", "Algebra", "Give three examples"), f.llm.prompts[0])
}

func TestPromptName(t *testing.T) {
	assert.Equal(t, "short", promptName("short"))
	long := strings.Repeat("é", 80)
	assert.Equal(t, strings.Repeat("é", 60), promptName(long))
}

func TestGenerate_LLMFailureLeavesHistoryAlone(t *testing.T) {
	f := newFixture(t)
	f.llm.err = errors.New("upstream exploded")

	w := f.post("/generate", f.generateForm(url.Values{"prompt_type": {"definition"}}))

	assertRedirect(t, w, "/select")
	assert.Contains(t, f.flashes(), "upstream exploded")

	assertRedirect(t, f.get("/previous_response"), "/select")
	assert.Contains(t, f.flashes(), "No responses yet")
}

func TestGenerate_MissingKeyForGroq(t *testing.T) {
	f := newFixture(t)

	w := f.post("/generate", f.generateForm(url.Values{"prompt_type": {"definition"}, "llm_provider": {"groq"}}))

	assertRedirect(t, w, "/select")
	assert.Contains(t, f.flashes(), "Groq")
	assert.Equal(t, 0, f.llm.calls)
}

func TestNavigation(t *testing.T) {
	f := newFixture(t)
	f.llm.replies = []string{"first answer", "second answer"}
	form := f.generateForm(url.Values{"prompt_type": {"definition"}})
	f.post("/generate", form)
	f.post("/generate", form)

	w := f.get("/previous_response")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "first answer")
	assert.Contains(t, w.Body.String(), "Response 1 of 2")

	w = f.get("/previous_response")
	assert.Contains(t, w.Body.String(), "first answer", "previous at the start is a no-op")
	assert.NotContains(t, w.Body.String(), `href="/previous_response"`)

	w = f.get("/next_response")
	assert.Contains(t, w.Body.String(), "second answer")

	w = f.get("/next_response")
	assert.Contains(t, w.Body.String(), "second answer", "next at the end is a no-op")
	assert.NotContains(t, w.Body.String(), `href="/next_response"`)
}

func TestNavigation_DatabaseSessionsKeepLongAnswers(t *testing.T) {
	f := newFixtureWithStore(t, func(db *gorm.DB) sessions.Store {
		return common.NewSessionStore(db, []byte("secret"), false, false)
	})
	first := strings.Repeat("first ", 600)
	second := strings.Repeat("second ", 600)
	f.llm.replies = []string{first, second}
	form := f.generateForm(url.Values{"prompt_type": {"definition"}})

	require.Equal(t, http.StatusOK, f.post("/generate", form).Code)
	require.Equal(t, http.StatusOK, f.post("/generate", form).Code)

	w := f.get("/previous_response")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), strings.TrimSpace(first))
	assert.Contains(t, w.Body.String(), "Response 1 of 2")

	w = f.get("/next_response")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), strings.TrimSpace(second))

	f.post("/save", url.Values{"note": {"kept"}})
	var note models.Note
	require.NoError(t, f.db.First(&note).Error)
	assert.Equal(t, "definition", note.NoteType)
	require.NotNil(t, note.TopicID)
	assert.Equal(t, f.topic.ID, *note.TopicID)
}

func TestNavigation_EmptyHistory(t *testing.T) {
	f := newFixture(t)

	assertRedirect(t, f.get("/next_response"), "/select")
	assert.Contains(t, f.flashes(), "No responses yet")
}

func TestRegenerate(t *testing.T) {
	f := newFixture(t)
	f.llm.replies = []string{"one", "two", "three"}

	assertRedirect(t, f.post("/regenerate_custom", url.Values{}), "/select")
	assert.Contains(t, f.flashes(), "No prompt available to regenerate.")

	f.post("/generate", f.generateForm(url.Values{"prompt_type": {"definition"}}))
	w := f.post("/regenerate_custom", url.Values{})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "two")
	assert.Contains(t, w.Body.String(), "Response 2 of 2")
	assert.Equal(t, f.llm.prompts[0], f.llm.prompts[1], "reuses the last prompt")

	w = f.post("/regenerate_custom", url.Values{"custom_prompt": {"Explain it like I'm five"}})
	assert.Contains(t, w.Body.String(), "three")
	assert.Equal(t, "Explain it like I'm five", f.llm.prompts[2])

	f.post("/regenerate_custom", url.Values{})
	assert.Equal(t, "Explain it like I'm five", f.llm.prompts[3], "edited prompt becomes the last prompt")
}

func TestWordExplanation(t *testing.T) {
	f := newFixture(t)
	f.llm.replies = []string{"Entropy is disorder."}

	assertRedirect(t, f.post("/word_explanation", url.Values{"word": {"  "}}), "/select")
	assert.Contains(t, f.flashes(), "Please enter a word to explain.")

	w := f.post("/word_explanation", url.Values{"word": {"entropy"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Entropy is disorder.")
	assert.Contains(t, w.Body.String(), AnswerTypeWord)
	assert.Equal(t, prompts.ForWord("entropy"), f.llm.prompts[0])

	assertRedirect(t, f.get("/previous_response"), "/select")
}

func TestSave_CreatesSingleDefaultNotebook(t *testing.T) {
	f := newFixture(t)
	f.post("/generate", f.generateForm(url.Values{"prompt_type": {"definition"}}))

	w := f.post("/save", url.Values{"note": {"first note"}})
	assertRedirect(t, w, "/notebook")
	f.post("/save", url.Values{"note": {"second note"}, "note_type": {AnswerTypeWord}})

	var notebooks []models.Notebook
	require.NoError(t, f.db.Where("user_id = ?", f.user.ID).Find(&notebooks).Error)
	require.Len(t, notebooks, 1)
	assert.Equal(t, DefaultNotebookTitle, notebooks[0].Title)

	var notes []models.Note
	require.NoError(t, f.db.Order("id ASC").Find(&notes).Error)
	require.Len(t, notes, 2)
	assert.Equal(t, "first note", notes[0].Content)
	assert.Equal(t, "definition", notes[0].NoteType)
	require.NotNil(t, notes[0].TopicID)
	assert.Equal(t, f.topic.ID, *notes[0].TopicID)
	require.NotNil(t, notes[0].SubtopicID)
	assert.Equal(t, f.subtopic.ID, *notes[0].SubtopicID)
	assert.Equal(t, AnswerTypeWord, notes[1].NoteType)
}

func TestSave_EmptyNote(t *testing.T) {
	f := newFixture(t)

	assertRedirect(t, f.post("/save", url.Values{"note": {"   "}}), "/select")

	var count int64
	f.db.Model(&models.Note{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestSave_TopicDeletedMeanwhile(t *testing.T) {
	f := newFixture(t)
	f.post("/generate", f.generateForm(url.Values{"prompt_type": {"definition"}}))
	require.NoError(t, f.db.Delete(&models.Subtopic{}, f.subtopic.ID).Error)

	f.post("/save", url.Values{"note": {"kept"}})

	var note models.Note
	require.NoError(t, f.db.First(&note).Error)
	assert.NotNil(t, note.TopicID)
	assert.Nil(t, note.SubtopicID)
}

func TestDefaultNotebook_Idempotent(t *testing.T) {
	db := setupTestDB()

	first, err := DefaultNotebook(db, 3)
	require.NoError(t, err)
	second, err := DefaultNotebook(db, 3)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Error(t, db.Create(&models.Notebook{UserID: 3, Title: DefaultNotebookTitle}).Error)
}

func TestDefaultNotebook_InsideTransaction(t *testing.T) {
	db := setupTestDB()
	existing, err := DefaultNotebook(db, 4)
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		notebook, err := DefaultNotebook(tx, 4)
		if err != nil {
			return err
		}
		assert.Equal(t, existing.ID, notebook.ID)
		return tx.Create(&models.Note{Content: "inside", NotebookID: notebook.ID}).Error
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Note{}).Where("notebook_id = ?", existing.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSave_TopicLookupFailure(t *testing.T) {
	f := newFixture(t)
	f.post("/generate", f.generateForm(url.Values{"prompt_type": {"definition"}}))
	require.NoError(t, f.db.Migrator().DropTable(&models.Subtopic{}))

	assertRedirect(t, f.post("/save", url.Values{"note": {"orphan"}}), "/select")
	assert.Contains(t, f.flashes(), "Could not save the note.")

	var count int64
	require.NoError(t, f.db.Model(&models.Note{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestGenerate_CustomPromptLookupFailure(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Migrator().DropTable(&models.CustomPrompt{}))

	w := f.post("/generate", f.generateForm(url.Values{"custom_prompt": {"Give three examples"}}))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, f.llm.calls)
}

func (f *fixture) saveNotes(contents ...string) {
	for _, c := range contents {
		w := f.post("/save", url.Values{"note": {c}})
		require.Equal(f.t, http.StatusFound, w.Code)
	}
	f.flashes()
}

func TestNotebookPage(t *testing.T) {
	f := newFixture(t)
	f.post("/generate", f.generateForm(url.Values{"prompt_type": {"definition"}}))
	f.saveNotes("# Heading\n\nSome *text*")

	w := f.get("/notebook")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<h1>Heading</h1>")
	assert.Contains(t, body, "<em>text</em>")
	assert.Contains(t, body, "Math")
	assert.Contains(t, body, "Algebra")
}

func TestNotebookPage_Empty(t *testing.T) {
	f := newFixture(t)

	w := f.get("/notebook")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Your notebook is empty.")
}

func TestDownloadNotebook_TXT(t *testing.T) {
	f := newFixture(t)
	f.saveNotes("A", "B")

	w := f.get("/notebook/download/txt")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "A\n\n---\n\nB", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Equal(t, `attachment; filename="notebook.txt"`, w.Header().Get("Content-Disposition"))
}

func TestDownloadNotebook_PDFCached(t *testing.T) {
	f := newFixture(t)
	f.saveNotes("Café notes")

	w := f.get("/notebook/download/pdf")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF-"))
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	w = f.get("/notebook/download/pdf")
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	f.saveNotes("more")
	w = f.get("/notebook/download/pdf")
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"), "saving a note invalidates the cache")
}

func TestDownloadNotebook_UnsupportedFormat(t *testing.T) {
	f := newFixture(t)
	f.saveNotes("A")

	w := f.get("/notebook/download/docx")

	assertRedirect(t, w, "/notebook")
	assert.Empty(t, w.Header().Get("Content-Disposition"))
	assert.Contains(t, f.get("/notebook").Body.String(), "Unsupported format")
}

func TestDownloadNotebook_NoNotes(t *testing.T) {
	f := newFixture(t)

	assertRedirect(t, f.get("/notebook/download/txt"), "/notebook")
	assert.Contains(t, f.get("/notebook").Body.String(), "No notes available to download.")
}

func TestDownloadNote(t *testing.T) {
	f := newFixture(t)
	f.post("/generate", f.generateForm(url.Values{"prompt_type": {"definition"}}))
	f.saveNotes("just this one")

	var note models.Note
	require.NoError(t, f.db.First(&note).Error)

	w := f.get("/download/" + strconv.Itoa(note.ID) + "/txt")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "just this one", w.Body.String())
	assert.Equal(t, `attachment; filename="Math_Algebra.txt"`, w.Header().Get("Content-Disposition"))

	w = f.get("/download/" + strconv.Itoa(note.ID) + "/pdf")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF-"))
}

func TestDownloadNote_OtherUser(t *testing.T) {
	f := newFixture(t)
	f.saveNotes("private")
	var note models.Note
	require.NoError(t, f.db.First(&note).Error)

	intruder := models.User{Username: "eve", Email: "eve@example.com", PasswordHash: "x"}
	require.NoError(t, f.db.Create(&intruder).Error)
	f.login(intruder.ID)

	w := f.get("/download/" + strconv.Itoa(note.ID) + "/txt")

	assertRedirect(t, w, "/notebook")
	assert.NotContains(t, w.Body.String(), "private")
	assert.Contains(t, f.get("/notebook").Body.String(), "Note not found or access denied")

	assertRedirect(t, f.get("/download/9999/txt"), "/notebook")
	assertRedirect(t, f.get("/download/abc/txt"), "/notebook")
}

func TestDownloadNote_UnsupportedFormat(t *testing.T) {
	f := newFixture(t)
	f.saveNotes("x")
	var note models.Note
	require.NoError(t, f.db.First(&note).Error)

	assertRedirect(t, f.get("/download/"+strconv.Itoa(note.ID)+"/docx"), "/notebook")
}

func TestNoteFilename(t *testing.T) {
	assert.Equal(t, "note_4", noteFilename(&models.Note{ID: 4}))
	assert.Equal(t, "Linear_Algebra_Vector_spaces", noteFilename(&models.Note{
		ID:       5,
		Topic:    &models.Topic{Name: "Linear Algebra"},
		Subtopic: &models.Subtopic{Name: "Vector spaces"},
	}))
	assert.Equal(t, "note_6", noteFilename(&models.Note{
		ID:       6,
		Topic:    &models.Topic{Name: "日本"},
		Subtopic: &models.Subtopic{Name: "語"},
	}))
}
