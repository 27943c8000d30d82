package notes

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"studynotes/common"
	"studynotes/export"
	"studynotes/models"
)

const DefaultNotebookTitle = "Default"

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// DefaultNotebook returns the user's default notebook, creating it on first
// use. The (user_id, title) unique index keeps it single. The create runs in
// a nested transaction so a failed insert rolls back to a savepoint and
// leaves tx usable.
func DefaultNotebook(tx *gorm.DB, userID int) (*models.Notebook, error) {
	notebook := models.Notebook{UserID: userID, Title: DefaultNotebookTitle}
	err := tx.Transaction(func(inner *gorm.DB) error {
		return inner.Where("user_id = ? AND title = ?", userID, DefaultNotebookTitle).
			FirstOrCreate(&notebook).Error
	})
	if err != nil {
		// lost a race with a concurrent create
		notebook = models.Notebook{}
		if retry := tx.Where("user_id = ? AND title = ?", userID, DefaultNotebookTitle).First(&notebook).Error; retry != nil {
			return nil, err
		}
	}
	return &notebook, nil
}

// findDefaultNotebook never creates.
func (m *NotesModule) findDefaultNotebook(userID int) (*models.Notebook, error) {
	var notebook models.Notebook
	err := m.db.Where("user_id = ? AND title = ?", userID, DefaultNotebookTitle).First(&notebook).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &notebook, nil
}

func (m *NotesModule) notebookNotes(userID int) ([]models.Note, error) {
	notebook, err := m.findDefaultNotebook(userID)
	if err != nil || notebook == nil {
		return nil, err
	}

	var notes []models.Note
	err = m.db.Preload("Topic").Preload("Subtopic").
		Where("notebook_id = ?", notebook.ID).
		Order("created_at ASC, id ASC").
		Find(&notes).Error
	return notes, err
}

func (m *NotesModule) save(c *gin.Context) {
	userID := common.CurrentUserID(c)
	session := sessions.Default(c)

	content := strings.TrimSpace(c.PostForm("note"))
	if content == "" {
		common.FlashRedirect(c, "Note content is empty.", "/select")
		return
	}

	noteType := strings.TrimSpace(c.PostForm("note_type"))
	if noteType == "" {
		noteType = sessionString(session, answerTypeKey)
	}

	err := m.db.Transaction(func(tx *gorm.DB) error {
		notebook, err := DefaultNotebook(tx, userID)
		if err != nil {
			return err
		}

		note := models.Note{
			Content:    content,
			NoteType:   noteType,
			NotebookID: notebook.ID,
		}
		if id, ok := sessionInt(session, topicIDKey); ok {
			found, err := exists(tx, &models.Topic{}, id)
			if err != nil {
				return err
			}
			if found {
				note.TopicID = &id
			}
		}
		if id, ok := sessionInt(session, subtopicIDKey); ok {
			found, err := exists(tx, &models.Subtopic{}, id)
			if err != nil {
				return err
			}
			if found {
				note.SubtopicID = &id
			}
		}
		return tx.Create(&note).Error
	})
	if err != nil {
		m.log.Error("error saving note", "user_id", userID, "error", err)
		common.FlashRedirect(c, "Could not save the note.", "/select")
		return
	}

	if err := m.exports.ClearUser(userID); err != nil {
		m.log.Warn("error clearing export cache", "user_id", userID, "error", err)
	}

	common.FlashRedirect(c, "Note saved to your notebook.", "/notebook")
}

func exists(tx *gorm.DB, model interface{}, id int) (bool, error) {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

type noteView struct {
	ID        int
	HTML      template.HTML
	Topic     string
	Subtopic  string
	NoteType  string
	CreatedAt time.Time
}

func (m *NotesModule) notebook(c *gin.Context) {
	userID := common.CurrentUserID(c)

	notes, err := m.notebookNotes(userID)
	if err != nil {
		m.log.Error("error loading notebook", "user_id", userID, "error", err)
	}

	views := make([]noteView, 0, len(notes))
	for _, n := range notes {
		v := noteView{
			ID:        n.ID,
			HTML:      renderMarkdown(n.Content),
			NoteType:  n.NoteType,
			CreatedAt: n.CreatedAt,
		}
		if n.Topic != nil {
			v.Topic = n.Topic.Name
		}
		if n.Subtopic != nil {
			v.Subtopic = n.Subtopic.Name
		}
		views = append(views, v)
	}

	c.HTML(http.StatusOK, "notes_notebook.html", gin.H{
		"title":          "My Notebook",
		"notes":          views,
		"usageEnabled":   m.usage.Enabled(),
		"usageTotal":     m.usage.Total(userID),
		"usageProviders": m.usage.GetProviderCounts(userID),
		"flashes":        common.Flashes(c),
	})
}

func (m *NotesModule) downloadNotebook(c *gin.Context) {
	userID := common.CurrentUserID(c)
	filetype := c.Param("filetype")

	if !export.Supported(filetype) {
		common.FlashRedirect(c, "Unsupported format", "/notebook")
		return
	}

	notes, err := m.notebookNotes(userID)
	if err != nil {
		m.log.Error("error loading notebook", "user_id", userID, "error", err)
	}
	if len(notes) == 0 {
		common.FlashRedirect(c, "No notes available to download.", "/notebook")
		return
	}

	contents := make([]string, 0, len(notes))
	for _, n := range notes {
		contents = append(contents, n.Content)
	}

	m.send(c, userID, contents, filetype, "notebook")
}

func (m *NotesModule) downloadNote(c *gin.Context) {
	userID := common.CurrentUserID(c)

	note, ok := m.ownedNote(c.Param("note_id"), userID)
	if !ok {
		common.FlashRedirect(c, "Note not found or access denied", "/notebook")
		return
	}

	filetype := c.Param("filetype")
	if !export.Supported(filetype) {
		common.FlashRedirect(c, "Unsupported file type.", "/notebook")
		return
	}

	m.send(c, userID, []string{note.Content}, filetype, noteFilename(note))
}

// ownedNote loads a note only if it sits in one of userID's notebooks.
func (m *NotesModule) ownedNote(rawID string, userID int) (*models.Note, bool) {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return nil, false
	}

	var note models.Note
	if err := m.db.Preload("Topic").Preload("Subtopic").First(&note, id).Error; err != nil {
		return nil, false
	}

	var notebook models.Notebook
	if err := m.db.First(&notebook, note.NotebookID).Error; err != nil {
		return nil, false
	}
	if notebook.UserID != userID {
		m.log.Warn("note access denied", "user_id", userID, "note_id", id)
		return nil, false
	}
	return &note, true
}

func noteFilename(note *models.Note) string {
	if note.Topic == nil || note.Subtopic == nil {
		return fmt.Sprintf("note_%d", note.ID)
	}
	name := unsafeFilenameChars.ReplaceAllString(note.Topic.Name+"_"+note.Subtopic.Name, "_")
	name = strings.Trim(name, "_.")
	if name == "" {
		return fmt.Sprintf("note_%d", note.ID)
	}
	return name
}

// send writes contents as an attachment. PDFs are served from the export
// cache when possible.
func (m *NotesModule) send(c *gin.Context, userID int, contents []string, filetype, basename string) {
	joined := export.Join(contents)

	if filetype == export.FormatPDF {
		if data, ok := m.exports.Read(userID, joined, filetype); ok {
			c.Header("X-Cache", "HIT")
			m.attach(c, data, filetype, basename)
			return
		}
		c.Header("X-Cache", "MISS")
	}

	data, err := export.Render(contents, filetype)
	if err != nil {
		m.log.Error("export failed", "user_id", userID, "format", filetype, "error", err)
		common.FlashRedirect(c, "Could not generate the download.", "/notebook")
		return
	}

	if filetype == export.FormatPDF {
		if err := m.exports.Write(userID, joined, filetype, data); err != nil {
			m.log.Warn("error writing export cache", "user_id", userID, "error", err)
		}
	}

	m.attach(c, data, filetype, basename)
}

func (m *NotesModule) attach(c *gin.Context, data []byte, filetype, basename string) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, basename, filetype))
	c.Data(http.StatusOK, export.ContentType(filetype), data)
}
