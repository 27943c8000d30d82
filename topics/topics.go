// Package topics serves the topic catalogue and its spreadsheet import.
package topics

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"studynotes/common"
	"studynotes/logger"
	"studynotes/models"
)

type TopicsModule struct {
	db        *gorm.DB
	log       *logger.Logger
	uploadDir string
}

func NewTopicsModule(db *gorm.DB, log *logger.Logger, uploadDir string) *TopicsModule {
	if uploadDir == "" {
		uploadDir = os.TempDir()
	}
	return &TopicsModule{db: db, log: log, uploadDir: uploadDir}
}

func (m *TopicsModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/subtopics/:topicId", common.RequireAuth, m.subtopics)
	router.POST("/upload_excel", common.RequireAuth, m.uploadExcel)
}

// ListTopics returns every topic ordered by name.
func ListTopics(db *gorm.DB) ([]models.Topic, error) {
	var topics []models.Topic
	err := db.Order("name ASC").Find(&topics).Error
	return topics, err
}

type subtopicJSON struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (m *TopicsModule) subtopics(c *gin.Context) {
	topicID, err := strconv.Atoi(c.Param("topicId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid topic id"})
		return
	}

	var subtopics []models.Subtopic
	if err := m.db.Where("topic_id = ?", topicID).Order("name ASC").Find(&subtopics).Error; err != nil {
		m.log.Error("error loading subtopics", "topic_id", topicID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load subtopics"})
		return
	}

	out := make([]subtopicJSON, 0, len(subtopics))
	for _, s := range subtopics {
		out = append(out, subtopicJSON{ID: s.ID, Name: s.Name})
	}
	c.JSON(http.StatusOK, gin.H{"subtopics": out})
}

func (m *TopicsModule) uploadExcel(c *gin.Context) {
	file, err := c.FormFile("excel_file")
	if err != nil {
		common.FlashRedirect(c, "No file part", "/select")
		return
	}
	if file.Filename == "" {
		common.FlashRedirect(c, "No selected file", "/select")
		return
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".xlsx") {
		common.FlashRedirect(c, "Only .xlsx files are supported", "/select")
		return
	}

	path := filepath.Join(m.uploadDir, fmt.Sprintf("upload-%s.xlsx", uuid.NewString()))
	if err := c.SaveUploadedFile(file, path); err != nil {
		m.log.Error("error saving upload", "error", err)
		common.FlashRedirect(c, "Could not save the uploaded file", "/select")
		return
	}
	defer os.Remove(path)

	rows, err := ParseWorkbook(path)
	if err != nil {
		if errors.Is(err, ErrMissingColumns) {
			common.FlashRedirect(c, "Excel must have columns: Topic and Subtopic", "/select")
			return
		}
		m.log.Warn("unreadable workbook", "file", file.Filename, "error", err)
		common.FlashRedirect(c, "Error processing file: "+err.Error(), "/select")
		return
	}

	result, err := ReplaceAll(m.db, rows)
	if err != nil {
		m.log.Error("topic import failed", "error", err)
		common.FlashRedirect(c, "Error processing file: "+err.Error(), "/select")
		return
	}

	m.log.Info("topics imported",
		"user_id", common.CurrentUserID(c),
		"topics", result.Topics,
		"subtopics", result.Subtopics,
	)
	common.FlashRedirect(c, fmt.Sprintf("Topics and Subtopics updated successfully! (%d topics, %d subtopics)", result.Topics, result.Subtopics), "/select")
}
