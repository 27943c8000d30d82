package topics

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"studynotes/models"
)

const (
	TopicColumn    = "Topic"
	SubtopicColumn = "Subtopic"
)

var ErrMissingColumns = errors.New("spreadsheet must have columns: Topic and Subtopic")

type Row struct {
	Topic    string
	Subtopic string
}

// ParseWorkbook reads the first sheet of an xlsx file. The header row must
// contain Topic and Subtopic; rows with a blank topic or subtopic are skipped
// and exact duplicate pairs are kept once.
func ParseWorkbook(path string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrMissingColumns
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrMissingColumns
	}

	topicCol, subtopicCol := -1, -1
	for i, header := range rows[0] {
		switch strings.TrimSpace(header) {
		case TopicColumn:
			if topicCol < 0 {
				topicCol = i
			}
		case SubtopicColumn:
			if subtopicCol < 0 {
				subtopicCol = i
			}
		}
	}
	if topicCol < 0 || subtopicCol < 0 {
		return nil, ErrMissingColumns
	}

	seen := make(map[Row]bool)
	var out []Row
	for _, cells := range rows[1:] {
		row := Row{
			Topic:    strings.TrimSpace(cell(cells, topicCol)),
			Subtopic: strings.TrimSpace(cell(cells, subtopicCol)),
		}
		if row.Topic == "" || row.Subtopic == "" || seen[row] {
			continue
		}
		seen[row] = true
		out = append(out, row)
	}
	return out, nil
}

// GetRows drops trailing empty cells, so short rows are common.
func cell(cells []string, i int) string {
	if i < len(cells) {
		return cells[i]
	}
	return ""
}

type ImportResult struct {
	Topics    int
	Subtopics int
}

// ReplaceAll swaps every topic and subtopic for rows in one transaction.
// Notes keep their content but lose their topic/subtopic references.
func ReplaceAll(db *gorm.DB, rows []Row) (ImportResult, error) {
	var result ImportResult

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Note{}).
			Where("topic_id IS NOT NULL OR subtopic_id IS NOT NULL").
			Updates(map[string]interface{}{"topic_id": nil, "subtopic_id": nil}).Error; err != nil {
			return fmt.Errorf("detach notes: %w", err)
		}

		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Subtopic{}).Error; err != nil {
			return fmt.Errorf("delete subtopics: %w", err)
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Topic{}).Error; err != nil {
			return fmt.Errorf("delete topics: %w", err)
		}

		topicIDs := make(map[string]int)
		for _, row := range rows {
			id, ok := topicIDs[row.Topic]
			if !ok {
				topic := models.Topic{Name: row.Topic}
				if err := tx.Create(&topic).Error; err != nil {
					return fmt.Errorf("create topic %q: %w", row.Topic, err)
				}
				id = topic.ID
				topicIDs[row.Topic] = id
				result.Topics++
			}

			subtopic := models.Subtopic{Name: row.Subtopic, TopicID: id}
			if err := tx.Create(&subtopic).Error; err != nil {
				return fmt.Errorf("create subtopic %q: %w", row.Subtopic, err)
			}
			result.Subtopics++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	return result, nil
}
