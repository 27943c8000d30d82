package models

import "time"

type User struct {
	ID           int    `gorm:"primary_key;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null" json:"username"`
	Email        string `gorm:"unique;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
}

type Topic struct {
	ID        int        `gorm:"primary_key;autoIncrement" json:"id"`
	Name      string     `gorm:"unique;not null" json:"name"`
	Subtopics []Subtopic `json:"subtopics,omitempty"`
}

type Subtopic struct {
	ID      int    `gorm:"primary_key;autoIncrement" json:"id"`
	Name    string `gorm:"not null" json:"name"`
	TopicID int    `gorm:"not null;index" json:"topic_id"`
}

// Notebook titles are unique per user; the route layer only ever uses the
// "Default" one.
type Notebook struct {
	ID     int    `gorm:"primary_key;autoIncrement" json:"id"`
	Title  string `gorm:"not null;uniqueIndex:idx_notebook_user_title" json:"title"`
	UserID int    `gorm:"not null;uniqueIndex:idx_notebook_user_title" json:"user_id"`
	Notes  []Note `json:"notes,omitempty"`
}

type Note struct {
	ID         int       `gorm:"primary_key;autoIncrement" json:"id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	TopicID    *int      `gorm:"index" json:"topic_id"`    // nullable, cleared when topics are re-imported
	SubtopicID *int      `gorm:"index" json:"subtopic_id"` // nullable
	NoteType   string    `json:"note_type"`                // prompt type used: definition, custom, ...
	NotebookID int       `gorm:"not null;index" json:"notebook_id"`
	CreatedAt  time.Time `json:"created_at"`

	Topic    *Topic    `json:"-"`
	Subtopic *Subtopic `json:"-"`
}

type CustomPrompt struct {
	ID         int    `gorm:"primary_key;autoIncrement" json:"id"`
	PromptName string `gorm:"not null" json:"prompt_name"`
	PromptText string `gorm:"type:text;not null" json:"prompt_text"`
	PromptHash string `gorm:"index" json:"-"` // xxhash of PromptText, lookup key for dedupe
	AnswerType string `gorm:"not null" json:"answer_type"`
	UserID     *int   `gorm:"index" json:"user_id"`
}
